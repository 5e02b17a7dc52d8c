package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/internal/models"
)

func BenchmarkClassify(b *testing.B) {
	queries := []string{"@jsmith", "john@example.com", "id123456", "+1 (555) 123-4567", "john smith", "john_doe"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify(queries[i%len(queries)])
	}
}

func BenchmarkRank(b *testing.B) {
	records := make([]*models.SearchRecord, 500)
	for i := range records {
		records[i] = &models.SearchRecord{Username: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Rank(records, "user250", models.SearchTypeUsername)
	}
}

func BenchmarkEngineSearch(b *testing.B) {
	indexes := make(map[string]*fakeIndex, 16)
	for n := 0; n < 16; n++ {
		hits := make([]backend.Hit, 200)
		for i := range hits {
			hits[i] = backend.Hit{"full_name": fmt.Sprintf("Person %d", i), "username": fmt.Sprintf("user%d", i)}
		}
		filterable := []string{"username"}
		if n%2 == 1 {
			filterable = nil
		}
		indexes[fmt.Sprintf("leak_%02d", n)] = &fakeIndex{hits: hits, filterable: filterable}
	}
	fb := newFakeBackend(indexes)
	reg := NewRegistry(fb)
	if err := reg.Refresh(context.Background()); err != nil {
		b.Fatal(err)
	}
	e := NewEngine(fb, reg, &config.SearchConfig{MaxParallel: 8, IndexTimeout: time.Second})
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Search(ctx, "@user42", "")
	}
}

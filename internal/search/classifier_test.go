package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/osintrat/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  models.SearchType
	}{
		{"@jsmith", models.SearchTypeUsername},
		{"@john@example.com", models.SearchTypeUsername},
		{"  @Someone  ", models.SearchTypeUsername},
		{"a@b.com", models.SearchTypeEmail},
		{"John@Example.COM", models.SearchTypeEmail},
		{"user@localhost", models.SearchTypeName},
		{"id123", models.SearchTypeAccountID},
		{"ID1234567890123", models.SearchTypeAccountID},
		{"id", models.SearchTypeName},
		{"idaho", models.SearchTypeName},
		{"1234567890", models.SearchTypeAccountID},
		{"42", models.SearchTypeAccountID},
		{"12345678901", models.SearchTypePhone},
		{"+1 (555) 123-4567", models.SearchTypePhone},
		{"555-1234", models.SearchTypePhone},
		{"555-12", models.SearchTypeName},
		{"john_doe", models.SearchTypeUsername},
		{"john smith", models.SearchTypeName},
		{"Smith", models.SearchTypeName},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestClassify_AtPrefixAlwaysUsername(t *testing.T) {
	for _, q := range []string{"@", "@1234567", "@a.b@c.d", "@_", "@id99"} {
		assert.Equal(t, models.SearchTypeUsername, Classify(q), q)
	}
}

func TestClassify_NumericUpToTenIsAccountID(t *testing.T) {
	digits := "1234567890"
	for n := 1; n <= len(digits); n++ {
		assert.Equal(t, models.SearchTypeAccountID, Classify(digits[:n]), digits[:n])
		assert.Equal(t, models.SearchTypeAccountID, Classify("id"+digits[:n]), "id"+digits[:n])
	}
}

func TestClassify_Idempotent(t *testing.T) {
	for _, q := range []string{"John Smith", "+44 20 7946 0958", "a_b", "x@y.z", "id7"} {
		first := Classify(q)
		assert.Equal(t, first, Classify(q))
		assert.Equal(t, first, Classify(NormalizeName(q)))
	}
}

func TestCleanQuery(t *testing.T) {
	assert.Equal(t, "jsmith", CleanQuery("@JSmith", models.SearchTypeUsername))
	assert.Equal(t, "john_doe", CleanQuery(" john_doe ", models.SearchTypeUsername))
	assert.Equal(t, "123", CleanQuery("id123", models.SearchTypeAccountID))
	assert.Equal(t, "123", CleanQuery("ID123", models.SearchTypeAccountID))
	assert.Equal(t, "123", CleanQuery("123", models.SearchTypeAccountID))
	assert.Equal(t, "idx", CleanQuery("idx", models.SearchTypeAccountID))
	assert.Equal(t, "A@b.com", CleanQuery("A@b.com", models.SearchTypeEmail))
}

func TestNormalizePhoneDigits(t *testing.T) {
	assert.Equal(t, "15551234567", NormalizePhoneDigits("+1 (555) 123-4567"))
	assert.Equal(t, "", NormalizePhoneDigits("no digits"))
}

func TestNormalizeNameAndReverse(t *testing.T) {
	assert.Equal(t, "john smith", NormalizeName("  John \t  SMITH "))
	assert.Equal(t, "smith john", ReverseWords("john smith"))
	assert.Equal(t, "c b a", ReverseWords("a  b c"))
	assert.Equal(t, "", ReverseWords(""))
}

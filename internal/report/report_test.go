package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/osintrat/internal/models"
)

func sampleResult() *models.SearchResult {
	return &models.SearchResult{
		Query:        "id123",
		SearchType:   models.SearchTypeAccountID,
		Success:      true,
		ResultsFound: true,
		Count:        1,
		Records: []*models.SearchRecord{
			{Name: "John Smith", AccountID: float64(123), Email: "", Country: "N/A", Source: "leak_a"},
		},
	}
}

func TestText(t *testing.T) {
	out := string(Text(sampleResult()))
	assert.True(t, strings.HasPrefix(out, "🔍 USER SEARCH RESULTS\n"+strings.Repeat("=", 40)))
	assert.Contains(t, out, "\nQuery: id123\n")
	assert.Contains(t, out, "Search Type: Account_id\n")
	assert.Contains(t, out, "Results Found: 1\n")
	assert.Contains(t, out, "Result #1\n"+strings.Repeat("-", 30)+"\nName: John Smith\nAccount ID: 123\nSource: leak_a\n")
	assert.NotContains(t, out, "Email:")
	assert.NotContains(t, out, "Country:")
	assert.True(t, strings.HasSuffix(out, "Search completed successfully.\n"))
}

func TestText_NoResults(t *testing.T) {
	out := string(Text(&models.SearchResult{Query: "nobody", SearchType: models.SearchTypeName}))
	assert.Contains(t, out, "No results found for your query.")
	assert.Contains(t, out, "Results Found: 0")
}

func TestRender(t *testing.T) {
	data, name, err := Render(sampleResult(), "")
	require.NoError(t, err)
	assert.Equal(t, "search_results_account_id.txt", name)
	assert.NotEmpty(t, data)

	_, _, err = Render(sampleResult(), "pdf")
	assert.Error(t, err)

	assert.Equal(t, "search_results_unknown.txt", FileName(&models.SearchResult{}, FormatText))
}

func TestXLSX(t *testing.T) {
	data, name, err := Render(sampleResult(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "search_results_account_id.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Account ID", rows[0][4])
	assert.Equal(t, "John Smith", rows[1][0])
	assert.Equal(t, "123", rows[1][4])
}

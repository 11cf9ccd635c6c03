package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/core"
)

// fakeSheets is a minimal Sheets v4 endpoint holding one values matrix per
// tab.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	added   []string
	metaGet int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			title := rq.AddSheet.Properties.Title
			f.added = append(f.added, title)
			f.tabs[title] = nil
		}
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/") && strings.HasSuffix(path, ":clear"):
		f.tabs[tabOf(path)] = nil
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, `{"error":{"message":"bad input option"}}`, http.StatusBadRequest)
			return
		}
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.tabs[tabOf(path)] = vr.Values
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(gsheet.ValueRange{Values: f.tabs[tabOf(path)]})
	default:
		f.metaGet++
		ss := gsheet.Spreadsheet{}
		for title := range f.tabs {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	}
}

// tabOf extracts the tab title from ".../values/'Budget alice'!A:F[:clear]".
func tabOf(path string) string {
	rng := path[strings.Index(path, "/values/")+len("/values/"):]
	rng = strings.TrimSuffix(rng, ":clear")
	tab, _, _ := strings.Cut(rng, "!")
	return strings.ReplaceAll(strings.Trim(tab, "'"), "''", "'")
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{tabs: map[string][][]any{"Sheet1": nil}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, Config{SpreadsheetID: "sheet-id"}), fake
}

func TestWriteSummariesCreatesTabOnce(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	doc := core.NewDocument()
	require.NoError(t, doc.SetIncome("2024-01", core.MustParseMoney("2000")))
	require.NoError(t, doc.SetExpense("2024-01", "Groceries", core.MustParseMoney("500")))
	rows := []core.MonthSummary{core.Summarize("2024-01", doc.Months["2024-01"])}

	require.NoError(t, c.WriteSummaries(ctx, "alice", rows))
	require.NoError(t, c.WriteSummaries(ctx, "alice", rows))

	assert.Equal(t, []string{"Budget alice"}, fake.added)
	assert.Equal(t, 1, fake.metaGet, "tab titles are cached after the first lookup")

	got := fake.tabs["Budget alice"]
	require.Len(t, got, 2)
	assert.Equal(t, []any{"Month", "Income", "Expenses", "Savings", "Savings Rate", "Debt"}, got[0])
	assert.Equal(t, []any{"2024-01", "2000.00", "500.00", "1500.00", "75.0%", "0.00"}, got[1])
}

func TestReadSummaries(t *testing.T) {
	c, fake := newTestClient(t)
	fake.tabs["Budget bob"] = [][]any{
		{"Month", "Income", "Expenses", "Savings", "Savings Rate", "Debt"},
		{"2024-01", 1000.0, 1200.0, -200.0, -0.2, 50.0},
		{"2024-02", 0.0, 0.0, 0.0, "0%", 0.0},
		{},
	}

	rows, err := c.ReadSummaries(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01", rows[0].Month)
	assert.Equal(t, "-200.00", rows[0].Savings.String())
	assert.InDelta(t, -20.0, rows[0].SavingsRate, 1e-9)
	assert.True(t, rows[0].HasRate)
	assert.False(t, rows[1].HasRate)
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestQuoteRange(t *testing.T) {
	assert.Equal(t, "'Budget alice'!A:F", quoteRange("Budget alice", "A:F"))
	assert.Equal(t, "'Budget o''neil'!A1", quoteRange("Budget o'neil", "A1"))
}

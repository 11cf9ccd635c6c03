package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"budget/internal/core"
)

func TestParseMonthParam(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  string
	}{
		{"provided", url.Values{"month": {"2024-06"}}, "2024-06"},
		{"trimmed", url.Values{"month": {" 2024-06 "}}, "2024-06"},
		{"missing uses fallback", url.Values{}, "2025-01"},
		{"blank uses fallback", url.Values{"month": {"  "}}, "2025-01"},
		{"invalid passed through", url.Values{"month": {"June"}}, "June"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMonthParam(tt.query, "2025-01"); got != tt.want {
				t.Errorf("ParseMonthParam() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAmountField(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"", "0.00", nil},
		{"  ", "0.00", nil},
		{"1200", "1200.00", nil},
		{"12,5", "12.50", nil},
		{"-3", "", core.ErrNegativeAmount},
		{"abc", "", core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmountField(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmountField(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"category": "Groceries", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/budget/expense", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Get("category"); got != "Groceries" {
		t.Errorf("Get('category') = %q, want 'Groceries'", got)
	}
	if got := parser.Get("amount"); got != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", got)
	}
	if got := parser.Get("missing"); got != "" {
		t.Errorf("Get('missing') = %q, want empty", got)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "category=Dining+Out&amount=%0012.30"
	req := httptest.NewRequest(http.MethodPost, "/budget/expense", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if got := parser.Get("category"); got != "Dining Out" {
		t.Errorf("Get('category') = %q, want 'Dining Out'", got)
	}
	if got := parser.Get("amount"); got != "12.30" {
		t.Errorf("control characters not stripped: %q", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/budget/save", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/budget/income", strings.NewReader(`{"amount":`))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
	// Parse is memoized.
	if err := parser.Parse(); err == nil {
		t.Fatal("expected the memoized error")
	}
}

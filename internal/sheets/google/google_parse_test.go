package google

import (
	"testing"
)

func TestParseSummaryRows(t *testing.T) {
	tests := []struct {
		name    string
		values  [][]any
		want    int
		wantErr bool
	}{
		{"empty", nil, 0, false},
		{"header only", [][]any{{"Month", "Income"}}, 0, false},
		{"formatted strings", [][]any{{"2024-03", "$1,200.50", "200", "1,000.50", "83.3%", "0"}}, 1, false},
		{"bad month", [][]any{{"March", 1.0, 1.0, 0.0, 0.0, 0.0}}, 0, true},
		{"short row", [][]any{{"2024-03", 1.0}}, 0, true},
		{"bad amount", [][]any{{"2024-03", "lots", 1.0, 0.0, 0.0, 0.0}}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSummaryRows(tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}

	rows, _ := parseSummaryRows([][]any{{"2024-03", "$1,200.50", "200", "1,000.50", "83.3%", "0"}})
	if rows[0].Income.String() != "1200.50" || rows[0].SavingsRate != 83.3 {
		t.Errorf("parsed = %+v", rows[0])
	}
}

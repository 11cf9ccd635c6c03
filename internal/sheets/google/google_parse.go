package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// parseSummaryRows converts a values matrix (as returned by the Sheets API
// with UNFORMATTED_VALUE) into summaries. The header row and blank rows are
// skipped. Percent cells come back as fractions.
func parseSummaryRows(values [][]any) ([]core.MonthSummary, error) {
	var out []core.MonthSummary
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 || cols[0] == "" {
			continue
		}
		if i == 0 && strings.EqualFold(cols[0], "month") {
			continue
		}
		if len(cols) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", i+1, len(cols))
		}
		if err := core.ValidateMonthKey(cols[0]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		s := core.MonthSummary{Month: cols[0]}
		var err error
		for _, f := range []struct {
			dst  *core.Money
			cell string
		}{
			{&s.Income, cols[1]},
			{&s.Expenses, cols[2]},
			{&s.Savings, cols[3]},
			{&s.Debt, cols[5]},
		} {
			if *f.dst, err = parseAmountCell(f.cell); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		if s.SavingsRate, err = parseRateCell(row[4]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		s.HasRate = s.Income.IsPositive()
		out = append(out, s)
	}
	return out, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseAmountCell accepts numbers and strings with currency symbols or
// thousands separators; savings may be negative.
func parseAmountCell(s string) (core.Money, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return core.Money{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid amount %q", s)
	}
	return core.NewMoney(d), nil
}

func parseRateCell(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x * 100, nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%"))
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid rate %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("invalid rate %v", v)
	}
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(in []Insight) []InsightKind {
	out := make([]InsightKind, 0, len(in))
	for _, i := range in {
		out = append(out, i.Kind)
	}
	return out
}

func TestSavingsTier(t *testing.T) {
	cases := []struct {
		rate float64
		want InsightKind
	}{
		{62, InsightSavingsGreat},
		{20.0001, InsightSavingsGreat},
		{20, InsightSavingsGood},
		{10.5, InsightSavingsGood},
		{10, InsightSavingsLow},
		{0, InsightSavingsLow},
		{-40, InsightSavingsLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SavingsTier(tc.rate), "rate %v", tc.rate)
	}
}

func TestInsightsScenario(t *testing.T) {
	doc := &Document{Months: map[string]*MonthRecord{
		"2024-01": month(5000, 1000, map[string]int64{"Rent": 1500, "Groceries": 400}),
	}}

	got := Insights("2024-01", doc)
	assert.Equal(t, []InsightKind{InsightSavingsGreat, InsightTopExpense, InsightDebtPayoff}, kinds(got))
	assert.Contains(t, got[0].Message, "62.0%")
	assert.Contains(t, got[1].Message, "Rent")
	assert.Contains(t, got[1].Message, "$1,500.00")
	assert.Contains(t, got[2].Message, "0.3 months")
	assert.InDelta(t, 1000.0/3100.0, got[2].Value, 1e-9)
}

func TestInsightsZeroIncome(t *testing.T) {
	doc := &Document{Months: map[string]*MonthRecord{
		"2024-01": month(0, 0, map[string]int64{"Misc": 50}),
	}}
	assert.Equal(t, []InsightKind{InsightTopExpense}, kinds(Insights("2024-01", doc)))
}

func TestInsightsEmptyMonth(t *testing.T) {
	doc := NewDocument()
	assert.Empty(t, Insights("2024-01", doc))
}

func TestInsightsOverspend(t *testing.T) {
	doc := &Document{Months: map[string]*MonthRecord{
		"2024-01": month(1000, 0, map[string]int64{"Rent": 900}),
	}}
	got := Insights("2024-01", doc)
	require.Equal(t, []InsightKind{InsightSavingsLow, InsightTopExpense, InsightOverspend}, kinds(got))
	assert.Contains(t, got[2].Message, "$800.00")
	assert.InDelta(t, 800.0, got[2].Value, 1e-9)

	doc.Months["2024-01"] = month(1000, 0, map[string]int64{"Rent": 800})
	assert.NotContains(t, kinds(Insights("2024-01", doc)), InsightOverspend, "exactly 80% is allowed")
}

func TestInsightsMonthOverMonth(t *testing.T) {
	doc := &Document{Months: map[string]*MonthRecord{
		"2023-09": month(0, 0, map[string]int64{"Rent": 100}),
		"2024-01": month(0, 0, map[string]int64{"Rent": 150}),
	}}

	got := Insights("2024-01", doc)
	require.Contains(t, kinds(got), InsightExpensesUp, "gaps between months still count")
	for _, in := range got {
		if in.Kind == InsightExpensesUp {
			assert.InDelta(t, 50.0, in.Value, 1e-9)
		}
	}

	doc.Months["2024-01"] = month(0, 0, map[string]int64{"Rent": 75})
	assert.Contains(t, kinds(Insights("2024-01", doc)), InsightExpensesDown)

	doc.Months["2024-01"] = month(0, 0, map[string]int64{"Rent": 100})
	assert.NotContains(t, kinds(Insights("2024-01", doc)), InsightExpensesDown)
	assert.NotContains(t, kinds(Insights("2024-01", doc)), InsightExpensesUp)

	// earliest month has no predecessor
	assert.NotContains(t, kinds(Insights("2023-09", doc)), InsightExpensesUp)

	doc.Months["2023-09"] = month(0, 0, nil)
	assert.NotContains(t, kinds(Insights("2024-01", doc)), InsightExpensesUp, "zero predecessor is skipped")
}

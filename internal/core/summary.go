package core

import (
	"fmt"
	"slices"
	"strings"
)

// CategoryAmount is one row of the expense breakdown.
type CategoryAmount struct {
	Name    string
	Amount  Money
	Percent float64 // share of total expenses, 0 when the total is 0
}

// MonthSummary is the set of derived figures for a single month.
type MonthSummary struct {
	Month       string  `json:"month"`
	Income      Money   `json:"income"`
	Expenses    Money   `json:"expenses"`
	Savings     Money   `json:"savings"`
	Debt        Money   `json:"debt"`
	SavingsRate float64 `json:"savings_rate"`
	HasRate     bool    `json:"has_rate"`
}

// RateLabel formats the savings rate, "0%" when income is zero.
func (s MonthSummary) RateLabel() string {
	return FormatRate(s.SavingsRate, s.HasRate)
}

// Summarize computes the month summary; a nil record summarizes as zeros.
func Summarize(key string, m *MonthRecord) MonthSummary {
	rate, ok := SavingsRate(m)
	s := MonthSummary{
		Month:       key,
		Expenses:    TotalExpenses(m),
		Savings:     Savings(m),
		SavingsRate: rate,
		HasRate:     ok,
	}
	if m != nil {
		s.Income = m.Income
		s.Debt = m.Debt
	}
	return s
}

// Breakdown lists the month's non-zero expenses with each category's share
// of the total, largest first. Equal amounts are ordered by name.
func Breakdown(m *MonthRecord) []CategoryAmount {
	total := TotalExpenses(m)
	var rows []CategoryAmount
	if m == nil {
		return rows
	}
	for name, amt := range m.Spending() {
		if !amt.IsPositive() {
			continue
		}
		rows = append(rows, CategoryAmount{
			Name:    name,
			Amount:  amt,
			Percent: PercentOfTotal(amt, total),
		})
	}
	slices.SortFunc(rows, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rows
}

// FormatRate renders a percentage with one decimal.
func FormatRate(rate float64, ok bool) string {
	if !ok {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

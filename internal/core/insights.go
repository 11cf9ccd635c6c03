package core

import (
	"fmt"
	"slices"
)

// InsightKind identifies which rule produced an insight.
type InsightKind string

const (
	InsightSavingsGreat InsightKind = "savings_great"
	InsightSavingsGood  InsightKind = "savings_good"
	InsightSavingsLow   InsightKind = "savings_low"
	InsightTopExpense   InsightKind = "top_expense"
	InsightExpensesUp   InsightKind = "expenses_up"
	InsightExpensesDown InsightKind = "expenses_down"
	InsightDebtPayoff   InsightKind = "debt_payoff"
	InsightOverspend    InsightKind = "overspend"
)

// Insight is one short observation about the selected month.
// Value carries the figure the message is built from (a rate, a change
// percentage, a month count or a recommended amount).
type Insight struct {
	Kind    InsightKind `json:"kind"`
	Message string      `json:"message"`
	Value   float64     `json:"value"`
}

// SavingsTier classifies a savings rate. The lower bound of each tier is
// exclusive: exactly 20 is "good" and exactly 10 is "low".
func SavingsTier(rate float64) InsightKind {
	switch {
	case rate > 20:
		return InsightSavingsGreat
	case rate > 10:
		return InsightSavingsGood
	default:
		return InsightSavingsLow
	}
}

// Insights derives the observations for month key of doc. Each rule is
// checked on its own; a rule whose precondition fails is skipped.
func Insights(key string, doc *Document) []Insight {
	cur := doc.Months[key]
	total := TotalExpenses(cur)
	savings := Savings(cur)
	var out []Insight

	if rate, ok := SavingsRate(cur); ok {
		out = append(out, savingsInsight(rate))
	}

	if total.IsPositive() {
		if top, ok := TopExpense(cur); ok {
			out = append(out, Insight{
				Kind:    InsightTopExpense,
				Message: fmt.Sprintf("Your highest expense is %s at %s", top.Name, top.Amount.Format()),
				Value:   top.Percent,
			})
		}
	}

	if in, ok := monthOverMonth(key, total, doc); ok {
		out = append(out, in)
	}

	if cur != nil && cur.Debt.IsPositive() && savings.IsPositive() {
		months := cur.Debt.Decimal().Div(savings.Decimal()).InexactFloat64()
		out = append(out, Insight{
			Kind:    InsightDebtPayoff,
			Message: fmt.Sprintf("At your current savings rate, you can pay off your debt in %.1f months", months),
			Value:   months,
		})
	}

	if cur != nil && cur.Income.IsPositive() {
		limit := cur.Income.MulRatio("0.8")
		if total.Cmp(limit) > 0 {
			out = append(out, Insight{
				Kind:    InsightOverspend,
				Message: fmt.Sprintf("Your expenses are over 80%% of your income. Try to keep them under %s", limit.Format()),
				Value:   limit.Float64(),
			})
		}
	}

	return out
}

func savingsInsight(rate float64) Insight {
	kind := SavingsTier(rate)
	var msg string
	switch kind {
	case InsightSavingsGreat:
		msg = fmt.Sprintf("Great job! You're saving %.1f%% of your income.", rate)
	case InsightSavingsGood:
		msg = fmt.Sprintf("Good work. You're saving %.1f%% of your income; aim for more than 20%%.", rate)
	default:
		msg = fmt.Sprintf("You're saving %.1f%% of your income. Try to save at least 10-20%%.", rate)
	}
	return Insight{Kind: kind, Message: msg, Value: rate}
}

// monthOverMonth compares total expenses with the closest earlier stored
// month, however far back it is.
func monthOverMonth(key string, total Money, doc *Document) (Insight, bool) {
	keys := doc.MonthKeys()
	if len(keys) < 2 {
		return Insight{}, false
	}
	i, _ := slices.BinarySearch(keys, key)
	if i == 0 {
		return Insight{}, false
	}
	prevTotal := TotalExpenses(doc.Months[keys[i-1]])
	if prevTotal.IsZero() {
		return Insight{}, false
	}

	change := percentOf(total.Sub(prevTotal), prevTotal)
	switch {
	case change > 0:
		return Insight{
			Kind:    InsightExpensesUp,
			Message: fmt.Sprintf("Your expenses increased by %.1f%% compared to last month", change),
			Value:   change,
		}, true
	case change < 0:
		return Insight{
			Kind:    InsightExpensesDown,
			Message: fmt.Sprintf("Your expenses decreased by %.1f%% compared to last month", -change),
			Value:   change,
		}, true
	default:
		return Insight{}, false
	}
}

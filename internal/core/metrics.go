package core

// TotalExpenses sums every category and one-time amount of the month.
func TotalExpenses(m *MonthRecord) Money {
	var total Money
	if m == nil {
		return total
	}
	for _, v := range m.Expenses {
		total = total.Add(v)
	}
	for _, v := range m.OneTime {
		total = total.Add(v)
	}
	return total
}

// Savings is income minus total expenses. It may be negative.
func Savings(m *MonthRecord) Money {
	if m == nil {
		return Money{}
	}
	return m.Income.Sub(TotalExpenses(m))
}

// SavingsRate returns savings as a percentage of income. The second result
// is false when income is zero and the rate is undefined.
func SavingsRate(m *MonthRecord) (float64, bool) {
	if m == nil || m.Income.IsZero() {
		return 0, false
	}
	return percentOf(Savings(m), m.Income), true
}

// PercentOfTotal returns amount/total*100, or 0 when total is zero.
func PercentOfTotal(amount, total Money) float64 {
	if total.IsZero() {
		return 0
	}
	return percentOf(amount, total)
}

// TopExpense returns the category or one-time expense with the largest
// positive amount.
// Ties go to the lexicographically smallest name. It reports false when
// every amount is zero.
func TopExpense(m *MonthRecord) (CategoryAmount, bool) {
	var top CategoryAmount
	found := false
	if m == nil {
		return top, false
	}
	for name, amt := range m.Spending() {
		if !amt.IsPositive() {
			continue
		}
		switch c := amt.Cmp(top.Amount); {
		case !found, c > 0, c == 0 && name < top.Name:
			top = CategoryAmount{Name: name, Amount: amt}
			found = true
		}
	}
	if found {
		top.Percent = PercentOfTotal(top.Amount, TotalExpenses(m))
	}
	return top, found
}

package core

import (
	"iter"
	"slices"
	"strings"
)

// Metric names a trend series.
type Metric string

const (
	MetricSavings  Metric = "savings"
	MetricExpenses Metric = "expenses"
	MetricDebt     Metric = "debt"
)

// Metrics lists the supported trend metrics in display order.
var Metrics = []Metric{MetricSavings, MetricExpenses, MetricDebt}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Metrics, m) {
		return "", ErrUnknownMetric
	}
	return m, nil
}

// Value computes the metric for a single month.
func (m Metric) Value(rec *MonthRecord) Money {
	switch m {
	case MetricSavings:
		return Savings(rec)
	case MetricExpenses:
		return TotalExpenses(rec)
	case MetricDebt:
		if rec == nil {
			return Money{}
		}
		return rec.Debt
	}
	return Money{}
}

// Trend yields (month key, value) pairs in ascending month order. The
// sequence holds no state of its own; every range over it walks the document
// again. An unknown metric yields nothing.
func Trend(doc *Document, metric Metric) iter.Seq2[string, Money] {
	return func(yield func(string, Money) bool) {
		if !slices.Contains(Metrics, metric) {
			return
		}
		for _, key := range doc.MonthKeys() {
			if !yield(key, metric.Value(doc.Months[key])) {
				return
			}
		}
	}
}

// Point is a materialized trend sample.
type Point struct {
	Month string `json:"month"`
	Value Money  `json:"value"`
}

// CollectTrend drains a trend into a slice.
func CollectTrend(seq iter.Seq2[string, Money]) []Point {
	points := []Point{}
	for k, v := range seq {
		points = append(points, Point{Month: k, Value: v})
	}
	return points
}

// Comparison summarizes every stored month, most recent first.
func Comparison(doc *Document) []MonthSummary {
	keys := doc.MonthKeys()
	rows := make([]MonthSummary, 0, len(keys))
	for _, key := range slices.Backward(keys) {
		rows = append(rows, Summarize(key, doc.Months[key]))
	}
	return rows
}

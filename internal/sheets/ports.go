// Package sheets defines the outbound ports of the spreadsheet mirror.
// Each user gets one tab holding a row per stored month.
package sheets

import (
	"context"

	"budget/internal/core"
)

type (
	// SummaryWriter replaces a user's mirrored rows.
	SummaryWriter interface {
		WriteSummaries(ctx context.Context, username string, rows []core.MonthSummary) error
	}

	// SummaryReader reads a user's mirrored rows back.
	SummaryReader interface {
		ReadSummaries(ctx context.Context, username string) ([]core.MonthSummary, error)
	}

	// Mirror is implemented by every writer.
	Mirror interface {
		SummaryWriter
		SummaryReader
	}
)

// Header is the first row of every user tab.
var Header = []string{"Month", "Income", "Expenses", "Savings", "Savings Rate", "Debt"}

// Rows summarizes every stored month of doc in ascending month order.
func Rows(doc *core.Document) []core.MonthSummary {
	keys := doc.MonthKeys()
	rows := make([]core.MonthSummary, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, core.Summarize(k, doc.Months[k]))
	}
	return rows
}

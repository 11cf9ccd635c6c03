// Package export renders the downloadable JSON snapshot of a budget and
// optionally archives each snapshot to S3.
package export

import (
	"context"
	"fmt"
	"time"

	"budget/internal/core"
)

// Snapshot is one rendered export.
type Snapshot struct {
	Filename string
	Body     []byte
}

// Filename is budget_data_<username>_<YYYYMMDD>.json.
func Filename(username string, now time.Time) string {
	return fmt.Sprintf("budget_data_%s_%s.json", username, now.Format("20060102"))
}

// Render serializes doc with the same canonical encoding the stores use.
// doc is not modified.
func Render(username string, doc *core.Document, now time.Time) (Snapshot, error) {
	body, err := core.EncodeDocument(doc.Clone())
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Filename: Filename(username, now), Body: body}, nil
}

// Archiver keeps a copy of every export.
type Archiver interface {
	Archive(ctx context.Context, username string, snap Snapshot) error
}

// Key is the object key an export is archived under.
func Key(username, filename string) string {
	return "exports/" + username + "/" + filename
}

// Package leadstore is the tabular persistence boundary for lead records:
// key-ordered rows with header-named fields, partial upsert by key, and two
// key-value tabs (PROMPTS, CONFIG) read once per pipeline run. The Sheets
// driver is the primary backend; a Notion driver covers teams that keep their
// lead table there.
package leadstore

import (
	"context"
	"time"

	"github.com/divisual/leadgen-cli/internal/model"
)

// Well-known tab names.
const (
	TabPrompts = "PROMPTS"
	TabConfig  = "CONFIG"
	TabLogs    = "LOGS"
)

// Store is the record-store contract both pipelines consume. Upserts are the
// only row mutation: a partial field map is merged into the row whose
// matchField equals matchValue, or appended as a new row. Implementations are
// not transactional; concurrent runs against the same tab are last-writer-wins.
type Store interface {
	// ReadRows returns all data rows of a tab in table order. The header row
	// supplies the field names and is not included.
	ReadRows(ctx context.Context, tab string) ([]model.Row, error)

	// UpsertRow merges fields into the row matching matchField==matchValue,
	// creating missing columns, or appends a new row when no match exists.
	UpsertRow(ctx context.Context, tab, matchField, matchValue string, fields map[string]string) error

	// ReadKV reads a two-column tab as a key→value mapping. A missing tab
	// reads as empty, not as an error.
	ReadKV(ctx context.Context, tab string) (map[string]string, error)

	// WriteKV replaces the full contents of a key-value tab.
	WriteKV(ctx context.Context, tab string, kv map[string]string) error

	// AppendLog appends a timestamped line to the LOGS tab.
	AppendLog(ctx context.Context, ts time.Time, message string) error

	// EnsureColumns makes sure the tab's header row contains every column,
	// appending the missing ones.
	EnsureColumns(ctx context.Context, tab string, columns []string) error
}

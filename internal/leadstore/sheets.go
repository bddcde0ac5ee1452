package leadstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/divisual/leadgen-cli/internal/model"
)

// SheetsStore implements Store against one Google spreadsheet. Calls are
// throttled to stay under the Sheets per-minute quota; the upsert is the
// scan-then-write pattern the contract allows (no transactions, last writer
// wins on concurrent runs).
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
	clientOpts    []option.ClientOption
}

// SheetsOption configures the SheetsStore.
type SheetsOption func(*SheetsStore)

// WithSheetsRateLimit overrides the default 1 req/s throttle.
func WithSheetsRateLimit(rps float64) SheetsOption {
	return func(s *SheetsStore) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			s.limiter = nil
		}
	}
}

// WithClientOptions passes extra options to the underlying Sheets service
// (endpoint overrides in tests).
func WithClientOptions(opts ...option.ClientOption) SheetsOption {
	return func(s *SheetsStore) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// NewSheets creates a Sheets-backed Store using a caller-supplied OAuth
// access token (the token acquisition flow lives outside the core).
func NewSheets(ctx context.Context, accessToken, spreadsheetID string, opts ...SheetsOption) (*SheetsStore, error) {
	s := &SheetsStore{
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(s)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	clientOpts := append([]option.ClientOption{option.WithTokenSource(ts)}, s.clientOpts...)
	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: new service")
	}
	s.svc = svc
	return s, nil
}

func (s *SheetsStore) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *SheetsStore) values(ctx context.Context, rangeStr string) ([][]interface{}, error) {
	if err := s.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sheets: rate limit")
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rangeStr).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(err, "sheets: get %s", rangeStr)
	}
	return resp.Values, nil
}

// ReadRows reads a whole tab, mapping each data row onto the header names.
func (s *SheetsStore) ReadRows(ctx context.Context, tab string) ([]model.Row, error) {
	values, err := s.values(ctx, tab)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}

	headers := cellStrings(values[0])
	rows := make([]model.Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		cells := cellStrings(raw)
		row := make(model.Row, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UpsertRow scans the tab for a matching row and patches only the supplied
// columns, or appends a new row aligned to the (possibly extended) header.
func (s *SheetsStore) UpsertRow(ctx context.Context, tab, matchField, matchValue string, fields map[string]string) error {
	values, err := s.values(ctx, tab)
	if err != nil {
		return err
	}

	if len(values) == 0 {
		// Empty tab: write header + first row in one shot.
		headers := orderedKeys(fields)
		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = fields[h]
		}
		return s.append(ctx, tab, [][]interface{}{toCells(headers), row})
	}

	headers := cellStrings(values[0])
	matchIdx := indexOf(headers, matchField)
	if matchIdx < 0 {
		return eris.Errorf("sheets: tab %s has no %q column", tab, matchField)
	}

	rowIdx := -1
	for i := 1; i < len(values); i++ {
		cells := cellStrings(values[i])
		if matchIdx < len(cells) && cells[matchIdx] == matchValue {
			rowIdx = i
			break
		}
	}

	// Extend the header with any new columns first.
	for _, col := range orderedKeys(fields) {
		if indexOf(headers, col) >= 0 {
			continue
		}
		colIdx := len(headers)
		headers = append(headers, col)
		if err := s.update(ctx, fmt.Sprintf("%s!%s1", tab, columnLetter(colIdx)), [][]interface{}{{col}}); err != nil {
			return err
		}
	}

	if rowIdx < 0 {
		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = fields[h] // absent keys write ""
		}
		// New rows carry the match value even when the caller's field map
		// omits it.
		if _, ok := fields[matchField]; !ok {
			row[matchIdx] = matchValue
		}
		return s.append(ctx, tab, [][]interface{}{row})
	}

	// Patch only the supplied cells of the existing row.
	var data []*sheets.ValueRange
	for _, col := range orderedKeys(fields) {
		colIdx := indexOf(headers, col)
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", tab, columnLetter(colIdx), rowIdx+1),
			Values: [][]interface{}{{fields[col]}},
		})
	}
	if err := s.wait(ctx); err != nil {
		return eris.Wrap(err, "sheets: rate limit")
	}
	_, err = s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return eris.Wrapf(err, "sheets: batch update %s", tab)
	}
	return nil
}

// ReadKV reads the first two columns of a tab as keys and values. A missing
// tab reads as empty.
func (s *SheetsStore) ReadKV(ctx context.Context, tab string) (map[string]string, error) {
	values, err := s.values(ctx, tab)
	if err != nil {
		// The KV tabs are optional; treat any read failure as absent config.
		return map[string]string{}, nil
	}
	kv := make(map[string]string, len(values))
	for _, raw := range values {
		cells := cellStrings(raw)
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		v := ""
		if len(cells) > 1 {
			v = cells[1]
		}
		kv[cells[0]] = v
	}
	return kv, nil
}

// WriteKV clears the tab and rewrites it from the mapping.
func (s *SheetsStore) WriteKV(ctx context.Context, tab string, kv map[string]string) error {
	if err := s.wait(ctx); err != nil {
		return eris.Wrap(err, "sheets: rate limit")
	}
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, tab, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return eris.Wrapf(err, "sheets: clear %s", tab)
	}
	if len(kv) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(kv))
	for _, k := range orderedKeys(kv) {
		rows = append(rows, []interface{}{k, kv[k]})
	}
	return s.update(ctx, tab+"!A1", rows)
}

// AppendLog appends one timestamped line to the LOGS tab.
func (s *SheetsStore) AppendLog(ctx context.Context, ts time.Time, message string) error {
	return s.append(ctx, TabLogs, [][]interface{}{{ts.UTC().Format(time.RFC3339), message}})
}

// EnsureColumns appends any missing columns to the tab's header row, writing
// the full header when the tab is empty.
func (s *SheetsStore) EnsureColumns(ctx context.Context, tab string, columns []string) error {
	values, err := s.values(ctx, tab+"!1:1")
	if err != nil {
		return err
	}
	var headers []string
	if len(values) > 0 {
		headers = cellStrings(values[0])
	}
	if len(headers) == 0 {
		return s.update(ctx, tab+"!A1", [][]interface{}{toCells(columns)})
	}
	missing := make([]string, 0)
	for _, col := range columns {
		if indexOf(headers, col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return s.update(ctx, fmt.Sprintf("%s!%s1", tab, columnLetter(len(headers))), [][]interface{}{toCells(missing)})
}

func (s *SheetsStore) update(ctx context.Context, rangeStr string, rows [][]interface{}) error {
	if err := s.wait(ctx); err != nil {
		return eris.Wrap(err, "sheets: rate limit")
	}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rangeStr, &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return eris.Wrapf(err, "sheets: update %s", rangeStr)
	}
	return nil
}

func (s *SheetsStore) append(ctx context.Context, tab string, rows [][]interface{}) error {
	if err := s.wait(ctx); err != nil {
		return eris.Wrap(err, "sheets: rate limit")
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, tab, &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return eris.Wrapf(err, "sheets: append %s", tab)
	}
	return nil
}

func cellStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toCells(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

// columnLetter converts a zero-based column index to A1 notation (A, B, ...,
// Z, AA, AB, ...).
func columnLetter(idx int) string {
	letters := ""
	n := idx
	for {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return letters
}

package leadstore

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/divisual/leadgen-cli/internal/model"
)

// NotionAPI is the subset of the Notion client the driver needs.
type NotionAPI interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// NotionStore implements Store over Notion databases: one database per tab,
// columns as title/rich-text properties. The lead key column is the title
// property; everything else is rich text. Notion has no header row, so
// EnsureColumns is a no-op (the database schema is managed in Notion itself).
type NotionStore struct {
	api       NotionAPI
	databases map[string]string // tab name → database ID
	titleProp string            // key property of the lead database
}

// NewNotion creates a Notion-backed Store. databases maps tab names (lead
// tab, PROMPTS, CONFIG, LOGS) to Notion database IDs.
func NewNotion(token string, databases map[string]string) *NotionStore {
	return &NotionStore{
		api:       newRateLimitedNotion(token),
		databases: databases,
		titleProp: model.ColWeb,
	}
}

// NewNotionWithAPI injects a prebuilt API client; used by tests.
func NewNotionWithAPI(api NotionAPI, databases map[string]string) *NotionStore {
	return &NotionStore{api: api, databases: databases, titleProp: model.ColWeb}
}

func (n *NotionStore) dbID(tab string) (string, error) {
	id, ok := n.databases[tab]
	if !ok {
		return "", eris.Errorf("notion: no database configured for tab %s", tab)
	}
	return id, nil
}

// queryAll fetches every page of a database, following pagination cursors.
func (n *NotionStore) queryAll(ctx context.Context, dbID string, filter notionapi.Filter) ([]notionapi.Page, error) {
	var all []notionapi.Page
	req := &notionapi.DatabaseQueryRequest{Filter: filter}
	for {
		resp, err := n.api.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query database")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}
		req = &notionapi.DatabaseQueryRequest{Filter: filter, StartCursor: resp.NextCursor}
	}
}

// ReadRows maps each database page onto a Row using its title and rich-text
// properties.
func (n *NotionStore) ReadRows(ctx context.Context, tab string) ([]model.Row, error) {
	id, err := n.dbID(tab)
	if err != nil {
		return nil, err
	}
	pages, err := n.queryAll(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	rows := make([]model.Row, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, pageToRow(p))
	}
	return rows, nil
}

// UpsertRow updates the page whose key property equals matchValue, or
// creates a new one.
func (n *NotionStore) UpsertRow(ctx context.Context, tab, matchField, matchValue string, fields map[string]string) error {
	id, err := n.dbID(tab)
	if err != nil {
		return err
	}

	var filter notionapi.Filter
	if matchField == n.titleProp {
		filter = notionapi.PropertyFilter{
			Property: matchField,
			Title:    &notionapi.TextFilterCondition{Equals: matchValue},
		}
	} else {
		filter = notionapi.PropertyFilter{
			Property: matchField,
			RichText: &notionapi.TextFilterCondition{Equals: matchValue},
		}
	}

	pages, err := n.queryAll(ctx, id, filter)
	if err != nil {
		return err
	}

	props := n.buildProperties(fields)
	if len(pages) > 0 {
		if _, err := n.api.UpdatePage(ctx, string(pages[0].ID), &notionapi.PageUpdateRequest{Properties: props}); err != nil {
			return eris.Wrap(err, "notion: update page")
		}
		return nil
	}

	// New rows must carry the key property even when the caller only sent a
	// partial field map.
	if _, ok := fields[n.titleProp]; !ok && matchField == n.titleProp {
		props[n.titleProp] = titleProperty(matchValue)
	}
	_, err = n.api.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(id)},
		Properties: props,
	})
	if err != nil {
		return eris.Wrap(err, "notion: create page")
	}
	return nil
}

// ReadKV reads a Key/Value database as a mapping. A tab with no configured
// database reads as empty, mirroring the Sheets driver's missing-tab case.
func (n *NotionStore) ReadKV(ctx context.Context, tab string) (map[string]string, error) {
	id, ok := n.databases[tab]
	if !ok {
		return map[string]string{}, nil
	}
	pages, err := n.queryAll(ctx, id, nil)
	if err != nil {
		return map[string]string{}, nil
	}
	kv := make(map[string]string, len(pages))
	for _, p := range pages {
		row := pageToRow(p)
		if k := row["Key"]; k != "" {
			kv[k] = row["Value"]
		}
	}
	return kv, nil
}

// WriteKV upserts each key into the Key/Value database. Unlike the Sheets
// driver this does not delete absent keys; Notion page archival is left to
// the workspace owner.
func (n *NotionStore) WriteKV(ctx context.Context, tab string, kv map[string]string) error {
	id, err := n.dbID(tab)
	if err != nil {
		return err
	}
	for _, k := range orderedKeys(kv) {
		filter := notionapi.PropertyFilter{
			Property: "Key",
			Title:    &notionapi.TextFilterCondition{Equals: k},
		}
		pages, err := n.queryAll(ctx, id, filter)
		if err != nil {
			return err
		}
		props := notionapi.Properties{
			"Key":   titleProperty(k),
			"Value": richTextProperty(kv[k]),
		}
		if len(pages) > 0 {
			if _, err := n.api.UpdatePage(ctx, string(pages[0].ID), &notionapi.PageUpdateRequest{Properties: props}); err != nil {
				return eris.Wrap(err, "notion: update kv page")
			}
			continue
		}
		if _, err := n.api.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(id)},
			Properties: props,
		}); err != nil {
			return eris.Wrap(err, "notion: create kv page")
		}
	}
	return nil
}

// AppendLog creates one page in the LOGS database.
func (n *NotionStore) AppendLog(ctx context.Context, ts time.Time, message string) error {
	id, err := n.dbID(TabLogs)
	if err != nil {
		return err
	}
	_, err = n.api.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{DatabaseID: notionapi.DatabaseID(id)},
		Properties: notionapi.Properties{
			"Fecha":   titleProperty(ts.UTC().Format(time.RFC3339)),
			"Mensaje": richTextProperty(message),
		},
	})
	if err != nil {
		return eris.Wrap(err, "notion: append log")
	}
	return nil
}

// EnsureColumns is a no-op: Notion database schemas are managed in Notion.
func (n *NotionStore) EnsureColumns(context.Context, string, []string) error {
	return nil
}

// buildProperties maps a field map onto Notion properties: the key column
// becomes the title, everything else rich text.
func (n *NotionStore) buildProperties(fields map[string]string) notionapi.Properties {
	props := make(notionapi.Properties, len(fields))
	for _, k := range orderedKeys(fields) {
		if k == n.titleProp {
			props[k] = titleProperty(fields[k])
		} else {
			props[k] = richTextProperty(fields[k])
		}
	}
	return props
}

func pageToRow(p notionapi.Page) model.Row {
	row := make(model.Row, len(p.Properties))
	for name, prop := range p.Properties {
		switch v := prop.(type) {
		case *notionapi.TitleProperty:
			row[name] = plainText(v.Title)
		case *notionapi.RichTextProperty:
			row[name] = plainText(v.RichText)
		}
	}
	return row
}

func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}

func titleProperty(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{{Text: &notionapi.Text{Content: s}, PlainText: s}},
	}
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}, PlainText: s}},
	}
}

// rateLimitedNotion wraps the Notion client with the API's 3 req/s limit.
type rateLimitedNotion struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

func newRateLimitedNotion(token string) *rateLimitedNotion {
	return &rateLimitedNotion{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
	}
}

func (c *rateLimitedNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
}

func (c *rateLimitedNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	return c.inner.Page.Create(ctx, req)
}

func (c *rateLimitedNotion) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	return c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
}

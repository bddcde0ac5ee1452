package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/divisual/leadgen-cli/internal/config"
	"github.com/divisual/leadgen-cli/internal/fetch"
	"github.com/divisual/leadgen-cli/internal/model"
	"github.com/divisual/leadgen-cli/pkg/anthropic"
	"github.com/divisual/leadgen-cli/pkg/places"
)

// memStore is an in-memory lead store for end-to-end pipeline tests.
type memStore struct {
	mu   sync.Mutex
	tabs map[string][]model.Row
	kv   map[string]map[string]string
	logs []string

	readErr   error
	upsertErr error
	logErr    error
}

func newMemStore() *memStore {
	return &memStore{
		tabs: map[string][]model.Row{},
		kv:   map[string]map[string]string{},
	}
}

func (m *memStore) ReadRows(_ context.Context, tab string) ([]model.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	rows := make([]model.Row, len(m.tabs[tab]))
	for i, r := range m.tabs[tab] {
		cp := make(model.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		rows[i] = cp
	}
	return rows, nil
}

func (m *memStore) UpsertRow(_ context.Context, tab, matchField, matchValue string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range m.tabs[tab] {
		if r[matchField] == matchValue {
			for k, v := range fields {
				r[k] = v
			}
			return nil
		}
	}
	row := model.Row{matchField: matchValue}
	for k, v := range fields {
		row[k] = v
	}
	m.tabs[tab] = append(m.tabs[tab], row)
	return nil
}

func (m *memStore) ReadKV(_ context.Context, tab string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv := make(map[string]string, len(m.kv[tab]))
	for k, v := range m.kv[tab] {
		kv[k] = v
	}
	return kv, nil
}

func (m *memStore) WriteKV(_ context.Context, tab string, kv map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]string, len(kv))
	for k, v := range kv {
		cp[k] = v
	}
	m.kv[tab] = cp
	return nil
}

func (m *memStore) AppendLog(_ context.Context, _ time.Time, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append(m.logs, message)
	return nil
}

func (m *memStore) EnsureColumns(context.Context, string, []string) error { return nil }

func (m *memStore) rows(tab string) []model.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabs[tab]
}

// stubPlaces returns a fixed search response.
type stubPlaces struct {
	resp    *places.TextSearchResponse
	err     error
	queries []string
}

func (s *stubPlaces) TextSearch(_ context.Context, query string) (*places.TextSearchResponse, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

// stubAI answers CreateMessage with a fixed function.
type stubAI struct {
	fn func(anthropic.MessageRequest) (*anthropic.MessageResponse, error)
}

func (s *stubAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return s.fn(req)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// mockSender is a testify mock for the mail collaborator.
type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// stubFetcher serves canned pages by URL.
type stubFetcher struct {
	pages map[string]string
	errs  map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*fetch.Result, error) {
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	return &fetch.Result{StatusCode: 200, Body: s.pages[url]}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{Model: anthropic.DefaultModel},
		Discovery: config.DiscoveryConfig{FetchTimeoutSecs: 5},
		Outreach:  config.OutreachConfig{Quota: 10, FetchTimeoutSecs: 5},
	}
}

func newTestPipeline(leads *memStore, pl *stubPlaces, ai *stubAI, mail *mockSender, f *stubFetcher) *Pipeline {
	if pl == nil {
		pl = &stubPlaces{resp: &places.TextSearchResponse{}}
	}
	if ai == nil {
		ai = &stubAI{fn: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
			return textResponse(""), nil
		}}
	}
	if mail == nil {
		mail = new(mockSender)
	}
	if f == nil {
		f = &stubFetcher{pages: map[string]string{}}
	}
	p := New(testConfig(), leads, pl, ai, mail, f)
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

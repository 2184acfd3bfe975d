package enrichment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/source/imaging"
)

var fixedNow = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memoryEntries is an in-memory EntryRepository that applies write-sets like the store does
type memoryEntries struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*catalog.Product
	order     []uuid.UUID
	commits   []*enrichment.WriteSet
	pending   []uuid.UUID
	failures  map[uuid.UUID]string
	commitErr error
	findErr   error
	lastQuery catalog.ProductQuery
}

func newMemoryEntries(products ...*catalog.Product) *memoryEntries {
	m := &memoryEntries{products: make(map[uuid.UUID]*catalog.Product), failures: make(map[uuid.UUID]string)}
	for _, p := range products {
		m.add(p)
	}
	return m
}

func (m *memoryEntries) add(p *catalog.Product) {
	m.products[p.ID] = p
	m.order = append(m.order, p.ID)
}

func (m *memoryEntries) get(id uuid.UUID) *catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

func (m *memoryEntries) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryEntries) Find(_ context.Context, q catalog.ProductQuery) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []catalog.Product
	for _, id := range m.order {
		p := m.products[id]
		if matches(p, q) {
			out = append(out, *p)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memoryEntries) Count(ctx context.Context, q catalog.ProductQuery) (int64, error) {
	q.Limit = 0
	out, err := m.Find(ctx, q)
	return int64(len(out)), err
}

func matches(p *catalog.Product, q catalog.ProductQuery) bool {
	if len(q.IDs) > 0 {
		found := false
		for _, id := range q.IDs {
			found = found || id == p.ID
		}
		if !found {
			return false
		}
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			found = found || s == p.EnrichmentStatus
		}
		if !found {
			return false
		}
	}
	if q.RequireBarcode && !p.HasBarcode() {
		return false
	}
	if q.ExternalCategory != "" && p.Provenance.IcecatCategory != q.ExternalCategory {
		return false
	}
	return true
}

func (m *memoryEntries) MarkPending(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, id)
	if p, ok := m.products[id]; ok {
		p.EnrichmentStatus = catalog.EnrichmentStatusPending
	}
	return nil
}

func (m *memoryEntries) Commit(_ context.Context, id uuid.UUID, ws *enrichment.WriteSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits = append(m.commits, ws)
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	ws.Apply(p)
	return nil
}

func (m *memoryEntries) RecordFailure(_ context.Context, id uuid.UUID, message string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = message
	if p, ok := m.products[id]; ok {
		p.EnrichmentStatus = catalog.EnrichmentStatusError
		p.EnrichmentError = message
		p.EnrichmentLastSync = &at
	}
	return nil
}

func (m *memoryEntries) Save(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memoryEntries) SaveSpecifications(_ context.Context, id uuid.UUID, specs []catalog.Specification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Specifications = specs
	return nil
}

func (m *memoryEntries) AssignCategories(_ context.Context, ids []uuid.UUID, a catalog.CategoryAssignment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		ws := enrichment.NewWriteSet(p)
		ws.Category = &a
		ws.Apply(p)
		n++
	}
	return n, nil
}

func (m *memoryEntries) lastCommit() *enrichment.WriteSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.commits) == 0 {
		return nil
	}
	return m.commits[len(m.commits)-1]
}

var _ catalog.ProductRepository = (*memoryEntries)(nil)
var _ enrichment.EntryRepository = (*memoryEntries)(nil)

// memorySyncLogs keeps every saved state of every log row
type memorySyncLogs struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]enrichment.SyncLogRun
	saves   int
	saveErr error
	failAt  int // fail the n-th Save when > 0
}

func newMemorySyncLogs(existing ...enrichment.SyncLogRun) *memorySyncLogs {
	l := &memorySyncLogs{rows: make(map[uuid.UUID]enrichment.SyncLogRun)}
	for _, r := range existing {
		l.rows[r.ID] = r
	}
	return l
}

func (l *memorySyncLogs) Create(_ context.Context, run *enrichment.SyncLogRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[run.ID] = *run
	return nil
}

func (l *memorySyncLogs) Save(_ context.Context, run *enrichment.SyncLogRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saves++
	if l.failAt > 0 && l.saves == l.failAt {
		return l.saveErr
	}
	if _, ok := l.rows[run.ID]; !ok {
		return shared.ErrNotFound
	}
	l.rows[run.ID] = *run
	return nil
}

func (l *memorySyncLogs) FindByID(_ context.Context, id uuid.UUID) (*enrichment.SyncLogRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &r, nil
}

func (l *memorySyncLogs) FindRunning(_ context.Context, syncType enrichment.SyncType) ([]enrichment.SyncLogRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []enrichment.SyncLogRun
	for _, r := range l.rows {
		if r.SyncType == syncType && r.Status == enrichment.RunStatusRunning {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *memorySyncLogs) List(_ context.Context, filter enrichment.SyncLogFilter) ([]enrichment.SyncLogRun, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []enrichment.SyncLogRun
	for _, r := range l.rows {
		if filter.SyncType != "" && r.SyncType != filter.SyncType {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, int64(len(out)), nil
}

func (l *memorySyncLogs) byType(syncType enrichment.SyncType) []enrichment.SyncLogRun {
	out, _, _ := l.List(context.Background(), enrichment.SyncLogFilter{SyncType: syncType})
	return out
}

// stubConnector returns a fixed result and counts calls
type stubConnector struct {
	source enrichment.SourceID
	result enrichment.Result
	calls  int
}

func (c *stubConnector) Source() enrichment.SourceID { return c.source }

func (c *stubConnector) Fetch(context.Context, string, enrichment.FetchOptions) enrichment.Result {
	c.calls++
	return c.result
}

// stubImages serves a small JPEG for every URL except the ones listed as broken
type stubImages struct {
	broken  map[string]bool
	fetched []string
}

func (f *stubImages) Fetch(_ context.Context, url string) (*imaging.Image, bool) {
	f.fetched = append(f.fetched, url)
	if f.broken[url] {
		return nil, false
	}
	return &imaging.Image{Data: []byte("jpeg:" + url), ContentType: "image/jpeg", Width: 10, Height: 10}, true
}

type staticSettings struct {
	settings enrichment.Settings
	err      error
}

func (s staticSettings) Load(context.Context) (enrichment.Settings, error) {
	return s.settings, s.err
}

// MockEnricher is a mock implementation of Enricher
type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Enrich(ctx context.Context, entry *catalog.Product, barcode string, settings enrichment.Settings) (*EnrichResult, error) {
	args := m.Called(ctx, entry, barcode, settings)
	if fn, ok := args.Get(0).(func(*catalog.Product) *EnrichResult); ok {
		return fn(entry), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EnrichResult), args.Error(1)
}

// MockCategoryResolver is a mock implementation of CategoryResolver
type MockCategoryResolver struct {
	mock.Mock
}

func (m *MockCategoryResolver) Resolve(ctx context.Context, external string) (catalog.CategoryAssignment, error) {
	args := m.Called(ctx, external)
	return args.Get(0).(catalog.CategoryAssignment), args.Error(1)
}

// memoryCategories is an in-memory CategoryRepository
type memoryCategories struct {
	byID      map[uuid.UUID]*catalog.Category
	createErr error
	creates   int
}

func newMemoryCategories() *memoryCategories {
	return &memoryCategories{byID: make(map[uuid.UUID]*catalog.Category)}
}

func (r *memoryCategories) FindByID(_ context.Context, id uuid.UUID) (*catalog.Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryCategories) FindChild(_ context.Context, kind catalog.CategoryKind, parentID *uuid.UUID, name string) (*catalog.Category, error) {
	for _, c := range r.byID {
		if c.Kind != kind || c.Name != name {
			continue
		}
		if (parentID == nil && c.ParentID == nil) || (parentID != nil && c.ParentID != nil && *parentID == *c.ParentID) {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryCategories) Create(_ context.Context, c *catalog.Category) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.creates++
	r.byID[c.ID] = c
	return nil
}

// memoryMappings is an in-memory CategoryMappingRepository
type memoryMappings struct {
	byID map[uuid.UUID]*enrichment.CategoryMapping
	// raced is inserted on the first Create to simulate a concurrent writer
	raced *enrichment.CategoryMapping
}

func newMemoryMappings() *memoryMappings {
	return &memoryMappings{byID: make(map[uuid.UUID]*enrichment.CategoryMapping)}
}

func (r *memoryMappings) FindByID(_ context.Context, id uuid.UUID) (*enrichment.CategoryMapping, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memoryMappings) FindByExternal(_ context.Context, external string) (*enrichment.CategoryMapping, error) {
	for _, m := range r.byID {
		if m.ExternalCategory == external {
			cp := *m
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryMappings) Create(_ context.Context, m *enrichment.CategoryMapping) error {
	if r.raced != nil {
		r.byID[r.raced.ID] = r.raced
		r.raced = nil
	}
	for _, existing := range r.byID {
		if existing.ExternalCategory == m.ExternalCategory {
			return shared.ErrAlreadyExists
		}
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memoryMappings) Save(_ context.Context, m *enrichment.CategoryMapping) error {
	if _, ok := r.byID[m.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memoryMappings) FindAll(_ context.Context) ([]enrichment.CategoryMapping, error) {
	out := make([]enrichment.CategoryMapping, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalCategory < out[j].ExternalCategory })
	return out, nil
}

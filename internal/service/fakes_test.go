package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	downtown = model.Coordinate{Lat: 37.7812, Lng: -122.4112}
	uptown   = model.Coordinate{Lat: 37.7849, Lng: -122.4094}
)

// ─── Directions fakes ───────────────────────────────────────

type fakeRelay struct {
	modes gateway.ModeMeasures
	err   error
	calls int
}

func (f *fakeRelay) Directions(ctx context.Context, _, _ model.Coordinate) (gateway.ModeMeasures, error) {
	f.calls++
	return f.modes, f.err
}

type fakeProvider struct {
	mu      sync.Mutex
	results map[model.TravelMode]gateway.Measure // missing mode fails
	calls   []model.TravelMode
}

func (f *fakeProvider) Directions(ctx context.Context, _, _ model.Coordinate, mode model.TravelMode) (gateway.Measure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mode)
	m, ok := f.results[mode]
	if !ok {
		return gateway.Measure{}, gateway.ErrNoRoute
	}
	return m, nil
}

type memoryDirectionsCache struct {
	mu      sync.Mutex
	entries map[[2]model.Coordinate]model.DirectionsResult
}

func newMemoryDirectionsCache() *memoryDirectionsCache {
	return &memoryDirectionsCache{entries: map[[2]model.Coordinate]model.DirectionsResult{}}
}

func (c *memoryDirectionsCache) Get(_ context.Context, o, d model.Coordinate) (*model.DirectionsResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[[2]model.Coordinate{o, d}]
	if !ok {
		return nil, false
	}
	return &r, true
}

func (c *memoryDirectionsCache) Set(_ context.Context, o, d model.Coordinate, r model.DirectionsResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[[2]model.Coordinate{o, d}] = r
}

// ─── Generator fakes ────────────────────────────────────────

type fakeGenerator struct {
	body  string
	err   error
	calls int
	last  []byte
}

func (f *fakeGenerator) Generate(ctx context.Context, body []byte) ([]byte, error) {
	f.calls++
	f.last = body
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

type fakeTextGenerator struct {
	text  string
	err   error
	calls int
	last  gateway.GenerateRequest
}

func (f *fakeTextGenerator) GenerateText(ctx context.Context, req gateway.GenerateRequest) (string, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// ─── Store fakes ────────────────────────────────────────────

type memoryPlanStore struct {
	mu       sync.Mutex
	plans    map[string]model.Plan
	err      error
	onUpsert func()
}

func newMemoryPlanStore() *memoryPlanStore {
	return &memoryPlanStore{plans: map[string]model.Plan{}}
}

func (m *memoryPlanStore) Upsert(_ context.Context, p *model.Plan) error {
	if m.onUpsert != nil {
		m.onUpsert()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.plans[p.ProfileID] = *p
	return nil
}

func (m *memoryPlanStore) Get(_ context.Context, profileID string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.plans[profileID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (m *memoryPlanStore) Delete(_ context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, profileID)
	return m.err
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.PlanningSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]model.PlanningSession{}}
}

func (m *memorySessionStore) Create(_ context.Context, s *model.PlanningSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(*s)
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, id string) (*model.PlanningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := cloneSession(s)
	return &out, nil
}

func (m *memorySessionStore) Update(ctx context.Context, id string, fn func(*model.PlanningSession) error) (*model.PlanningSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	work := cloneSession(s)
	if err := fn(&work); err != nil {
		return nil, err
	}
	m.sessions[id] = cloneSession(work)
	return &work, nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func cloneSession(s model.PlanningSession) model.PlanningSession {
	if s.Options != nil {
		s.Options = append([]model.SessionOption(nil), s.Options...)
	}
	return s
}

// ─── Catalog fixture ────────────────────────────────────────

func testCandidates() []model.PlaceCandidate {
	return []model.PlaceCandidate{
		{ID: "p_1", Name: "Ferry Building", Category: "market", PriceTier: 2, Location: &model.Coordinate{Lat: 37.7955, Lng: -122.3937}},
		{ID: "p_2", Name: "Blue Bottle", Category: "cafe", PriceTier: 2, Location: &model.Coordinate{Lat: 37.7825, Lng: -122.4080}},
		{ID: "p_3", Name: "Dolores Park", Category: "park", PriceTier: 1, Location: &model.Coordinate{Lat: 37.7596, Lng: -122.4269}},
		{ID: "p_4", Name: "Tartine", Category: "bakery", PriceTier: 2, Location: &model.Coordinate{Lat: 37.7614, Lng: -122.4241}},
		{ID: "p_5", Name: "Coit Tower", Category: "landmark", PriceTier: 1},
	}
}

func testCatalog(city string) ([]model.PlaceCandidate, error) {
	if city != "sf" {
		return nil, errUnknownTestCity
	}
	return testCandidates(), nil
}

var errUnknownTestCity = errors.New("unknown city")

func testLocator(id string) (model.PlaceCandidate, bool) {
	for _, c := range testCandidates() {
		if c.ID == id {
			return c, true
		}
	}
	return model.PlaceCandidate{}, false
}

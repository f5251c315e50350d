package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shiva/wayfarer/internal/catalog"
	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

// ─── In-memory stores ───────────────────────────────────────

type memoryPlans struct {
	mu    sync.Mutex
	plans map[string]model.Plan
}

func (m *memoryPlans) Upsert(_ context.Context, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ProfileID] = *p
	return nil
}

func (m *memoryPlans) Get(_ context.Context, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, service.ErrPlanNotFound
	}
	return &p, nil
}

func (m *memoryPlans) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, id)
	return nil
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func (m *memorySessions) Create(_ context.Context, s *model.PlanningSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID], _ = json.Marshal(s)
	return nil
}

func (m *memorySessions) Get(_ context.Context, id string) (*model.PlanningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[id]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	s := &model.PlanningSession{}
	return s, json.Unmarshal(raw, s)
}

func (m *memorySessions) Update(ctx context.Context, id string, fn func(*model.PlanningSession) error) (*model.PlanningSession, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	return s, m.Create(ctx, s)
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ─── Fixture ────────────────────────────────────────────────

type testAPI struct {
	server *httptest.Server
	plans  *memoryPlans
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	plans := &memoryPlans{plans: map[string]model.Plan{}}
	planSvc := service.NewPlanService(plans, logger)
	directionsSvc := service.NewDirectionsService(nil, nil, logger)
	itinerarySvc := service.NewItineraryService(nil, nil, 0, logger)
	planningSvc := service.NewPlanningService(
		&memorySessions{sessions: map[string][]byte{}}, planSvc, itinerarySvc, catalog.Lookup, logger)
	routeSvc := service.NewRouteService(planSvc, directionsSvc, catalog.Place, logger)

	router := NewRouter(Handlers{
		Directions:  NewDirectionsHandler(directionsSvc),
		Itineraries: NewItineraryHandler(itinerarySvc, logger),
		Planning:    NewPlanningHandler(planningSvc, logger),
		Plans:       NewPlanHandler(planSvc, routeSvc, logger),
		Health: HealthHandler(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		}),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{server: srv, plans: plans}
}

func (a *testAPI) do(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := a.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// ─── Tests ──────────────────────────────────────────────────

func TestDirections(t *testing.T) {
	api := newTestAPI(t)

	var got model.DirectionsResult
	status := api.do(t, http.MethodGet, "/api/v1/directions?origin=37.7812,-122.4112&destination=37.7849,-122.4094", "", &got)

	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !got.Fallback || got.Driving == nil || got.Transit != nil {
		t.Errorf("got %+v, want synthetic driving only", got)
	}
}

func TestDirections_BadCoordinates(t *testing.T) {
	api := newTestAPI(t)

	for _, q := range []string{
		"origin=abc&destination=1,2",
		"origin=1,2",
		"origin=91,0&destination=1,2",
		"origin=1,2&destination=0,181",
	} {
		var e ErrorResponse
		if status := api.do(t, http.MethodGet, "/api/v1/directions?"+q, "", &e); status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, status)
		}
		if e.Error == "" {
			t.Errorf("%s: empty error code", q)
		}
	}
}

func TestListPlaces(t *testing.T) {
	api := newTestAPI(t)

	var places []model.PlaceCandidate
	if status := api.do(t, http.MethodGet, "/api/v1/cities/sf/places", "", &places); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(places) == 0 {
		t.Error("empty catalog")
	}

	var e ErrorResponse
	if status := api.do(t, http.MethodGet, "/api/v1/cities/gotham/places", "", &e); status != http.StatusNotFound || e.Error != "unknown_city" {
		t.Errorf("unknown city: %d %+v", status, e)
	}
}

func TestCreateItinerary_NoKeyFallback(t *testing.T) {
	api := newTestAPI(t)

	var got model.ItineraryOptions
	status := api.do(t, http.MethodPost, "/api/v1/itineraries", `{"city":"sf","constraints":{"vibe":"chill"}}`, &got)

	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(got.Options) != 1 || strings.Join(got.Options[0].PlaceIDs, ",") != "p_1,p_3,p_4" {
		t.Errorf("got %+v, want fallback option", got)
	}
}

func TestCreateItinerary_BadBody(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{`{`, `{}`, `{"city":"sf","extra":1}`} {
		if status := api.do(t, http.MethodPost, "/api/v1/itineraries", body, nil); status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, status)
		}
	}
}

func TestPlanningFlow(t *testing.T) {
	api := newTestAPI(t)

	var s model.PlanningSession
	if status := api.do(t, http.MethodPost, "/api/v1/planning/sessions", `{"profile_id":"prof-7","city":"sf"}`, &s); status != http.StatusCreated {
		t.Fatalf("open: %d", status)
	}
	if s.State != model.StateForm {
		t.Fatalf("state = %v", s.State)
	}
	base := "/api/v1/planning/sessions/" + s.ID

	if status := api.do(t, http.MethodPost, base+"/generate", `{"budget":"low"}`, &s); status != http.StatusOK {
		t.Fatalf("generate: %d", status)
	}
	if s.State != model.StateResults || len(s.Options) != 1 {
		t.Fatalf("after generate: %+v", s)
	}

	var e ErrorResponse
	if status := api.do(t, http.MethodPost, base+"/generate", `{}`, &e); status != http.StatusConflict {
		t.Errorf("second generate: %d %+v", status, e)
	}

	if status := api.do(t, http.MethodPut, base+"/options/0", `{"included":false}`, &s); status != http.StatusOK {
		t.Fatalf("cross out: %d", status)
	}
	if status := api.do(t, http.MethodPost, base+"/accept", `{}`, &e); status != http.StatusUnprocessableEntity {
		t.Errorf("accept with nothing included: %d", status)
	}
	if status := api.do(t, http.MethodPut, base+"/options/0", `{"included":true}`, &s); status != http.StatusOK {
		t.Fatalf("restore: %d", status)
	}
	if status := api.do(t, http.MethodPut, base+"/options/x", `{"included":true}`, nil); status != http.StatusBadRequest {
		t.Errorf("non-numeric index: %d", status)
	}

	var accepted AcceptResponse
	if status := api.do(t, http.MethodPost, base+"/accept", `{"pending_event_id":"evt_3"}`, &accepted); status != http.StatusOK {
		t.Fatalf("accept: %d", status)
	}
	if accepted.Session.State != model.StateViewing || accepted.Plan.EventIDs[0] != "evt_3" {
		t.Errorf("accept response = %+v / %+v", accepted.Session, accepted.Plan)
	}

	var plan model.Plan
	if status := api.do(t, http.MethodGet, "/api/v1/profiles/prof-7/plan", "", &plan); status != http.StatusOK {
		t.Fatalf("get plan: %d", status)
	}
	if strings.Join(plan.PlaceIDs, ",") != "p_1,p_3,p_4" {
		t.Errorf("plan = %+v", plan)
	}

	var route model.PlanRoute
	if status := api.do(t, http.MethodGet, "/api/v1/profiles/prof-7/plan/route?origin=37.7812,-122.4112", "", &route); status != http.StatusOK {
		t.Fatalf("route: %d", status)
	}
	if len(route.Legs) != 3 || !route.Estimated {
		t.Errorf("route = %+v", route)
	}

	if status := api.do(t, http.MethodDelete, base, "", nil); status != http.StatusNoContent {
		t.Errorf("close: %d", status)
	}
	if status := api.do(t, http.MethodGet, base, "", &e); status != http.StatusNotFound {
		t.Errorf("get closed: %d", status)
	}

	if status := api.do(t, http.MethodPost, "/api/v1/planning/sessions", `{"profile_id":"prof-7","city":"sf"}`, &s); status != http.StatusCreated || s.State != model.StateViewing {
		t.Errorf("reopen: %d %v", status, s.State)
	}

	if status := api.do(t, http.MethodDelete, "/api/v1/profiles/prof-7/plan", "", nil); status != http.StatusNoContent {
		t.Errorf("end plan: %d", status)
	}
	if status := api.do(t, http.MethodGet, "/api/v1/profiles/prof-7/plan", "", &e); status != http.StatusNotFound || e.Error != "no_plan" {
		t.Errorf("get ended plan: %d %+v", status, e)
	}
}

func TestPlanningTryAgain(t *testing.T) {
	api := newTestAPI(t)

	var s model.PlanningSession
	api.do(t, http.MethodPost, "/api/v1/planning/sessions", `{"profile_id":"p","city":"sf"}`, &s)
	base := "/api/v1/planning/sessions/" + s.ID

	var e ErrorResponse
	if status := api.do(t, http.MethodPost, base+"/retry", "", &e); status != http.StatusConflict {
		t.Errorf("retry from form: %d", status)
	}
	api.do(t, http.MethodPost, base+"/generate", `{"vibe":"party"}`, &s)
	if status := api.do(t, http.MethodPost, base+"/retry", "", &s); status != http.StatusOK {
		t.Fatalf("retry: %d", status)
	}
	if s.State != model.StateForm || s.Constraints.Vibe != model.VibeParty || len(s.Options) != 0 {
		t.Errorf("after retry: %+v", s)
	}
}

func TestOpenSession_Validation(t *testing.T) {
	api := newTestAPI(t)

	var e ErrorResponse
	if status := api.do(t, http.MethodPost, "/api/v1/planning/sessions", `{"city":"sf"}`, &e); status != http.StatusBadRequest {
		t.Errorf("missing profile: %d", status)
	}
	if status := api.do(t, http.MethodPost, "/api/v1/planning/sessions", `{"profile_id":"p","city":"mars"}`, &e); status != http.StatusNotFound {
		t.Errorf("unknown city: %d", status)
	}
}

func TestHealth(t *testing.T) {
	h := HealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Services["postgres"] != "healthy" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOpenAPIAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	var spec map[string]interface{}
	if status := api.do(t, http.MethodGet, "/openapi.json", "", &spec); status != http.StatusOK {
		t.Fatalf("openapi: %d", status)
	}
	paths, _ := spec["paths"].(map[string]interface{})
	for _, p := range []string{"/api/v1/directions", "/api/v1/planning/sessions/{id}/accept", "/api/v1/profiles/{id}/plan/route"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("openapi missing %s", p)
		}
	}

	resp, err := http.Get(api.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics: %d", resp.StatusCode)
	}
}

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Coordinate
		wantErr bool
	}{
		{"37.78,-122.41", model.Coordinate{Lat: 37.78, Lng: -122.41}, false},
		{" 0 , 0 ", model.Coordinate{}, false},
		{"-90,180", model.Coordinate{Lat: -90, Lng: 180}, false},
		{"", model.Coordinate{}, true},
		{"37.78", model.Coordinate{}, true},
		{"x,1", model.Coordinate{}, true},
		{"1,y", model.Coordinate{}, true},
		{"90.1,0", model.Coordinate{}, true},
		{"0,-180.5", model.Coordinate{}, true},
	}
	for _, tt := range tests {
		got, err := parseLatLng(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLatLng(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLatLng(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

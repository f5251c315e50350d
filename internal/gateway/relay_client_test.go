package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/kr/pretty"
	"gopkg.in/dnaeon/go-vcr.v4/pkg/recorder"
)

func newFakeRelay(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/directions" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("origin") != "37.7812,-122.4112" {
			http.Error(w, "bad origin", http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRelayClient_Directions(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    ModeMeasures
		wantErr bool
	}{
		{
			name:   "both modes",
			status: http.StatusOK,
			body:   fmt.Sprintf(`{"driving":%s,"transit":%s}`, okEnvelope(900, 180), okEnvelope(1100, 600)),
			want: ModeMeasures{
				Driving: &Measure{DistanceMeters: 900, DurationSeconds: 180},
				Transit: &Measure{DistanceMeters: 1100, DurationSeconds: 600},
			},
		},
		{
			name:   "transit unresolved",
			status: http.StatusOK,
			body:   fmt.Sprintf(`{"driving":%s,"transit":null}`, okEnvelope(900, 180)),
			want:   ModeMeasures{Driving: &Measure{DistanceMeters: 900, DurationSeconds: 180}},
		},
		{
			name:   "driving zero results",
			status: http.StatusOK,
			body:   fmt.Sprintf(`{"driving":{"status":"ZERO_RESULTS","routes":[]},"transit":%s}`, okEnvelope(1100, 600)),
			want:   ModeMeasures{Transit: &Measure{DistanceMeters: 1100, DurationSeconds: 600}},
		},
		{name: "bad gateway", status: http.StatusBadGateway, body: `{}`, wantErr: true},
		{name: "malformed", status: http.StatusOK, body: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeRelay(t, tt.status, tt.body)
			c := NewRelayClient(srv.URL+"/", srv.Client())

			got, err := c.Directions(context.Background(), origin, destination)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %# v", pretty.Formatter(got))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := pretty.Diff(tt.want, got); len(diff) > 0 {
				t.Errorf("Directions mismatch:\n%s", diff)
			}
		})
	}
}

// TestRelayClient_DirectionsReplay records one relay exchange and replays it
// after the relay is gone.
func TestRelayClient_DirectionsReplay(t *testing.T) {
	cassette := filepath.Join(t.TempDir(), "relay_directions")
	srv := newFakeRelay(t, http.StatusOK, fmt.Sprintf(`{"driving":%s,"transit":null}`, okEnvelope(700, 150)))

	rec, err := recorder.New(cassette, recorder.WithMode(recorder.ModeRecordOnly))
	if err != nil {
		t.Fatalf("Failed to create recorder: %v", err)
	}
	live := NewRelayClient(srv.URL, &http.Client{Transport: rec, Timeout: 5 * time.Second})
	recorded, err := live.Directions(context.Background(), origin, destination)
	if err != nil {
		t.Fatalf("recording Directions: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("Failed to save cassette: %v", err)
	}
	srv.Close()

	replay, err := recorder.New(cassette, recorder.WithMode(recorder.ModeReplayOnly))
	if err != nil {
		t.Fatalf("Failed to open cassette: %v", err)
	}
	defer replay.Stop()

	offline := NewRelayClient(srv.URL, &http.Client{Transport: replay, Timeout: 5 * time.Second})
	replayed, err := offline.Directions(context.Background(), origin, destination)
	if err != nil {
		t.Fatalf("replaying Directions: %v", err)
	}
	if diff := pretty.Diff(recorded, replayed); len(diff) > 0 {
		t.Errorf("replay mismatch:\n%s", diff)
	}
}

func TestRelayClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate" {
			http.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			http.Error(w, "content type "+ct, http.StatusUnsupportedMediaType)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body) // echo
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, srv.Client())
	got, err := c.Generate(context.Background(), []byte(`{"options":[]}`))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(got) != `{"options":[]}` {
		t.Errorf("Generate body = %s", got)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/engine"
	"github.com/talgya/kingdom-sim/internal/persistence"
	"github.com/talgya/kingdom-sim/internal/scenario"
)

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sim, err := engine.NewSimulation(scenario.Default(), 5)
	if err != nil {
		t.Fatal(err)
	}
	s := &Server{Sim: sim, AdminKey: testKey, Hub: NewHub(sim)}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, ts *httptest.Server, path, key string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(http.MethodPost, ts.URL+path, &buf)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string, v any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestPublicEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	var status map[string]any
	if code := getJSON(t, ts, "/api/v1/status", &status); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if status["name"] != "Essex County" || status["settlements"].(float64) != 5 {
		t.Fatalf("status = %v", status)
	}

	var setts []map[string]any
	getJSON(t, ts, "/api/v1/settlements", &setts)
	if len(setts) != 5 || setts[0]["name"] != "Leamington" {
		t.Fatalf("settlements = %v", setts)
	}

	var view engine.SettlementView
	if code := getJSON(t, ts, "/api/v1/settlement/Windsor", &view); code != http.StatusOK || view.Population != 400 {
		t.Fatalf("detail code %d view %+v", code, view)
	}
	if code := getJSON(t, ts, "/api/v1/settlement/Atlantis", nil); code != http.StatusNotFound {
		t.Fatalf("unknown settlement code %d", code)
	}

	var snap engine.Snapshot
	getJSON(t, ts, "/api/v1/snapshot", &snap)
	if snap.Tick != 0 || len(snap.Achievements) != 5 {
		t.Fatalf("snapshot tick %d achievements %d", snap.Tick, len(snap.Achievements))
	}
	var catalog []economy.BuildingDef
	getJSON(t, ts, "/api/v1/buildings", &catalog)
	if len(catalog) != 8 || catalog[0].Kind != "granary" {
		t.Fatalf("buildings = %+v", catalog)
	}
	if code := getJSON(t, ts, "/api/v1/stats/history", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("history without ledger code %d", code)
	}
}

func TestAdminAuth(t *testing.T) {
	s, ts := newTestServer(t)

	if resp := post(t, ts, "/api/v1/tick", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: %d", resp.StatusCode)
	}
	if resp := post(t, ts, "/api/v1/tick", "wrong", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", resp.StatusCode)
	}
	if s.Sim.CurrentTick() != 0 {
		t.Fatalf("unauthorized tick advanced the kingdom")
	}

	s.AdminKey = ""
	if resp := post(t, ts, "/api/v1/tick", testKey, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("disabled admin: %d", resp.StatusCode)
	}

	if code := getJSON(t, ts, "/api/v1/tick", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on admin route: %d", code)
	}
}

func TestTickPauseReset(t *testing.T) {
	s, ts := newTestServer(t)

	resp := post(t, ts, "/api/v1/tick", testKey, map[string]int{"count": 7})
	if resp.StatusCode != http.StatusOK || s.Sim.CurrentTick() != 7 {
		t.Fatalf("tick: code %d tick %d", resp.StatusCode, s.Sim.CurrentTick())
	}
	if resp := post(t, ts, "/api/v1/tick", testKey, map[string]int{"count": 5000}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversized tick count: %d", resp.StatusCode)
	}

	post(t, ts, "/api/v1/pause", testKey, map[string]bool{"paused": true})
	if !s.Sim.IsPaused() {
		t.Fatalf("pause not applied")
	}

	digest := func() string {
		sim, _ := engine.NewSimulation(scenario.Default(), 5)
		return sim.Digest()
	}()
	var out map[string]any
	resp = post(t, ts, "/api/v1/reset", testKey, nil)
	json.NewDecoder(resp.Body).Decode(&out)
	if s.Sim.CurrentTick() != 0 || out["digest"] != digest {
		t.Fatalf("reset did not restore the initial kingdom")
	}
	if !s.Sim.IsPaused() {
		t.Fatalf("reset cleared the paused flag")
	}

	if resp := post(t, ts, "/api/v1/speed", testKey, map[string]float64{"speed": 2}); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("speed without pacer: %d", resp.StatusCode)
	}
}

func TestBuildEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	tests := []struct {
		name     string
		req      BuildRequest
		wantCode int
	}{
		{"unknown settlement", BuildRequest{"Atlantis", "granary"}, http.StatusNotFound},
		{"unknown building", BuildRequest{"Leamington", "castle"}, http.StatusNotFound},
		{"unaffordable", BuildRequest{"Lasalle", "camp"}, http.StatusConflict},
		{"success", BuildRequest{"Leamington", "granary"}, http.StatusOK},
		{"duplicate", BuildRequest{"Leamington", "granary"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Sim.Digest()
			resp := post(t, ts, "/api/v1/build", testKey, tt.req)
			var out BuildResponse
			json.NewDecoder(resp.Body).Decode(&out)
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", resp.StatusCode, tt.wantCode, out.Reason)
			}
			if out.Success != (tt.wantCode == http.StatusOK) {
				t.Fatalf("success = %v", out.Success)
			}
			if !out.Success && s.Sim.Digest() != before {
				t.Fatalf("failed build mutated the kingdom")
			}
		})
	}

	view, _ := s.Sim.Settlement("Leamington")
	if view.Resources.Get(economy.Wood) != 30 || view.Resources.Get(economy.Stone) != 15 {
		t.Fatalf("granary cost not debited: %+v", view.Resources)
	}
}

func TestBuildRateLimited(t *testing.T) {
	sim, err := engine.NewSimulation(scenario.Default(), 5)
	if err != nil {
		t.Fatal(err)
	}
	s := &Server{Sim: sim, AdminKey: testKey, BuildLimiter: NewRateLimiter(2, time.Hour)}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		post(t, ts, "/api/v1/build", testKey, BuildRequest{"Atlantis", "granary"})
	}
	resp := post(t, ts, "/api/v1/build", testKey, BuildRequest{"Atlantis", "granary"})
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") == "" {
		t.Fatalf("third build: %d", resp.StatusCode)
	}
}

func TestEventsLimitAndHistory(t *testing.T) {
	s, ts := newTestServer(t)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	db.BeginRun(5, "test")
	persistence.NewRecorder(db, s.Sim, 1)
	s.DB = db

	for i := 0; i < 30; i++ {
		s.Sim.AdvanceTick()
	}
	want := min(3, len(s.Sim.RecentEvents(0)))
	if want == 0 {
		t.Fatalf("no events after a season change")
	}
	var evs []engine.Event
	getJSON(t, ts, "/api/v1/events?limit=3", &evs)
	if len(evs) != want {
		t.Fatalf("events = %d, want %d", len(evs), want)
	}
	var seasons []engine.Event
	getJSON(t, ts, "/api/v1/events?limit=1000&category=season", &seasons)
	for _, e := range seasons {
		if e.Category != engine.CategorySeason {
			t.Fatalf("category filter leaked %+v", e)
		}
	}

	var rows []persistence.StatsRow
	getJSON(t, ts, "/api/v1/stats/history?limit=10", &rows)
	if len(rows) != 10 || rows[9].Tick != 30 {
		t.Fatalf("history = %d rows", len(rows))
	}
}

func TestEventsCategoryFilterBeforeLimit(t *testing.T) {
	s, ts := newTestServer(t)
	for i := 0; i < 5; i++ {
		s.Sim.EmitEvent(engine.Event{Description: fmt.Sprintf("build %d", i), Category: engine.CategoryBuild})
	}
	for i := 0; i < 60; i++ {
		s.Sim.EmitEvent(engine.Event{Description: "storm", Category: engine.CategoryEvent})
	}

	var builds []engine.Event
	getJSON(t, ts, "/api/v1/events?limit=3&category=build", &builds)
	if len(builds) != 3 {
		t.Fatalf("got %d build events, want 3", len(builds))
	}
	for i, want := range []string{"build 2", "build 3", "build 4"} {
		if builds[i].Description != want {
			t.Fatalf("builds = %+v, want the newest three", builds)
		}
	}
}

func TestStreamSendsSnapshotPerTick(t *testing.T) {
	s, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first engine.Snapshot
	if err := conn.ReadJSON(&first); err != nil || first.Tick != 0 {
		t.Fatalf("initial frame tick %d err %v", first.Tick, err)
	}

	s.Sim.AdvanceTick()
	var next engine.Snapshot
	if err := conn.ReadJSON(&next); err != nil || next.Tick != 1 {
		t.Fatalf("tick frame tick %d err %v", next.Tick, err)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") || rl.Allow("a") {
		t.Fatalf("window of 2 not enforced")
	}
	if !rl.Allow("b") {
		t.Fatalf("clients share a bucket")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("retry after = %d", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("window did not reset")
	}
}

package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/handler"
	"github.com/actuallystonmai/venue-recommender/internal/orchestrator"
	"github.com/actuallystonmai/venue-recommender/internal/session"
	"github.com/actuallystonmai/venue-recommender/internal/store"
	"github.com/goccy/go-json"
)

type directory []domain.Candidate

func (d directory) ListCandidates(context.Context, int) ([]domain.Candidate, error) {
	return d, nil
}

func (d directory) GetCandidate(_ context.Context, id string) (domain.Candidate, error) {
	for _, c := range d {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Candidate{}, domain.ErrCandidateNotFound
}

type stubSearch struct{}

func (stubSearch) Search(_ context.Context, query string, _ int) ([]domain.SearchHit, error) {
	return []domain.SearchHit{{ID: "v-a", Type: domain.HitRestaurant, Name: "Rosa's", Route: "/venues/v-a", Cuisine: "Thai"}}, nil
}

func venues() directory {
	return directory{
		{ID: "v-a", Name: "Rosa's", Cuisine: "Thai", PriceLevel: "££",
			Description: "Romantic candlelit Thai kitchen",
			Ambience:    []string{"cosy"},
			Coordinates: &domain.Coordinates{Latitude: 52.4889, Longitude: -1.8904}},
		{ID: "v-b", Name: "Pasta Di Piazza", Cuisine: "Italian", PriceLevel: "££",
			Coordinates: &domain.Coordinates{Latitude: 52.4871, Longitude: -1.8904}},
	}
}

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	return newServerWithDelay(t, opts, 10*time.Millisecond)
}

func newServerWithDelay(t *testing.T, opts Options, refreshDelay time.Duration) *httptest.Server {
	t.Helper()
	cfg := session.Config{
		Orchestrator:   orchestrator.DefaultConfig(),
		DebounceWindow: time.Millisecond,
	}
	cfg.Orchestrator.RefreshDelay = refreshDelay

	m := session.NewManager(store.NewMemoryBackend(), venues(), stubSearch{}, cfg)
	t.Cleanup(m.Close)
	srv := httptest.NewServer(Setup(handler.NewHandler(m, venues()), opts))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, respBody
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d: %s", resp.StatusCode, body)
	}
	var out handler.SessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	return out.SessionID
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e handler.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode error body %s: %v", body, err)
	}
	return e.Error
}

func TestRecommendationsFlow(t *testing.T) {
	srv := newServer(t, Options{})
	id := createSession(t, srv)
	base := "/sessions/" + id

	resp, body := do(t, srv, http.MethodPut, base+"/location", `{"latitude": 95, "longitude": 0}`)
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, body) != "validation_error" {
		t.Errorf("invalid location: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPut, base+"/location", `{"latitude": 52.4862, "longitude": -1.8904}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set location: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPut, base+"/profile", `{"cuisines": ["Thai"], "price_preference": "mid"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update profile: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, base+"/recommendations", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recommendations: %d %s", resp.StatusCode, body)
	}
	var recs handler.RecommendationResponse
	if err := json.Unmarshal(body, &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs.Recommendations) != 2 || recs.Recommendations[0].CandidateID != "v-a" {
		t.Fatalf("recommendations = %+v", recs.Recommendations)
	}
	if recs.TopPick == nil || recs.TopPick.CandidateID != "v-a" {
		t.Errorf("top pick = %+v", recs.TopPick)
	}
	if recs.Metadata.Region != "City Centre" || recs.Metadata.TotalCount != 2 {
		t.Errorf("metadata = %+v", recs.Metadata)
	}

	resp, _ = do(t, srv, http.MethodGet, base+"/recommendations?limit=0", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d", resp.StatusCode)
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newServer(t, Options{})
	resp, body := do(t, srv, http.MethodGet, "/sessions/nope/recommendations", "")
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "session_not_found" {
		t.Errorf("got %d %s", resp.StatusCode, body)
	}
}

func TestInteractions(t *testing.T) {
	srv := newServer(t, Options{})
	base := "/sessions/" + createSession(t, srv)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown kind", "/interactions", `{"candidate_id": "v-a", "kind": "wishlist"}`, http.StatusBadRequest, "unknown_interaction"},
		{"unknown field", "/interactions", `{"candidate_id": "v-a", "kind": "view", "extra": 1}`, http.StatusBadRequest, "invalid_json"},
		{"missing candidate", "/interactions", `{"kind": "view"}`, http.StatusBadRequest, "validation_error"},
		{"unknown venue", "/interactions", `{"candidate_id": "zzz", "kind": "view"}`, http.StatusNotFound, "venue_not_found"},
		{"save", "/interactions", `{"candidate_id": "v-a", "kind": "save"}`, http.StatusNoContent, ""},
		{"visit", "/visits", `{"candidate_id": "v-b"}`, http.StatusNoContent, ""},
		{"dish view", "/dish-views", `{"id": "d1", "name": "Spicy suya", "category": "grill"}`, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, base+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantCode != "" && errorCode(t, body) != tt.wantCode {
				t.Errorf("code = %s, want %s", errorCode(t, body), tt.wantCode)
			}
		})
	}

	_, body := do(t, srv, http.MethodGet, base+"/profile", "")
	var p handler.ProfileResponse
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if p.Profile == nil || len(p.Profile.Cuisines) != 1 || p.Profile.Cuisines[0] != "Thai" {
		t.Errorf("profile after save = %+v", p.Profile)
	}

	_, body = do(t, srv, http.MethodGet, base+"/behavior", "")
	var b domain.BehaviorLog
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatal(err)
	}
	if len(b.VisitedRestaurants) != 1 || len(b.ViewedDishes) != 1 {
		t.Errorf("behavior = %+v", b)
	}
}

func TestSavedToggle(t *testing.T) {
	srv := newServer(t, Options{})
	base := "/sessions/" + createSession(t, srv)

	if resp, _ := do(t, srv, http.MethodPut, base+"/saved/v-b", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("save status = %d", resp.StatusCode)
	}
	_, body := do(t, srv, http.MethodGet, base+"/profile", "")
	var p handler.ProfileResponse
	json.Unmarshal(body, &p)
	if p.Profile == nil || len(p.Profile.SavedIDs) != 1 {
		t.Fatalf("saved ids = %+v", p.Profile)
	}

	do(t, srv, http.MethodDelete, base+"/saved/v-b", "")
	_, body = do(t, srv, http.MethodGet, base+"/profile", "")
	json.Unmarshal(body, &p)
	if len(p.Profile.SavedIDs) != 0 {
		t.Errorf("saved ids after delete = %v", p.Profile.SavedIDs)
	}

	if resp, _ := do(t, srv, http.MethodPut, base+"/saved/zzz", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown venue status = %d", resp.StatusCode)
	}
}

func TestProfileValidationAndReset(t *testing.T) {
	srv := newServer(t, Options{})
	base := "/sessions/" + createSession(t, srv)

	resp, body := do(t, srv, http.MethodPut, base+"/profile", `{"spice_level": "volcanic"}`)
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, body) != "invalid_parameter" {
		t.Errorf("bad spice: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPut, base+"/profile", `{"spice_level": "hot", "cuisines": ["Thai"], "proteins": ["tofu"]}`)
	var p handler.ProfileResponse
	json.Unmarshal(body, &p)
	if resp.StatusCode != http.StatusOK || !p.Complete || p.Profile.SpiceLevel != domain.SpiceHot {
		t.Errorf("update: %d %+v", resp.StatusCode, p)
	}

	if resp, _ := do(t, srv, http.MethodDelete, base+"/profile", ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("reset status = %d", resp.StatusCode)
	}
	_, body = do(t, srv, http.MethodGet, base+"/profile", "")
	p = handler.ProfileResponse{}
	json.Unmarshal(body, &p)
	if p.Profile != nil || p.Complete {
		t.Errorf("after reset = %+v", p)
	}
}

func TestPreferences(t *testing.T) {
	srv := newServer(t, Options{})
	base := "/sessions/" + createSession(t, srv)

	resp, body := do(t, srv, http.MethodPut, base+"/preferences", `{"preferred_region": "Atlantis"}`)
	if resp.StatusCode != http.StatusBadRequest || errorCode(t, body) != "unknown_region" {
		t.Errorf("unknown region: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPut, base+"/preferences",
		`{"manual_location": {"latitude": 52.4751, "longitude": -1.8839}, "preferred_region": "digbeth", "only_preferred_region": true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set preferences: %d %s", resp.StatusCode, body)
	}
	var prefs handler.PreferencesResponse
	json.Unmarshal(body, &prefs)
	if prefs.Region != "Digbeth" || prefs.PreferredRegion != "Digbeth" || !prefs.OnlyPreferredRegion {
		t.Errorf("preferences = %+v", prefs)
	}

	_, body = do(t, srv, http.MethodGet, base+"/recommendations", "")
	var recs handler.RecommendationResponse
	json.Unmarshal(body, &recs)
	if len(recs.Recommendations) != 0 || recs.TopPick != nil {
		t.Errorf("no venue is in Digbeth, got %+v", recs.Recommendations)
	}
}

func TestRefreshRunsInBackground(t *testing.T) {
	srv := newServer(t, Options{})
	base := "/sessions/" + createSession(t, srv)

	resp, body := do(t, srv, http.MethodPost, base+"/refresh", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("refresh status = %d: %s", resp.StatusCode, body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, body := do(t, srv, http.MethodGet, base+"/recommendations", "")
		var recs handler.RecommendationResponse
		json.Unmarshal(body, &recs)
		if !recs.Metadata.Busy {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("still busy after refresh delay")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRefreshBusyBeforeAccepted(t *testing.T) {
	srv := newServerWithDelay(t, Options{}, 500*time.Millisecond)
	base := "/sessions/" + createSession(t, srv)

	if resp, body := do(t, srv, http.MethodPost, base+"/refresh", ""); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("refresh status = %d: %s", resp.StatusCode, body)
	}
	_, body := do(t, srv, http.MethodGet, base+"/recommendations", "")
	var recs handler.RecommendationResponse
	if err := json.Unmarshal(body, &recs); err != nil {
		t.Fatal(err)
	}
	if !recs.Metadata.Busy {
		t.Error("recommendations polled right after 202 should report busy")
	}
}

func TestSearchAndRateLimit(t *testing.T) {
	srv := newServer(t, Options{SearchRatePerMinute: 2})
	base := "/sessions/" + createSession(t, srv)

	resp, body := do(t, srv, http.MethodGet, base+"/search?q=rosa", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: %d %s", resp.StatusCode, body)
	}
	var out handler.SearchResponse
	json.Unmarshal(body, &out)
	if out.Query != "rosa" || len(out.Hits) != 1 || out.Hits[0].ID != "v-a" {
		t.Errorf("search = %+v", out)
	}

	do(t, srv, http.MethodGet, base+"/search?q=ros", "")
	if resp, _ := do(t, srv, http.MethodGet, base+"/search?q=ro", ""); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("third search status = %d, want 429", resp.StatusCode)
	}
}

func TestVenueTags(t *testing.T) {
	srv := newServer(t, Options{})

	resp, body := do(t, srv, http.MethodGet, "/venues/v-a/tags", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tags: %d %s", resp.StatusCode, body)
	}
	var out handler.TagsResponse
	json.Unmarshal(body, &out)
	if out.Hero == nil || out.Hero.Label != "Date night" {
		t.Errorf("hero = %+v, tags = %+v", out.Hero, out.Tags)
	}

	resp, _ = do(t, srv, http.MethodGet, "/venues/zzz/tags", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing venue status = %d", resp.StatusCode)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newServer(t, Options{})
	base := "/sessions/" + createSession(t, srv)

	if resp, _ := do(t, srv, http.MethodDelete, base, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, srv, http.MethodGet, base+"/profile", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("after delete status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ok := newServer(t, Options{HealthChecks: []HealthCheck{
		{Name: "records", Check: func(context.Context) error { return nil }},
	}})
	if resp, _ := do(t, ok, http.MethodGet, "/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("healthy status = %d", resp.StatusCode)
	}

	bad := newServer(t, Options{HealthChecks: []HealthCheck{
		{Name: "search", Check: func(context.Context) error { return errors.New("breaker open") }},
	}})
	resp, body := do(t, bad, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(string(body), "breaker open") {
		t.Errorf("degraded: %d %s", resp.StatusCode, body)
	}

	if resp, _ := do(t, ok, http.MethodGet, "/metrics", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/greenpoint-eco/greenpoint/internal/app/chat"
	"github.com/greenpoint-eco/greenpoint/internal/app/energy"
	"github.com/greenpoint-eco/greenpoint/internal/app/engagement"
	"github.com/greenpoint-eco/greenpoint/internal/app/events"
	"github.com/greenpoint-eco/greenpoint/internal/app/leaderboard"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/store"
)

// ─── Test Harness ───────────────────────────────────────────────────────────

type testServer struct {
	srv   *Server
	h     http.Handler
	store *store.Store
	board *leaderboard.Service
	bus   *events.Bus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	bus := events.NewBus(nil)
	board := leaderboard.New(st, bus, nil)
	if _, err := board.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	est := energy.New(energy.Config{Seed: 7}, nil, nil)
	eng := engagement.New(st, board, bus, nil)
	svc := chat.New(st, est, eng, board, nil)

	srv := NewServer(board, svc, eng, bus, nil)
	srv.EnableMetrics("/metrics")
	return &testServer{srv: srv, h: srv.Handler(), store: st, board: board, bus: bus}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func (ts *testServer) createUser(t *testing.T, name, team string) domain.User {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/users", map[string]string{"name": name, "teamId": team})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: %d %s", w.Code, w.Body.String())
	}
	var u domain.User
	decode(t, w, &u)
	return u
}

// ─── Health & Metrics ───────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q", resp["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected default collectors in metrics output")
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.SetCORSOrigins([]string{"http://localhost:4173"})
	h := ts.srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("Origin", "http://localhost:4173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q for foreign origin", got)
	}
}

// ─── Teams ──────────────────────────────────────────────────────────────────

func TestTeams_SortedByScore(t *testing.T) {
	ts := newTestServer(t)
	ts.board.AdjustScore(context.Background(), "team-3", 40)
	ts.board.AdjustScore(context.Background(), "team-2", 10)

	w := ts.do(t, http.MethodGet, "/teams", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var teams []domain.Team
	decode(t, w, &teams)
	if len(teams) != 5 {
		t.Fatalf("expected 5 teams, got %d", len(teams))
	}
	if teams[0].ID != "team-3" || teams[1].ID != "team-2" {
		t.Errorf("order = %s, %s", teams[0].ID, teams[1].ID)
	}
}

func TestTeams_NotInitialized(t *testing.T) {
	st := store.NewMemory()
	bus := events.NewBus(nil)
	board := leaderboard.New(st, bus, nil)
	eng := engagement.New(st, board, bus, nil)
	svc := chat.New(st, energy.New(energy.DefaultConfig(), nil, nil), eng, board, nil)
	h := NewServer(board, svc, eng, bus, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]interface{}
	decode(t, w, &resp)
	if resp["success"] != false || resp["error"] != "Teams not initialized" {
		t.Errorf("resp = %v", resp)
	}
}

func TestMemberJoin(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"ok", map[string]string{"id": "team-2"}, http.StatusOK},
		{"missing id", map[string]string{}, http.StatusBadRequest},
		{"bad json", "{", http.StatusBadRequest},
		{"unknown team", map[string]string{"id": "team-99"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			w := ts.do(t, http.MethodPost, "/member/join", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp map[string]interface{}
			decode(t, w, &resp)
			if tt.wantStatus == http.StatusOK {
				team := resp["team"].(map[string]interface{})
				if team["memberCount"] != float64(1) {
					t.Errorf("memberCount = %v", team["memberCount"])
				}
			} else if resp["success"] != false {
				t.Errorf("expected success=false, got %v", resp)
			}
		})
	}
}

func TestTeamScore(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/team/score", map[string]interface{}{"id": "team-1", "score": 25})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp teamResponse
	decode(t, w, &resp)
	if !resp.Success || resp.Team.Score != 25 {
		t.Errorf("resp = %+v", resp)
	}

	// Deltas accumulate and floor at zero.
	w = ts.do(t, http.MethodPost, "/team/score", map[string]interface{}{"id": "team-1", "score": -100})
	decode(t, w, &resp)
	if resp.Team.Score != 0 {
		t.Errorf("score = %d, want 0", resp.Team.Score)
	}

	w = ts.do(t, http.MethodPost, "/team/score", map[string]interface{}{"id": "team-1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing score: status = %d", w.Code)
	}
	w = ts.do(t, http.MethodPost, "/team/score", map[string]interface{}{"id": "nope", "score": 5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown team: status = %d", w.Code)
	}
}

func TestPromptEvaluate(t *testing.T) {
	ts := newTestServer(t)
	ts.board.AdjustScore(context.Background(), "team-1", 50)

	w := ts.do(t, http.MethodPost, "/prompt/evaluate", map[string]string{
		"prompt": "Explain how binary search works on a sorted array of integers with a short example",
		"userId": "u-1",
		"teamId": "team-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp chat.EvaluateResult
	decode(t, w, &resp)
	if !resp.Success || resp.TeamUpdate.TeamID != "team-1" {
		t.Fatalf("resp = %+v", resp)
	}
	want := 50 + domain.TeamDelta(resp.Evaluation.IsEcoResponsible)
	if resp.TeamUpdate.NewScore != want {
		t.Errorf("newScore = %d, want %d", resp.TeamUpdate.NewScore, want)
	}
}

func TestPromptEvaluate_Errors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/prompt/evaluate", map[string]string{"prompt": "hello there"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing teamId: status = %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/prompt/evaluate", map[string]string{"prompt": "hello there", "teamId": "ghost"})
	if w.Code != http.StatusOK {
		t.Fatalf("unknown team should still evaluate, got %d", w.Code)
	}
	var resp chat.EvaluateResult
	decode(t, w, &resp)
	if resp.TeamUpdateError == "" || resp.TeamUpdate.NewScore != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

// ─── Validation ─────────────────────────────────────────────────────────────

func TestPromptValidate(t *testing.T) {
	tests := []struct {
		prompt     string
		wantStatus domain.ValidationStatus
		wantWords  int
		wantPolite bool
	}{
		{"hi", domain.ValidationError, 1, false},
		{"please list three sorting algorithms and compare them", domain.ValidationWarning, 8, true},
		{"", domain.ValidationIdle, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			ts := newTestServer(t)
			w := ts.do(t, http.MethodPost, "/api/prompt/validate", map[string]string{"prompt": tt.prompt})
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp validateResponse
			decode(t, w, &resp)
			if resp.Status != tt.wantStatus || resp.WordCount != tt.wantWords || resp.ContainsPoliteness != tt.wantPolite {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

// ─── Users & Chat ───────────────────────────────────────────────────────────

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-2")

	if u.ID == "" || u.Level != 1 || u.XP != 50 {
		t.Errorf("user = %+v", u)
	}
	if len(u.Achievements) == 0 {
		t.Error("expected achievement records")
	}

	w := ts.do(t, http.MethodGet, "/api/users/"+u.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get user: %d", w.Code)
	}

	team, _ := ts.board.Get(context.Background(), "team-2")
	if team.MemberCount != 1 {
		t.Errorf("memberCount = %d", team.MemberCount)
	}
}

func TestCreateUser_Errors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/users", map[string]string{"name": "Ada"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing team: status = %d", w.Code)
	}
	w = ts.do(t, http.MethodPost, "/api/users", map[string]string{"name": "Ada", "teamId": "team-42"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown team: status = %d", w.Code)
	}
	var resp map[string]map[string]string
	decode(t, w, &resp)
	if resp["error"]["type"] != "invalid_request" {
		t.Errorf("error = %v", resp)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/users/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp map[string]map[string]string
	decode(t, w, &resp)
	if resp["error"]["type"] != "not_found" {
		t.Errorf("error = %v", resp)
	}
}

func TestChat_BlockedPrompt(t *testing.T) {
	ts := newTestServer(t)
	ts.board.AdjustScore(context.Background(), "team-1", 100)
	u := ts.createUser(t, "Ada", "team-1")

	w := ts.do(t, http.MethodPost, "/api/users/"+u.ID+"/chat", map[string]string{"prompt": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res chat.SubmitResult
	decode(t, w, &res)
	if !res.Blocked || res.Metrics.Efficiency != domain.EfficiencyLow {
		t.Errorf("result = %+v", res)
	}
	if res.Engagement.XPAwarded != engagement.XPFor(domain.EfficiencyLow) {
		t.Errorf("xp awarded = %d", res.Engagement.XPAwarded)
	}

	team, _ := ts.board.Get(context.Background(), "team-1")
	if team.Score != 90 {
		t.Errorf("team score = %d, want 90", team.Score)
	}

	w = ts.do(t, http.MethodGet, "/api/users/"+u.ID+"/messages", nil)
	var msgs []domain.ChatMessage
	decode(t, w, &msgs)
	if len(msgs) != 2 || msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestChat_Errors(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-1")

	w := ts.do(t, http.MethodPost, "/api/users/"+u.ID+"/chat", map[string]string{"prompt": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty prompt: status = %d", w.Code)
	}
	w = ts.do(t, http.MethodPost, "/api/users/ghost/chat", map[string]string{"prompt": "hello"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d", w.Code)
	}
	w = ts.do(t, http.MethodPost, "/api/users/"+u.ID+"/chat", "not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d", w.Code)
	}
}

func TestClearMessages(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-1")
	ts.do(t, http.MethodPost, "/api/users/"+u.ID+"/chat", map[string]string{"prompt": "hi"})

	w := ts.do(t, http.MethodDelete, "/api/users/"+u.ID+"/messages", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/users/"+u.ID+"/messages", nil)
	var msgs []domain.ChatMessage
	decode(t, w, &msgs)
	if len(msgs) != 0 {
		t.Errorf("expected empty history, got %d", len(msgs))
	}
}

func TestAchievements(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-1")

	w := ts.do(t, http.MethodGet, "/api/users/"+u.ID+"/achievements", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Achievements []domain.Achievement `json:"achievements"`
		Unlocked     int                  `json:"unlocked"`
		Total        int                  `json:"total"`
	}
	decode(t, w, &resp)
	if resp.Total != len(engagement.Catalog) || resp.Unlocked != 1 {
		t.Errorf("unlocked=%d total=%d", resp.Unlocked, resp.Total)
	}
}

func TestUpdateAchievement(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-1")
	base := "/api/users/" + u.ID + "/achievements/"

	w := ts.do(t, http.MethodPost, base+engagement.AchEfficiencyExpert, map[string]int{"increment": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var a domain.Achievement
	decode(t, w, &a)
	if a.Progress == nil || *a.Progress != 3 || a.Unlocked() {
		t.Errorf("achievement = %+v", a)
	}

	w = ts.do(t, http.MethodPost, base+engagement.AchPromptMaster, map[string]bool{"forceUnlock": true})
	decode(t, w, &a)
	if !a.Unlocked() || *a.Progress != *a.MaxProgress {
		t.Errorf("forced achievement = %+v", a)
	}

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"unknown achievement", base + "moon-landing", map[string]int{"increment": 1}, http.StatusBadRequest},
		{"unknown user", "/api/users/ghost/achievements/" + engagement.AchWelcome, map[string]bool{"forceUnlock": true}, http.StatusNotFound},
		{"negative increment", base + engagement.AchPromptMaster, map[string]int{"increment": -2}, http.StatusBadRequest},
		{"bad json", base + engagement.AchPromptMaster, "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := ts.do(t, http.MethodPost, tt.path, tt.body); w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAddXP(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-1")
	path := "/api/users/" + u.ID + "/xp"

	w := ts.do(t, http.MethodPost, path, map[string]int{"amount": 60})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		LeveledUp bool        `json:"leveledUp"`
		User      domain.User `json:"user"`
	}
	decode(t, w, &resp)
	if !resp.LeveledUp || resp.User.Level != 2 || resp.User.XP != 10 {
		t.Errorf("resp = %+v", resp)
	}

	for _, amount := range []int{0, -5} {
		if w := ts.do(t, http.MethodPost, path, map[string]int{"amount": amount}); w.Code != http.StatusBadRequest {
			t.Errorf("amount %d: status = %d", amount, w.Code)
		}
	}
	if w := ts.do(t, http.MethodPost, "/api/users/ghost/xp", map[string]int{"amount": 5}); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d", w.Code)
	}
}

func TestAnalytics(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t, "Ada", "team-1")
	if w := ts.do(t, http.MethodPost, "/api/users/"+u.ID+"/chat", map[string]string{"prompt": "hi"}); w.Code != http.StatusOK {
		t.Fatalf("chat: %d", w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/users/"+u.ID+"/analytics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var a engagement.Analytics
	decode(t, w, &a)
	if a.UserID != u.ID || a.TotalPrompts != 1 || a.EfficiencyPercent != 0 {
		t.Errorf("analytics = %+v", a)
	}
	if len(a.Days) != engagement.AnalyticsDays {
		t.Fatalf("days = %d", len(a.Days))
	}
	prompts := 0
	for _, d := range a.Days {
		prompts += d.Prompts
	}
	if prompts != 1 {
		t.Errorf("prompts across days = %d, want 1", prompts)
	}

	if w := ts.do(t, http.MethodGet, "/api/users/ghost/analytics", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d", w.Code)
	}
}

// ─── Live Updates ───────────────────────────────────────────────────────────

func TestEvents_StreamsTeamScore(t *testing.T) {
	ts := newTestServer(t)
	httpSrv := httptest.NewServer(ts.h)
	defer httpSrv.Close()

	subscribers := ts.bus.SubscriberCount()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	// The subscription is live once the connected comment arrives.
	if line, err := reader.ReadString('\n'); err != nil || !strings.HasPrefix(line, ": connected") {
		t.Fatalf("first line = %q, err = %v", line, err)
	}
	if got := ts.bus.SubscriberCount(); got != subscribers+1 {
		t.Errorf("SubscriberCount() = %d, want %d while streaming", got, subscribers+1)
	}

	ts.board.AdjustScore(context.Background(), "team-4", 10)

	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	if event != string(domain.KindTeamScoreChanged) {
		t.Errorf("event = %q", event)
	}
	var ev domain.TeamScoreChanged
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if ev.TeamID != "team-4" || ev.NewScore != 10 || ev.PointChange != 10 {
		t.Errorf("event = %+v", ev)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/choreboard/internal/database"
)

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

func (c *client) mustDo(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	status, data := c.do(method, path, body)
	if status != wantStatus {
		c.t.Fatalf("%s %s: status = %d, want %d: %s", method, path, status, wantStatus, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.t.Fatalf("%s %s: decode %s: %v", method, path, data, err)
		}
	}
}

func setupServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, Options{SessionTTL: time.Hour, Location: time.UTC}, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func register(t *testing.T, base, name string) *client {
	t.Helper()
	c := &client{t: t, base: base}
	var resp struct {
		Token string `json:"token"`
	}
	c.mustDo(http.MethodPost, "/api/auth/register", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "password123",
	}, http.StatusCreated, &resp)
	c.token = resp.Token
	return c
}

func TestHealth(t *testing.T) {
	_, ts := setupServer(t)
	c := &client{t: t, base: ts.URL}
	var body map[string]string
	c.mustDo(http.MethodGet, "/health", nil, http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	_, ts := setupServer(t)
	anon := &client{t: t, base: ts.URL}
	for _, path := range []string{"/api/users/me", "/api/chores", "/api/leaderboard/daily"} {
		if status, _ := anon.do(http.MethodGet, path, nil); status != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, status)
		}
	}

	loner := register(t, ts.URL, "loner")
	if status, _ := loner.do(http.MethodGet, "/api/chores", nil); status != http.StatusConflict {
		t.Errorf("chores without household status = %d, want 409", status)
	}
	loner.mustDo(http.MethodGet, "/api/users/me", nil, http.StatusOK, nil)
}

func TestHouseholdFlow(t *testing.T) {
	srv, ts := setupServer(t)

	admin := register(t, ts.URL, "alice")
	var house struct {
		ID         int64  `json:"id"`
		InviteCode string `json:"invite_code"`
	}
	admin.mustDo(http.MethodPost, "/api/households", map[string]any{"name": "Home", "point_multiplier": 1}, http.StatusCreated, &house)
	admin.mustDo(http.MethodPatch, "/api/households/mine", map[string]any{"point_multiplier": 2}, http.StatusOK, nil)

	member := register(t, ts.URL, "bob")
	member.mustDo(http.MethodPost, "/api/households/join", map[string]string{"invite_code": strings.ToLower(house.InviteCode)}, http.StatusOK, nil)

	var chore struct {
		ID int64 `json:"id"`
	}
	if status, _ := member.do(http.MethodPost, "/api/chores", map[string]any{"name": "Dishes", "points": 5}); status != http.StatusForbidden {
		t.Errorf("member create chore status = %d, want 403", status)
	}
	admin.mustDo(http.MethodPost, "/api/chores", map[string]any{
		"name": "Dishes", "points": 5, "category": "Kitchen & Dining",
	}, http.StatusCreated, &chore)

	// Live feed for the household.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", &ws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + admin.token}},
	})
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.CloseNow()
	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().HouseholdClientCount(house.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var result struct {
		Completion struct {
			ID           int64 `json:"id"`
			PointsEarned int   `json:"points_earned"`
		} `json:"completion"`
		PointsTotal int `json:"points_total"`
		Granted     []struct {
			Achievement string `json:"achievement"`
		} `json:"achievements_granted"`
	}
	member.mustDo(http.MethodPost, "/api/completions", map[string]any{"chore_id": chore.ID}, http.StatusCreated, &result)
	if result.Completion.PointsEarned != 10 || result.PointsTotal != 10 {
		t.Errorf("points = %d / %d, want 10 / 10", result.Completion.PointsEarned, result.PointsTotal)
	}
	if len(result.Granted) != 1 || result.Granted[0].Achievement != "First Chore" {
		t.Errorf("granted = %+v", result.Granted)
	}

	wantTypes := []string{"completion_recorded", "achievement_granted"}
	for _, want := range wantTypes {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read ws: %v", err)
		}
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode ws message: %v", err)
		}
		if msg.Type != want {
			t.Errorf("ws message type = %q, want %q", msg.Type, want)
		}
	}

	var board struct {
		Entries []struct {
			Username string `json:"username"`
			Points   int    `json:"points"`
			Rank     int    `json:"rank"`
		} `json:"entries"`
	}
	admin.mustDo(http.MethodGet, "/api/leaderboard/daily", nil, http.StatusOK, &board)
	if len(board.Entries) == 0 || board.Entries[0].Username != "bob" || board.Entries[0].Points != 10 || board.Entries[0].Rank != 1 {
		t.Errorf("daily board = %+v", board.Entries)
	}
	if status, _ := admin.do(http.MethodGet, "/api/leaderboard/yearly", nil); status != http.StatusBadRequest {
		t.Errorf("unknown period status = %d, want 400", status)
	}

	var achievements []struct {
		Username string `json:"username"`
	}
	admin.mustDo(http.MethodGet, "/api/achievements/household", nil, http.StatusOK, &achievements)
	if len(achievements) != 1 || achievements[0].Username != "bob" {
		t.Errorf("household achievements = %+v", achievements)
	}

	path := "/api/completions/" + jsonNumber(result.Completion.ID)
	if status, _ := admin.do(http.MethodDelete, path, nil); status != http.StatusForbidden {
		t.Errorf("admin delete status = %d, want 403", status)
	}
	member.mustDo(http.MethodDelete, path, nil, http.StatusOK, nil)

	var stats struct {
		TotalPoints int `json:"total_points"`
	}
	member.mustDo(http.MethodGet, "/api/users/me/stats", nil, http.StatusOK, &stats)
	if stats.TotalPoints != 0 {
		t.Errorf("points after delete = %d, want 0", stats.TotalPoints)
	}

	member.mustDo(http.MethodPost, "/api/auth/logout", nil, http.StatusOK, nil)
	if status, _ := member.do(http.MethodGet, "/api/users/me", nil); status != http.StatusUnauthorized {
		t.Errorf("after logout status = %d, want 401", status)
	}
}

func jsonNumber(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func TestLoginRateLimit(t *testing.T) {
	_, ts := setupServer(t)
	c := &client{t: t, base: ts.URL}
	body := map[string]string{"email": "nobody@example.com", "password": "password123"}

	for i := 0; i < authRateLimit; i++ {
		if status, _ := c.do(http.MethodPost, "/api/auth/login", body); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, status)
		}
	}
	if status, _ := c.do(http.MethodPost, "/api/auth/login", body); status != http.StatusTooManyRequests {
		t.Errorf("over limit status = %d, want 429", status)
	}
	// Register has its own bucket.
	register(t, ts.URL, "fresh")
}

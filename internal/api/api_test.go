package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mobaserver/internal/api"
	"github.com/mcoot/mobaserver/internal/api/apierr"
	"github.com/mcoot/mobaserver/internal/api/response"
	"github.com/mcoot/mobaserver/internal/factory"
	"github.com/mcoot/mobaserver/internal/model"
)

// testServer wraps a test app whose hub is running
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.StartHub(ctx)

	return &testServer{
		handler: app.Handler,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// openConnection opens a connection with the given id and returns its token
func openConnection(t *testing.T, ts *testServer, id string) string {
	t.Helper()

	ts.app.MockRandom.QueueUUID(id)
	rr := ts.request(http.MethodPost, "/api/v1/connections", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Connection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, id, resp.ConnectionID)
	return resp.Token
}

// startMatch puts alice and bob in match-1 on opposite teams
func startMatch(t *testing.T, ts *testServer) (alice, bob string) {
	t.Helper()

	alice = openConnection(t, ts, "alice")
	bob = openConnection(t, ts, "bob")

	ts.app.MockRandom.QueueUUID("match-1")
	rr := ts.request(http.MethodPost, "/api/v1/matches", nil, alice)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/join", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	return alice, bob
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestOpenConnection(t *testing.T) {
	ts := newTestServer(t)

	ts.app.MockRandom.QueueUUID("conn-1")
	rr := ts.request(http.MethodPost, "/api/v1/connections", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Connection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "conn-1", resp.ConnectionID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, ts.app.MockClock.Now().Add(time.Hour), resp.ExpiresAt)

	id, err := ts.app.ConnectionService.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionID("conn-1"), id)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/matches", "/api/v1/matches/history", "/api/v1/events"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]any{"username": "x"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)
}

func TestExpiredToken(t *testing.T) {
	ts := newTestServer(t)
	token := openConnection(t, ts, "alice")

	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.request(http.MethodGet, "/api/v1/matches", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListHeroes(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/heroes", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.HeroList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Heroes, 3)
	assert.Equal(t, "Sukuna", resp.Heroes[0].Name)
	assert.Equal(t, 550.0, resp.Heroes[0].MaxHealth)
	assert.Len(t, resp.Heroes[0].Abilities, 3)
}

func TestRegisterPlayer(t *testing.T) {
	ts := newTestServer(t)
	token := openConnection(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]any{"username": "  Alice ", "hero_id": 2}, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var view model.PlayerView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Alice", view.Username)
	assert.Equal(t, model.HeroAyaseMomo, view.HeroID)
	assert.Equal(t, 350.0, view.Health)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)
	token := openConnection(t, ts, "alice")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing username", map[string]any{"hero_id": 1}, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"username too long", map[string]any{"username": strings.Repeat("x", 33), "hero_id": 1}, http.StatusBadRequest, apierr.CodeInvalidAction},
		{"unknown hero", map[string]any{"username": "alice", "hero_id": 99}, http.StatusNotFound, apierr.CodeHeroNotFound},
		{"malformed body", "not an object", http.StatusBadRequest, apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/players", tt.body, token)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
}

func TestCreateAndJoinMatch(t *testing.T) {
	ts := newTestServer(t)
	alice := openConnection(t, ts, "alice")
	bob := openConnection(t, ts, "bob")

	ts.app.MockRandom.QueueUUID("match-1")
	rr := ts.request(http.MethodPost, "/api/v1/matches", nil, alice)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created model.MatchView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, model.MatchID("match-1"), created.MatchID)
	require.Len(t, created.Players, 1)
	assert.Equal(t, "Player_alice", created.Players[0].Username)

	// Listed while there is room
	rr = ts.request(http.MethodGet, "/api/v1/matches", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	var list response.MatchList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Matches, 1)
	assert.Equal(t, 1, list.Matches[0].PlayerCount)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/join", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/matches/match-1", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	var snapshot model.MatchView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Players, 2)

	// A second match is refused while already in one
	rr = ts.request(http.MethodPost, "/api/v1/matches", nil, bob)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyInMatch, decodeError(t, rr).Code)
}

func TestJoinUnknownMatch(t *testing.T) {
	ts := newTestServer(t)
	token := openConnection(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/matches/nope/join", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMatchNotFound, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/v1/matches/nope", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMoveAndAttack(t *testing.T) {
	ts := newTestServer(t)
	alice, bob := startMatch(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/matches/match-1/move", map[string]any{"x": 1.5, "y": -2}, alice)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/move", map[string]any{"x": 1.5}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/attack", map[string]any{"target_id": "bob"}, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var result response.AttackResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 10.0, result.Damage)
	assert.Equal(t, 90.0, result.NewHealth)
	assert.False(t, result.Killed)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/attack", map[string]any{"target_id": "bob"}, bob)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "cannot attack yourself", decodeError(t, rr).Message)
}

func TestUseAbility(t *testing.T) {
	ts := newTestServer(t)
	alice := openConnection(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]any{"username": "alice", "hero_id": 3}, alice)
	require.Equal(t, http.StatusCreated, rr.Code)

	ts.app.MockRandom.QueueUUID("match-1")
	rr = ts.request(http.MethodPost, "/api/v1/matches", nil, alice)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/abilities", map[string]any{"ability_id": 1, "x": 0, "y": 0}, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var result response.AbilityResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "PikaPika", result.Name)
	assert.Equal(t, 130.0, result.ManaRemaining)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/abilities", map[string]any{"ability_id": 9}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "unknown ability", decodeError(t, rr).Message)
}

func TestChatRequiresMembership(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := startMatch(t, ts)
	outsider := openConnection(t, ts, "carol")

	rr := ts.request(http.MethodPost, "/api/v1/matches/match-1/chat", map[string]any{"message": "gg"}, alice)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/chat", map[string]any{"message": "hi"}, outsider)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotInMatch, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/chat", map[string]any{"message": "   "}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLeaveAndHistory(t *testing.T) {
	ts := newTestServer(t)
	alice, bob := startMatch(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/matches/match-1/leave", nil, alice)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/match-1/leave", nil, alice)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The last connection out closes the match through disconnect
	rr = ts.request(http.MethodDelete, "/api/v1/connections/me", nil, bob)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/matches/history?limit=5", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var history response.MatchHistory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history.Matches, 1)
	assert.Equal(t, model.MatchID("match-1"), history.Matches[0].MatchID)

	rr = ts.request(http.MethodGet, "/api/v1/matches/history?limit=zero", nil, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	alice, bob := startMatch(t, ts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?token="+bob, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && event != "":
				return event, data
			}
		}
	}

	event, data := readEvent()
	assert.Equal(t, "connected", event)
	assert.JSONEq(t, `{"connection_id":"bob"}`, data)

	rr := ts.request(http.MethodPost, "/api/v1/matches/match-1/attack", map[string]any{"target_id": "bob"}, alice)
	require.Equal(t, http.StatusOK, rr.Code)

	// Events from joining may still be in flight ahead of the attack
	for event != string(model.EventPlayerAttacked) {
		event, data = readEvent()
	}
	assert.JSONEq(t, `{"attacker_id":"alice","target_id":"bob","damage":10,"new_health":90}`, data)
}

func TestServerServesUntilShutdown(t *testing.T) {
	ts := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := api.NewServer(ts.handler, api.DefaultServerConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	done := make(chan error, 1)
	go func() { done <- server.Serve(ln) }()

	require.Eventually(t, func() bool {
		return server.Addr() == ln.Addr().String()
	}, time.Second, 5*time.Millisecond)

	resp, err := http.Get("http://" + server.Addr() + "/api/v1/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	require.NoError(t, server.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

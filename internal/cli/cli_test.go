package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mobaserver/internal/factory"
)

type CLISuite struct {
	suite.Suite
	app       *factory.TestApp
	server    *httptest.Server
	tokenFile string
	cancel    context.CancelFunc
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.T().Setenv("MOBA_TOKEN", "")
	s.app = factory.NewTestApp()
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.app.StartHub(ctx)
	s.server = httptest.NewServer(s.app.Handler)
	s.tokenFile = filepath.Join(s.T().TempDir(), "token")
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
	s.cancel()
}

// run executes the CLI against the test server and returns stdout
func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", s.server.URL, "--token-file", s.tokenFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) mustRun(args ...string) string {
	out, err := s.run(args...)
	s.Require().NoError(err)
	return out
}

func (s *CLISuite) TestHealth() {
	s.Equal("Status: ok\n", s.mustRun("health"))
}

func (s *CLISuite) TestConnectSavesToken() {
	s.app.MockRandom.QueueUUID("alice")

	out := s.mustRun("connect")
	s.Contains(out, "Connection: alice")

	token, err := os.ReadFile(s.tokenFile)
	s.Require().NoError(err)
	id, err := s.app.ConnectionService.Validate(string(token))
	s.Require().NoError(err)
	s.Equal("alice", string(id))
}

func (s *CLISuite) TestMatchFlow() {
	s.app.MockRandom.QueueUUID("alice", "match-1")
	s.mustRun("connect")

	out := s.mustRun("register", "--name", "Alice", "--hero", "1")
	s.Contains(out, "Player: Alice (alice)")
	s.Contains(out, "Health: 550/550")

	out = s.mustRun("match", "create")
	s.Contains(out, "Match: match-1")
	s.Contains(out, "team 1: Alice (alice)")

	out = s.mustRun("match", "list")
	s.Contains(out, "match-1  waiting  1 players (1 v 0)")

	out = s.mustRun("move", "match-1", "--", "-10", "20")
	s.Equal("Moved to (-10, 20)\n", out)

	out = s.mustRun("ability", "match-1", "2", "--x", "5", "--y", "5")
	s.Contains(out, "Cast KamiHi")
	s.Contains(out, "190 mana left")

	_, err := s.run("attack", "match-1", "ghost")
	s.Require().Error(err)
	s.Contains(err.Error(), "PLAYER_NOT_FOUND")

	s.Equal("Sent\n", s.mustRun("chat", "match-1", "good", "luck"))

	out = s.mustRun("match", "leave", "match-1")
	s.Equal("Left match match-1\n", out)

	out = s.mustRun("match", "history")
	s.Contains(out, "match-1  0 - 0")
}

func (s *CLISuite) TestHeroesJSON() {
	out := s.mustRun("heroes", "-o", "json")

	var result HeroList
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Require().Len(result.Heroes, 3)
	s.Equal("Denji", result.Heroes[2].Name)
}

func (s *CLISuite) TestDisconnectClearsToken() {
	s.app.MockRandom.QueueUUID("alice")
	s.mustRun("connect")

	s.Equal("Disconnected\n", s.mustRun("disconnect"))

	_, err := os.Stat(s.tokenFile)
	s.True(os.IsNotExist(err))

	// Without a token the server refuses protected commands
	_, err = s.run("match", "list")
	s.Require().Error(err)
	s.Contains(err.Error(), "UNAUTHORIZED")
}

func (s *CLISuite) TestRejectedCommand() {
	s.app.MockRandom.QueueUUID("alice")
	s.mustRun("connect")

	_, err := s.run("match", "join", "nope")
	s.Require().Error(err)
	s.Contains(err.Error(), "Match not found (MATCH_NOT_FOUND)")

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusNotFound, apiErr.Status)
	s.Equal("MATCH_NOT_FOUND", apiErr.Code)
}

func (s *CLISuite) TestEventsRejectsExpiredToken() {
	s.app.MockRandom.QueueUUID("alice")
	s.mustRun("connect")
	s.app.MockClock.Advance(2 * time.Hour)

	_, err := s.run("events")

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusUnauthorized, apiErr.Status)
}

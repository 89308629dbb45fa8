package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/mobaserver/internal/dependencies/mocks"
	"github.com/mcoot/mobaserver/internal/services/connection"
	"github.com/mcoot/mobaserver/internal/storage/memory"
)

// TestTokenSecret signs tokens issued by a TestApp
const TestTokenSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := withDefaults(Config{
		ConnectionConfig: connection.Config{Secret: TestTokenSecret, TokenTTL: time.Hour},
	})
	app, err := newWithDependencies(store, mockClock, mockRandom, cfg, logger)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}

// StartHub runs the event hub until ctx is cancelled. Respawns and ticks are
// left to the test so it can drive them against the mock clock.
func (t *TestApp) StartHub(ctx context.Context) {
	go func() { _ = t.Hub.Run(ctx) }()
}

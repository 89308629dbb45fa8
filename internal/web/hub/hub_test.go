package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mobaserver/internal/dependencies/mocks"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/testutil"
)

type HubSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	clock  *mocks.MockClock
	hub    *Hub
	done   chan error
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.hub = New(s.clock, testutil.NopLogger())
	s.done = make(chan error, 1)
	go func() { s.done <- s.hub.Run(s.ctx) }()
}

func (s *HubSuite) TearDownTest() {
	s.cancel()
	<-s.done
}

func (s *HubSuite) receive(c *Client) Message {
	select {
	case msg, ok := <-c.Messages():
		s.Require().True(ok, "client channel closed")
		return msg
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for message")
		return Message{}
	}
}

func (s *HubSuite) assertNothing(c *Client) {
	select {
	case msg := <-c.Messages():
		s.Failf("unexpected message", "%s %s", msg.Event, msg.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *HubSuite) TestCallerEventReachesOnlyCaller() {
	a := s.hub.Connect("a")
	b := s.hub.Connect("b")

	s.hub.Publish(s.ctx, model.CallerEvent("a", model.EventError, model.ErrorPayload{Message: "nope"}, s.clock.Now()))

	msg := s.receive(a)
	s.Equal("error", msg.Event)
	s.JSONEq(`{"message":"nope"}`, string(msg.Data))
	s.assertNothing(b)
}

func (s *HubSuite) TestGroupEventReachesMembers() {
	a := s.hub.Connect("a")
	b := s.hub.Connect("b")
	c := s.hub.Connect("c")
	s.hub.JoinGroup("match-1", "a")
	s.hub.JoinGroup("match-1", "b")

	payload := model.PlayerMovedPayload{ConnectionID: "a", X: 1, Y: 2}
	s.hub.Publish(s.ctx, model.GroupEvent("match-1", model.EventPlayerMoved, payload, s.clock.Now()))

	for _, client := range []*Client{a, b} {
		msg := s.receive(client)
		s.Equal("player_moved", msg.Event)
		var got model.PlayerMovedPayload
		s.Require().NoError(json.Unmarshal(msg.Data, &got))
		s.Equal(payload, got)
	}
	s.assertNothing(c)
}

func (s *HubSuite) TestLeaveGroupStopsDelivery() {
	a := s.hub.Connect("a")
	s.hub.JoinGroup("match-1", "a")
	s.Equal(1, s.hub.GroupSize("match-1"))

	s.hub.LeaveGroup("match-1", "a")
	s.Equal(0, s.hub.GroupSize("match-1"))

	s.hub.Publish(s.ctx, model.GroupEvent("match-1", model.EventChatMessage, model.ChatMessagePayload{}, s.clock.Now()))
	s.assertNothing(a)
}

// pausedHub returns a hub whose loop has not started, with a stream for each
// id already registered, so published events stay queued until start is called
func (s *HubSuite) pausedHub(ids ...model.ConnectionID) (h *Hub, clients map[model.ConnectionID]*Client, start func()) {
	h = New(s.clock, testutil.NopLogger())
	clients = make(map[model.ConnectionID]*Client)
	for _, id := range ids {
		c := h.newClient(id)
		h.clients[id] = map[*Client]bool{c: true}
		clients[id] = c
	}
	start = func() {
		done := make(chan error, 1)
		go func() { done <- h.Run(s.ctx) }()
		s.T().Cleanup(func() {
			h.Close()
			<-done
		})
	}
	return h, clients, start
}

func (s *HubSuite) chatText(c *Client) string {
	msg := s.receive(c)
	var got model.ChatMessagePayload
	s.Require().NoError(json.Unmarshal(msg.Data, &got))
	return got.Message
}

func (s *HubSuite) TestLateJoinerMissesQueuedGroupEvent() {
	h, clients, start := s.pausedHub("a", "b")
	h.JoinGroup("match-1", "a")

	h.Publish(s.ctx, model.GroupEvent("match-1", model.EventChatMessage, model.ChatMessagePayload{Message: "before"}, s.clock.Now()))
	h.JoinGroup("match-1", "b")
	h.Publish(s.ctx, model.GroupEvent("match-1", model.EventChatMessage, model.ChatMessagePayload{Message: "after"}, s.clock.Now()))
	start()

	s.Equal("before", s.chatText(clients["a"]))
	s.Equal("after", s.chatText(clients["a"]))
	s.Equal("after", s.chatText(clients["b"]))
	s.assertNothing(clients["b"])
}

func (s *HubSuite) TestLeaverStillGetsEventsPublishedWhileMember() {
	h, clients, start := s.pausedHub("a", "b")
	h.JoinGroup("match-1", "a")
	h.JoinGroup("match-1", "b")

	h.Publish(s.ctx, model.GroupEvent("match-1", model.EventChatMessage, model.ChatMessagePayload{Message: "farewell"}, s.clock.Now()))
	h.LeaveGroup("match-1", "b")
	h.Publish(s.ctx, model.GroupEvent("match-1", model.EventChatMessage, model.ChatMessagePayload{Message: "gone"}, s.clock.Now()))
	start()

	s.Equal("farewell", s.chatText(clients["b"]))
	s.assertNothing(clients["b"])
	s.Equal("farewell", s.chatText(clients["a"]))
	s.Equal("gone", s.chatText(clients["a"]))
}

func (s *HubSuite) TestConnectionWithSeveralStreamsGetsEveryCopy() {
	first := s.hub.Connect("a")
	second := s.hub.Connect("a")

	s.hub.Publish(s.ctx, model.ConnectionEvent("a", model.EventTeamChatMessage, model.ChatMessagePayload{Message: "hi"}, s.clock.Now()))

	s.Equal("team_chat_message", s.receive(first).Event)
	s.Equal("team_chat_message", s.receive(second).Event)
}

func (s *HubSuite) TestDisconnectClosesClient() {
	a := s.hub.Connect("a")
	s.Eventually(func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.hub.Disconnect(a)

	select {
	case _, ok := <-a.Messages():
		s.False(ok)
	case <-time.After(time.Second):
		s.Fail("client channel not closed")
	}
	s.Equal(0, s.hub.ClientCount())
}

func (s *HubSuite) TestFullClientBufferDropsWithoutBlocking() {
	a := s.hub.Connect("a")
	b := s.hub.Connect("b")

	for i := 0; i < sendBufferSize+10; i++ {
		s.hub.Publish(s.ctx, model.CallerEvent("a", model.EventPlayerMoved, model.PlayerMovedPayload{}, s.clock.Now()))
	}
	s.hub.Publish(s.ctx, model.CallerEvent("b", model.EventError, model.ErrorPayload{Message: "still flowing"}, s.clock.Now()))

	s.Equal("error", s.receive(b).Event)

	received := 0
	for len(a.Messages()) > 0 {
		<-a.Messages()
		received++
	}
	s.Equal(sendBufferSize, received)
}

func (s *HubSuite) TestStopClosesEveryClient() {
	a := s.hub.Connect("a")
	s.Eventually(func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.hub.Close()

	select {
	case _, ok := <-a.Messages():
		s.False(ok)
	case <-time.After(time.Second):
		s.Fail("client channel not closed")
	}

	late := s.hub.Connect("late")
	_, ok := <-late.Messages()
	s.False(ok)
	s.hub.Disconnect(late)
}

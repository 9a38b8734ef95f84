package sse

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidboard/raidboard-server/internal/domain"
)

var eventTime = time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC)

func setupManager(t *testing.T) *Manager {
	t.Helper()

	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = m.Shutdown(context.Background())
	})
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev, ok := <-c.EventChan:
		require.True(t, ok, "client channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestManager_ChannelFiltering(t *testing.T) {
	m := setupManager(t)

	north, err := m.Connect("c-north")
	require.NoError(t, err)
	south, err := m.Connect("c-south")
	require.NoError(t, err)
	all, err := m.Connect("")
	require.NoError(t, err)
	assert.Equal(t, 3, m.ClientCount())

	m.Emit(NewRaidCreatedEvent(domain.Display{RaidID: "lugia-0", ChannelID: "c-north"}, "ash", eventTime))

	ev := receive(t, north)
	assert.Equal(t, EventRaidCreated, ev.Type)
	assert.Equal(t, "c-north", ev.ChannelID)
	assert.True(t, strings.HasPrefix(ev.ID, "evt-"))
	assert.Equal(t, eventTime, ev.Timestamp)
	created, ok := ev.Data.(RaidEventData)
	require.True(t, ok)
	assert.Equal(t, "ash", created.CreatorID)

	assert.Equal(t, EventRaidCreated, receive(t, all).Type)

	select {
	case ev := <-south.EventChan:
		t.Fatalf("other channel got %s", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewRaidRemovedEvent(t *testing.T) {
	at := eventTime

	tests := []struct {
		reason domain.EvictionReason
		want   EventType
	}{
		{domain.EvictionDeleted, EventRaidDeleted},
		{domain.EvictionExpired, EventRaidEvicted},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			ev := NewRaidRemovedEvent("c-1", "egg-1", tt.reason, at)
			assert.Equal(t, tt.want, ev.Type)
			data, ok := ev.Data.(RaidRemovedEventData)
			require.True(t, ok)
			assert.Equal(t, "egg-1", data.RaidID)
			assert.Equal(t, at, data.RemovedAt)
			assert.Equal(t, at, ev.Timestamp)
		})
	}
}

func TestRaidEvents_CarryActor(t *testing.T) {
	d := domain.Display{RaidID: "egg-1", ChannelID: "c-1"}
	gym := domain.Gym{ID: "g-mural", Name: "Harbor Mural"}

	subject := NewRaidSubjectSetEvent(d, "misty", true, eventTime)
	assert.Equal(t, EventRaidSubjectSet, subject.Type)
	assert.Equal(t, eventTime, subject.Timestamp)
	assert.Equal(t, RaidSubjectSetEventData{Raid: d, SetterID: "misty", WasEgg: true}, subject.Data)

	location := NewRaidLocationSetEvent(d, gym, "brock", eventTime)
	assert.Equal(t, EventRaidLocationSet, location.Type)
	assert.Equal(t, RaidLocationSetEventData{Raid: d, Gym: gym, SetterID: "brock"}, location.Data)

	updated := NewRaidUpdatedEvent(d, eventTime)
	assert.Equal(t, RaidEventData{Raid: d}, updated.Data)

	heartbeat := NewHeartbeatEvent(eventTime)
	assert.Equal(t, HeartbeatEventData{ServerTime: eventTime}, heartbeat.Data)
	assert.Equal(t, eventTime, heartbeat.Timestamp)
}

func TestManager_ShutdownClosesClientsAndDropsLateEvents(t *testing.T) {
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	client, err := m.Connect("c-1")
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()), "second shutdown is a no-op")

	_, open := <-client.Done
	assert.False(t, open)
	assert.Zero(t, m.ClientCount())

	assert.NotPanics(t, func() {
		m.Emit(NewRaidUpdatedEvent(domain.Display{ChannelID: "c-1"}, eventTime))
	})
}

func TestHandler_StreamsChannelEvents(t *testing.T) {
	m := setupManager(t)
	srv := httptest.NewServer(NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?channel=c-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		t.Helper()
		require.True(t, lines.Scan())
		return lines.Text()
	}

	assert.Equal(t, "event: connected", next())
	assert.Contains(t, next(), `"channel_id":"c-1"`)
	assert.Empty(t, next())

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	m.Emit(NewRaidUpdatedEvent(domain.Display{RaidID: "lugia-0", ChannelID: "c-1"}, eventTime))

	assert.Equal(t, "event: raid.updated", next())
	data := next()
	assert.True(t, strings.HasPrefix(data, "data: "))
	assert.Contains(t, data, `"lugia-0"`)
}

func TestHandler_RejectsNonGet(t *testing.T) {
	m := setupManager(t)
	h := NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidboard/raidboard-server/internal/clock"
	"github.com/raidboard/raidboard-server/internal/domain"
	"github.com/raidboard/raidboard-server/internal/gym"
	"github.com/raidboard/raidboard-server/internal/ratelimit"
	"github.com/raidboard/raidboard-server/internal/service"
	"github.com/raidboard/raidboard-server/internal/sse"
	"github.com/raidboard/raidboard-server/internal/timeparse"
)

var testNow = time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC)

// testEnvelope mirrors the response envelope for decoding.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type testServer struct {
	*Server
	api   humatest.TestAPI
	clock *clock.Fake
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFake(testNow)

	gyms, err := gym.NewDirectory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gyms.Close() })
	require.NoError(t, gyms.Load([]domain.Gym{
		{ID: "g-fountain", Name: "Town Hall Fountain"},
		{ID: "g-mural", Name: "Harbor Mural"},
	}))

	events := sse.NewManager(logger)
	raids := service.NewRaidService(clk, timeparse.New(timeparse.Options{Clock: clk}), gyms, events, service.RaidConfig{}, logger)

	s := NewServer(&Services{Raids: raids, Gyms: gyms, Events: events}, sse.NewHandler(events, logger), opts, logger)
	return &testServer{Server: s, api: humatest.Wrap(t, s.API()), clock: clk}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func asMember(id string) string {
	return MemberHeader + ": " + id
}

func (ts *testServer) createRaid(t *testing.T, memberID string, body map[string]any) RaidResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/channels/chan-1/raids", asMember(memberID), body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[RaidResponse](t, resp).Data
}

func TestServer_RaidLifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})

	raid := ts.createRaid(t, "ash", map[string]any{"subject_name": "Lugia", "tier": 5, "display_name": "Ash"})
	assert.Equal(t, "lugia-0", raid.ID)
	assert.Equal(t, "ash", raid.CreatorID)
	assert.Equal(t, 1, raid.TotalCount)

	resp := ts.api.Post("/api/v1/channels/chan-1/raids/LUGIA-0/join", asMember("misty"), map[string]any{"additional": 2})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 4, decode[RaidResponse](t, resp).Data.TotalCount)

	resp = ts.api.Put("/api/v1/channels/chan-1/raids/current/status", asMember("misty"), map[string]any{"status": "arrived"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/end-time", asMember("ash"), map[string]any{"time": "30"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	end := decode[RaidResponse](t, resp).Data.EndTime
	require.NotNil(t, end)
	assert.True(t, end.At.Equal(testNow.Add(30*time.Minute)))

	resp = ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/location", asMember("ash"), map[string]any{"gym": "harbour mural"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "g-mural", decode[RaidResponse](t, resp).Data.Location.ID)

	resp = ts.api.Get("/api/v1/channels/chan-1/raids/lugia-0/total")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 4, decode[struct {
		Total int `json:"total"`
	}](t, resp).Data.Total)

	resp = ts.api.Get("/api/v1/channels/chan-1/raids/lugia-0/display")
	require.Equal(t, http.StatusOK, resp.Code)
	display := decode[domain.Display](t, resp).Data
	assert.Equal(t, "Lugia", display.SubjectName)
	assert.Equal(t, 1, display.StatusCounts[domain.StatusArrived])

	resp = ts.api.Delete("/api/v1/channels/chan-1/raids/lugia-0", asMember("ash"))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/channels/chan-1/raids/lugia-0")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_ErrorEnvelopes(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createRaid(t, "ash", map[string]any{"subject_name": "Lugia"})

	tests := []struct {
		name       string
		do         func() *httptest.ResponseRecorder
		wantStatus int
		wantCode   string
	}{
		{
			name: "unknown raid",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Get("/api/v1/channels/chan-1/raids/mewtwo-9")
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "RAID_NOT_FOUND",
		},
		{
			name: "other channel",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Get("/api/v1/channels/chan-2/raids/lugia-0")
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "RAID_NOT_FOUND",
		},
		{
			name: "join twice",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Post("/api/v1/channels/chan-1/raids/lugia-0/join", asMember("ash"), map[string]any{})
			},
			wantStatus: http.StatusConflict,
			wantCode:   "ALREADY_JOINED",
		},
		{
			name: "leave without attending",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Post("/api/v1/channels/chan-1/raids/lugia-0/leave", asMember("brock"))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "ATTENDEE_NOT_FOUND",
		},
		{
			name: "missing member header",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Post("/api/v1/channels/chan-1/raids/lugia-0/join", map[string]any{})
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name: "unknown status",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/status", asMember("ash"), map[string]any{"status": "maybe"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name: "malformed time",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/start-time", asMember("ash"), map[string]any{"time": "teatime"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MALFORMED_TIME_INPUT",
		},
		{
			name: "unknown gym",
			do: func() *httptest.ResponseRecorder {
				return ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/location", asMember("ash"), map[string]any{"gym": "volcano"})
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "GYM_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())

			env := decode[any](t, resp)
			assert.Equal(t, EnvelopeVersion, env.V)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestServer_ListAndResolve(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createRaid(t, "ash", map[string]any{"subject_name": "Lugia"})
	ts.clock.Advance(time.Minute)
	ts.createRaid(t, "misty", map[string]any{"tier": 5})

	resp := ts.api.Get("/api/v1/channels/chan-1/raids")
	require.Equal(t, http.StatusOK, resp.Code)
	raids := decode[ListRaidsResponse](t, resp).Data.Raids
	require.Len(t, raids, 2)
	assert.Equal(t, "lugia-0", raids[0].ID)
	assert.Equal(t, "egg-1", raids[1].ID)

	resp = ts.api.Post("/api/v1/channels/chan-1/raids/resolve", asMember("ash"),
		map[string]any{"tokens": []string{"2:30", "EGG-1", "north"}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[ResolveRaidResponse](t, resp).Data
	assert.Equal(t, "egg-1", res.Raid.ID)
	assert.Equal(t, []string{"2:30", "north"}, res.Unmatched)

	resp = ts.api.Post("/api/v1/channels/chan-1/raids/resolve", asMember("ash"),
		map[string]any{"tokens": []string{"2:30"}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "lugia-0", decode[ResolveRaidResponse](t, resp).Data.Raid.ID, "falls back to the caller's current raid")

	resp = ts.api.Post("/api/v1/channels/chan-1/raids/egg-1/touch", asMember("ash"))
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = ts.api.Get("/api/v1/channels/chan-1/raids/current", asMember("ash"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "egg-1", decode[RaidResponse](t, resp).Data.ID)
}

func TestServer_Groups(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createRaid(t, "ash", map[string]any{"subject_name": "Lugia"})

	resp := ts.api.Post("/api/v1/channels/chan-1/raids/lugia-0/groups", asMember("ash"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[CreateGroupResponse](t, resp).Data
	assert.Equal(t, "A", created.Group.ID)
	assert.Equal(t, "A", created.Raid.Attendees[0].GroupID)

	resp = ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/groups/a/label", asMember("ash"), map[string]any{"label": "north gate"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "north gate", decode[RaidResponse](t, resp).Data.Groups[0].Label)

	ts.api.Post("/api/v1/channels/chan-1/raids/lugia-0/join", asMember("misty"), map[string]any{})
	resp = ts.api.Put("/api/v1/channels/chan-1/raids/lugia-0/group", asMember("misty"), map[string]any{"group_id": "Z"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_GROUP", decode[any](t, resp).Code)
}

func TestServer_SearchGyms(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/gyms?q=fountin")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	hits := decode[SearchGymsResponse](t, resp).Data.Hits
	require.NotEmpty(t, hits)
	assert.Equal(t, "g-fountain", hits[0].Gym.ID)
}

func TestServer_Health(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createRaid(t, "ash", map[string]any{"subject_name": "Lugia"})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	health := decode[HealthResponse](t, resp).Data
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Components["raids"].Count)
	assert.Equal(t, 2, health.Components["gyms"].Count)
}

func TestServer_RateLimit(t *testing.T) {
	limiter := ratelimit.New(1, 2, ratelimit.WithClock(clock.NewFake(testNow)))
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, Options{Limiter: limiter})

	for range 2 {
		resp := ts.api.Get("/api/v1/channels/chan-1/raids", asMember("ash"))
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Get("/api/v1/channels/chan-1/raids", asMember("ash"))
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decode[any](t, resp).Code)

	resp = ts.api.Get("/api/v1/channels/chan-1/raids", asMember("misty"))
	assert.Equal(t, http.StatusOK, resp.Code, "other members keep their own budget")
}

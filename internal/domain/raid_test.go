package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

func tier(n int) *int { return &n }

func newRaid(t *testing.T) *Raid {
	t.Helper()
	r, err := NewRaid("lugia-1", "chan-1", member("creator"), Subject{Name: "Lugia", Tier: tier(5)}, t0)
	require.NoError(t, err)
	return r
}

func TestNewRaid_CreatorJoined(t *testing.T) {
	r := newRaid(t)

	a, ok := r.Roster.Get("creator")
	require.True(t, ok)
	assert.Equal(t, StatusJoined, a.Status)
	assert.Equal(t, 1, r.TotalCount())
	assert.Equal(t, t0, r.CreatedAt)
	assert.False(t, r.Subject.IsEgg())
}

func TestRaid_Times_Ordering(t *testing.T) {
	r := newRaid(t)

	require.NoError(t, r.SetStartTime(t0.Add(20*time.Minute)))

	err := r.SetEndTime(t0.Add(10*time.Minute), "10")
	assert.ErrorIs(t, err, domainerrors.ErrOutOfOrder)
	assert.Nil(t, r.EndTime, "rejected end time leaves state unchanged")

	require.NoError(t, r.SetEndTime(t0.Add(45*time.Minute), "45"))
	assert.False(t, r.EndTime.Invalid)

	err = r.SetStartTime(t0.Add(50 * time.Minute))
	assert.ErrorIs(t, err, domainerrors.ErrOutOfOrder)
	assert.Equal(t, t0.Add(20*time.Minute), *r.StartTime)

	err = r.SetHatchTime(t0.Add(45*time.Minute), 0)
	assert.ErrorIs(t, err, domainerrors.ErrOutOfOrder)
}

func TestRaid_SetEndTime_BeforeCreationIsInvalid(t *testing.T) {
	r := newRaid(t)

	require.NoError(t, r.SetEndTime(t0.Add(-5*time.Minute), "-5"))
	require.NotNil(t, r.EndTime)
	assert.True(t, r.EndTime.Invalid)
	assert.Equal(t, EvictionInvalid, r.Eviction(t0))
}

func TestRaid_SetHatchTime_DerivesEnd(t *testing.T) {
	r := newRaid(t)

	require.NoError(t, r.SetHatchTime(t0.Add(30*time.Minute), 45*time.Minute))
	require.NotNil(t, r.EndTime)
	assert.Equal(t, t0.Add(75*time.Minute), r.EndTime.At)

	// an existing end time is kept
	require.NoError(t, r.SetHatchTime(t0.Add(40*time.Minute), 45*time.Minute))
	assert.Equal(t, t0.Add(75*time.Minute), r.EndTime.At)
}

func TestRaid_SetHatchTime_DerivedEndRespectsStart(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Duration
		hatch   time.Duration
		wantEnd *time.Duration
	}{
		{"start after derived end", 2 * time.Hour, 10 * time.Minute, nil},
		{"start equal to derived end", 55 * time.Minute, 10 * time.Minute, nil},
		{"start before derived end", 30 * time.Minute, 10 * time.Minute, durationPtr(55 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRaid(t)
			require.NoError(t, r.SetStartTime(t0.Add(tt.start)))

			require.NoError(t, r.SetHatchTime(t0.Add(tt.hatch), 45*time.Minute))
			assert.Equal(t, t0.Add(tt.hatch), *r.HatchTime)
			assert.Equal(t, t0.Add(tt.start), *r.StartTime)

			if tt.wantEnd == nil {
				assert.Nil(t, r.EndTime)
				assert.Equal(t, EvictionNone, r.Eviction(t0.Add(tt.start)))
				return
			}
			require.NotNil(t, r.EndTime)
			assert.Equal(t, t0.Add(*tt.wantEnd), r.EndTime.At)
			assert.True(t, r.EndTime.At.After(*r.StartTime))
		})
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestRaid_MarkEndTimeInvalid(t *testing.T) {
	r := newRaid(t)
	r.MarkEndTimeInvalid("whenever")

	assert.Equal(t, "whenever", r.EndTime.Raw)
	assert.Equal(t, EvictionInvalid, r.Eviction(t0))

	// invalid end does not block other times
	require.NoError(t, r.SetStartTime(t0.Add(time.Hour)))
}

func TestRaid_Eviction(t *testing.T) {
	r := newRaid(t)
	assert.Equal(t, EvictionNone, r.Eviction(t0.Add(48*time.Hour)), "no end time never expires")

	require.NoError(t, r.SetEndTime(t0.Add(time.Hour), ""))
	assert.Equal(t, EvictionNone, r.Eviction(t0.Add(time.Hour)))
	assert.Equal(t, EvictionExpired, r.Eviction(t0.Add(time.Hour+time.Second)))
}

func TestRaid_SetSubject(t *testing.T) {
	r, err := NewRaid("egg-1", "chan-1", member("creator"), Subject{Tier: tier(5)}, t0)
	require.NoError(t, err)
	assert.True(t, r.Subject.IsEgg())

	wasEgg := r.SetSubject(Subject{Name: "Lugia"})
	assert.True(t, wasEgg)
	assert.Equal(t, "Lugia", r.Subject.Name)
	assert.Equal(t, 5, *r.Subject.Tier, "tier carries over")

	assert.False(t, r.SetSubject(Subject{Name: "Ho-Oh"}))
}

func TestRaid_Groups(t *testing.T) {
	r := newRaid(t)
	_, _ = r.Join(member("m1"), 1, StatusJoined, t0)
	_, _ = r.Join(member("m2"), 0, StatusJoined, t0)

	_, err := r.CreateGroup("stranger", t0)
	assert.ErrorIs(t, err, domainerrors.ErrNotAttending)

	a, err := r.CreateGroup("m1", t0)
	require.NoError(t, err)
	assert.Equal(t, "A", a.ID)
	b, err := r.CreateGroup("m2", t0)
	require.NoError(t, err)
	assert.Equal(t, "B", b.ID)

	got, err := r.AssignGroup("creator", "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.GroupID)
	assert.Equal(t, 1+2, r.Roster.GroupCount("A"))

	_, err = r.AssignGroup("creator", "Z")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidGroup)
	_, err = r.AssignGroup("stranger", "A")
	assert.ErrorIs(t, err, domainerrors.ErrAttendeeNotFound)

	g, err := r.SetGroupLabel("b", "  north entrance ")
	require.NoError(t, err)
	assert.Equal(t, "north entrance", g.Label)
	_, err = r.SetGroupLabel("Q", "x")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidGroup)

	// B empties out and is pruned, so its label is free again
	_, err = r.AssignGroup("m2", "default")
	require.NoError(t, err)
	_, ok := r.Groups.Get("B")
	assert.False(t, ok)
	assert.Equal(t, "B", r.Groups.NextID())

	// leaving cascades into group membership
	_, err = r.Leave("m1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Groups.Len())
	_, err = r.Leave("creator")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Groups.Len())
}

func TestRaid_SetGroupLabel_TooLong(t *testing.T) {
	r := newRaid(t)
	_, err := r.CreateGroup("creator", t0)
	require.NoError(t, err)

	long := make([]byte, MaxGroupLabelLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = r.SetGroupLabel("A", string(long))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestRaid_Clone(t *testing.T) {
	r := newRaid(t)
	require.NoError(t, r.SetEndTime(t0.Add(time.Hour), ""))
	r.SetLocation(Gym{ID: "g1", Name: "Fountain"})

	c := r.Clone()
	_, _ = c.Join(member("m1"), 0, StatusJoined, t0)
	c.EndTime.At = t0
	c.Location.Name = "Changed"
	*c.Subject.Tier = 1

	assert.False(t, r.Roster.Has("m1"))
	assert.Equal(t, t0.Add(time.Hour), r.EndTime.At)
	assert.Equal(t, "Fountain", r.Location.Name)
	assert.Equal(t, 5, *r.Subject.Tier)
}

package domain

import (
	"strings"
	"time"

	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

// EndTime is when a raid stops being relevant. An invalid end time marks a raid as
// unusable; it is evicted on the next sweep whatever the current time is.
type EndTime struct {
	At      time.Time `json:"at"`
	Raw     string    `json:"raw,omitempty"`
	Invalid bool      `json:"invalid,omitempty"`
}

// EvictionReason says why a raid was removed.
type EvictionReason string

const (
	// EvictionNone means the raid stays.
	EvictionNone EvictionReason = ""
	// EvictionExpired means the end time passed.
	EvictionExpired EvictionReason = "expired"
	// EvictionInvalid means the end time is unusable.
	EvictionInvalid EvictionReason = "invalid"
	// EvictionDeleted means a command removed the raid.
	EvictionDeleted EvictionReason = "deleted"
)

// Raid is the aggregate for one meetup: subject, place, times, roster and groups.
//
// A Raid is not safe for concurrent use. The registry guards each live raid with
// its own lock and hands out clones.
type Raid struct {
	ID                string     `json:"id"`
	ChannelID         string     `json:"channel_id"`
	CreatorID         string     `json:"creator_id"`
	CreatedAt         time.Time  `json:"created_at"`
	Subject           Subject    `json:"subject"`
	Location          *Gym       `json:"location,omitempty"`
	HatchTime         *time.Time `json:"hatch_time,omitempty"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *EndTime   `json:"end_time,omitempty"`
	DisplayMessageRef string     `json:"display_message_ref,omitempty"`

	Roster *Roster   `json:"-"`
	Groups *GroupSet `json:"-"`
}

// NewRaid creates a raid with creator as its first JOINED attendee.
func NewRaid(id, channelID string, creator Member, subject Subject, now time.Time) (*Raid, error) {
	r := &Raid{
		ID:        id,
		ChannelID: channelID,
		CreatorID: creator.ID,
		CreatedAt: now,
		Subject:   subject.clone(),
		Roster:    NewRoster(),
		Groups:    NewGroupSet(),
	}
	if _, err := r.Roster.Join(creator, 0, StatusJoined, now); err != nil {
		return nil, err
	}
	return r, nil
}

// Join adds member to the roster.
func (r *Raid) Join(member Member, additional int, status Status, now time.Time) (Attendee, error) {
	return r.Roster.Join(member, additional, status, now)
}

// Leave removes member and drops their group if it is left empty.
func (r *Raid) Leave(memberID string) (Attendee, error) {
	a, err := r.Roster.Leave(memberID)
	if err != nil {
		return Attendee{}, err
	}
	r.pruneGroup(a.GroupID)
	return a, nil
}

// SetStatus moves an attendee through the state machine.
func (r *Raid) SetStatus(memberID string, status Status, now time.Time) (Attendee, error) {
	return r.Roster.SetStatus(memberID, status, now)
}

// SetAdditional changes an attendee's guest count.
func (r *Raid) SetAdditional(memberID string, additional int) (Attendee, error) {
	return r.Roster.SetAdditional(memberID, additional)
}

// TotalCount is every attendee plus every guest.
func (r *Raid) TotalCount() int {
	return r.Roster.TotalCount()
}

// CreateGroup opens the next free group label and moves the creator into it.
func (r *Raid) CreateGroup(creatorID string, now time.Time) (Group, error) {
	if !r.Roster.Has(creatorID) {
		return Group{}, domainerrors.NotAttendingf("member %s must join raid %s before creating a group", creatorID, r.ID)
	}

	g := Group{
		ID:        r.Groups.NextID(),
		CreatorID: creatorID,
		CreatedAt: now,
	}
	r.Groups.add(g)

	previous, err := r.Roster.setGroup(creatorID, g.ID)
	if err != nil {
		r.Groups.remove(g.ID)
		return Group{}, err
	}
	r.pruneGroup(previous)
	return g, nil
}

// AssignGroup moves an attendee into groupID, or back to the default group.
func (r *Raid) AssignGroup(memberID, groupID string) (Attendee, error) {
	target := DefaultGroupID
	if !IsDefaultGroup(groupID) {
		g, ok := r.Groups.Get(groupID)
		if !ok {
			return Attendee{}, domainerrors.InvalidGroupf("raid %s has no group %q", r.ID, groupID)
		}
		target = g.ID
	}

	previous, err := r.Roster.setGroup(memberID, target)
	if err != nil {
		return Attendee{}, err
	}
	if previous != target {
		r.pruneGroup(previous)
	}

	a, _ := r.Roster.Get(memberID)
	return a, nil
}

// SetGroupLabel sets the free-text label of an explicit group.
func (r *Raid) SetGroupLabel(groupID, label string) (Group, error) {
	label = strings.TrimSpace(label)
	if len(label) > MaxGroupLabelLength {
		return Group{}, domainerrors.Validationf("group label exceeds %d characters", MaxGroupLabelLength)
	}

	g, ok := r.Groups.Get(groupID)
	if !ok {
		return Group{}, domainerrors.InvalidGroupf("raid %s has no group %q", r.ID, groupID)
	}
	r.Groups.setLabel(g.ID, label)
	g.Label = label
	return g, nil
}

// pruneGroup drops an explicit group with no members so its label can be reused.
func (r *Raid) pruneGroup(groupID string) {
	if groupID == DefaultGroupID {
		return
	}
	if r.Roster.groupMembers(groupID) == 0 {
		r.Groups.remove(groupID)
	}
}

// SetSubject replaces the subject and reports whether the raid was an egg before.
func (r *Raid) SetSubject(subject Subject) (wasEgg bool) {
	wasEgg = r.Subject.IsEgg()
	if subject.Tier == nil {
		subject.Tier = r.Subject.Tier
	}
	r.Subject = subject.clone()
	return wasEgg
}

// SetLocation stores the gym the raid happens at.
func (r *Raid) SetLocation(gym Gym) {
	r.Location = &gym
}

// SetHatchTime sets the hatch time. When no end time exists yet and duration is
// positive, the end time becomes hatch + duration, unless that would not come
// after the start time; then the end stays unset.
func (r *Raid) SetHatchTime(at time.Time, duration time.Duration) error {
	if err := r.checkBeforeEnd("hatch", at); err != nil {
		return err
	}
	r.HatchTime = &at
	if r.EndTime == nil && duration > 0 {
		end := at.Add(duration)
		if r.StartTime == nil || end.After(*r.StartTime) {
			r.EndTime = r.endTimeAt(end, "")
		}
	}
	return nil
}

// SetStartTime sets when the group meets.
func (r *Raid) SetStartTime(at time.Time) error {
	if err := r.checkBeforeEnd("start", at); err != nil {
		return err
	}
	r.StartTime = &at
	return nil
}

// SetEndTime sets the end. It must come after hatch and start; an end at or before
// creation is kept but marked invalid.
func (r *Raid) SetEndTime(at time.Time, raw string) error {
	if r.HatchTime != nil && !at.After(*r.HatchTime) {
		return domainerrors.OutOfOrderf("end %s is not after hatch %s", at.Format(time.RFC3339), r.HatchTime.Format(time.RFC3339))
	}
	if r.StartTime != nil && !at.After(*r.StartTime) {
		return domainerrors.OutOfOrderf("end %s is not after start %s", at.Format(time.RFC3339), r.StartTime.Format(time.RFC3339))
	}
	r.EndTime = r.endTimeAt(at, raw)
	return nil
}

// MarkEndTimeInvalid records an end time that could not be understood.
func (r *Raid) MarkEndTimeInvalid(raw string) {
	r.EndTime = &EndTime{Raw: raw, Invalid: true}
}

func (r *Raid) endTimeAt(at time.Time, raw string) *EndTime {
	return &EndTime{At: at, Raw: raw, Invalid: !at.After(r.CreatedAt)}
}

func (r *Raid) checkBeforeEnd(field string, at time.Time) error {
	if r.EndTime == nil || r.EndTime.Invalid {
		return nil
	}
	if !r.EndTime.At.After(at) {
		return domainerrors.OutOfOrderf("%s %s is not before end %s", field, at.Format(time.RFC3339), r.EndTime.At.Format(time.RFC3339))
	}
	return nil
}

// Eviction says whether the sweeper should remove the raid at now.
// Raids without an end time are never evicted by time.
func (r *Raid) Eviction(now time.Time) EvictionReason {
	switch {
	case r.EndTime == nil:
		return EvictionNone
	case r.EndTime.Invalid:
		return EvictionInvalid
	case now.After(r.EndTime.At):
		return EvictionExpired
	default:
		return EvictionNone
	}
}

// Clone returns a deep copy safe to hand outside the registry lock.
func (r *Raid) Clone() *Raid {
	c := *r
	c.Subject = r.Subject.clone()
	if r.Location != nil {
		loc := *r.Location
		c.Location = &loc
	}
	c.HatchTime = cloneTime(r.HatchTime)
	c.StartTime = cloneTime(r.StartTime)
	if r.EndTime != nil {
		end := *r.EndTime
		c.EndTime = &end
	}
	c.Roster = r.Roster.clone()
	c.Groups = r.Groups.clone()
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

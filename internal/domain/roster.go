package domain

import (
	"slices"
	"time"

	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

// Roster is the ordered attendee list of one raid.
// It is not safe for concurrent use; the owning raid's lock guards it.
type Roster struct {
	attendees map[string]*Attendee
	nextSeq   int
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{attendees: make(map[string]*Attendee)}
}

// Join adds member with the given status, which must be JOINED or INTERESTED.
//
// A member already on the roster is rejected with AlreadyJoined, except that an
// INTERESTED or COMPLETE attendee joining again moves back to JOINED.
func (r *Roster) Join(member Member, additional int, status Status, now time.Time) (Attendee, error) {
	if member.ID == "" {
		return Attendee{}, domainerrors.Validation("member id is required")
	}
	if additional < 0 {
		return Attendee{}, domainerrors.Validationf("additional count must not be negative, got %d", additional)
	}
	if status != StatusJoined && status != StatusInterested {
		return Attendee{}, domainerrors.Validationf("cannot join with status %s", status)
	}

	if existing, ok := r.attendees[member.ID]; ok {
		reopen := status == StatusJoined &&
			(existing.Status == StatusInterested || existing.Status == StatusComplete)
		if !reopen {
			return Attendee{}, domainerrors.AlreadyJoinedf("member %s is already %s", member.ID, existing.Status)
		}
		existing.Status = StatusJoined
		existing.AdditionalCount = additional
		existing.ArrivedAt = nil
		return existing.clone(), nil
	}

	a := &Attendee{
		Member:          member.clone(),
		Status:          status,
		AdditionalCount: additional,
		JoinOrder:       r.nextSeq,
		JoinedAt:        now,
	}
	r.nextSeq++
	r.attendees[member.ID] = a
	return a.clone(), nil
}

// Leave removes an attendee along with its arrival and group state.
func (r *Roster) Leave(memberID string) (Attendee, error) {
	a, ok := r.attendees[memberID]
	if !ok {
		return Attendee{}, domainerrors.AttendeeNotFoundf("member %s is not on the roster", memberID)
	}
	delete(r.attendees, memberID)
	return a.clone(), nil
}

// SetStatus moves an attendee to status. Any direction is allowed; arrival is
// remembered through COMPLETE and forgotten on any other transition.
func (r *Roster) SetStatus(memberID string, status Status, now time.Time) (Attendee, error) {
	a, ok := r.attendees[memberID]
	if !ok {
		return Attendee{}, domainerrors.AttendeeNotFoundf("member %s is not on the roster", memberID)
	}

	switch status {
	case StatusArrived:
		if a.ArrivedAt == nil {
			arrived := now
			a.ArrivedAt = &arrived
		}
	case StatusComplete:
		// keep ArrivedAt
	case StatusJoined, StatusInterested:
		a.ArrivedAt = nil
	default:
		return Attendee{}, domainerrors.Validationf("unknown status %q", status)
	}

	a.Status = status
	return a.clone(), nil
}

// SetAdditional changes the number of guests an attendee brings.
func (r *Roster) SetAdditional(memberID string, additional int) (Attendee, error) {
	if additional < 0 {
		return Attendee{}, domainerrors.Validationf("additional count must not be negative, got %d", additional)
	}
	a, ok := r.attendees[memberID]
	if !ok {
		return Attendee{}, domainerrors.AttendeeNotFoundf("member %s is not on the roster", memberID)
	}
	a.AdditionalCount = additional
	return a.clone(), nil
}

// Get returns a copy of the attendee for memberID.
func (r *Roster) Get(memberID string) (Attendee, bool) {
	a, ok := r.attendees[memberID]
	if !ok {
		return Attendee{}, false
	}
	return a.clone(), true
}

// Has reports whether memberID is on the roster.
func (r *Roster) Has(memberID string) bool {
	_, ok := r.attendees[memberID]
	return ok
}

// Len is the number of attendees, guests excluded.
func (r *Roster) Len() int {
	return len(r.attendees)
}

// TotalCount is attendees plus all their guests, COMPLETE attendees included.
func (r *Roster) TotalCount() int {
	total := 0
	for _, a := range r.attendees {
		total += a.Count()
	}
	return total
}

// ArrivedMap returns the members currently checked in, including those who
// completed after checking in.
func (r *Roster) ArrivedMap() map[string]struct{} {
	arrived := make(map[string]struct{})
	for id, a := range r.attendees {
		if a.HasArrived() {
			arrived[id] = struct{}{}
		}
	}
	return arrived
}

// CountByStatus sums attendees and guests per status.
func (r *Roster) CountByStatus() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, a := range r.attendees {
		counts[a.Status] += a.Count()
	}
	return counts
}

// Attendees returns copies of all attendees in join order.
func (r *Roster) Attendees() []Attendee {
	out := make([]Attendee, 0, len(r.attendees))
	for _, a := range r.attendees {
		out = append(out, a.clone())
	}
	slices.SortFunc(out, func(a, b Attendee) int {
		return a.JoinOrder - b.JoinOrder
	})
	return out
}

// GroupCount sums attendees and guests assigned to groupID.
func (r *Roster) GroupCount(groupID string) int {
	total := 0
	for _, a := range r.attendees {
		if a.GroupID == groupID {
			total += a.Count()
		}
	}
	return total
}

func (r *Roster) groupMembers(groupID string) int {
	n := 0
	for _, a := range r.attendees {
		if a.GroupID == groupID {
			n++
		}
	}
	return n
}

func (r *Roster) setGroup(memberID, groupID string) (previous string, err error) {
	a, ok := r.attendees[memberID]
	if !ok {
		return "", domainerrors.AttendeeNotFoundf("member %s is not on the roster", memberID)
	}
	previous = a.GroupID
	a.GroupID = groupID
	return previous, nil
}

func (r *Roster) clone() *Roster {
	c := &Roster{
		attendees: make(map[string]*Attendee, len(r.attendees)),
		nextSeq:   r.nextSeq,
	}
	for id, a := range r.attendees {
		cp := a.clone()
		c.attendees[id] = &cp
	}
	return c
}

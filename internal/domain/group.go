package domain

import (
	"slices"
	"strings"
	"time"
)

// DefaultGroupID is the implicit group every attendee starts in.
const DefaultGroupID = ""

// MaxGroupLabelLength bounds free-text group labels.
const MaxGroupLabelLength = 100

// Group is a named partition of a raid's roster. Membership lives on the attendees.
type Group struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDefaultGroup reports whether id names the implicit default group.
func IsDefaultGroup(id string) bool {
	id = strings.TrimSpace(id)
	return id == DefaultGroupID || strings.EqualFold(id, "default")
}

// GroupSet holds a raid's explicit groups in creation order.
type GroupSet struct {
	groups []Group
}

// NewGroupSet creates an empty set.
func NewGroupSet() *GroupSet {
	return &GroupSet{}
}

// NextID returns the lowest label not in use: A..Z, then AA, AB, ...
func (s *GroupSet) NextID() string {
	for i := 0; ; i++ {
		id := groupLabel(i)
		if _, ok := s.index(id); !ok {
			return id
		}
	}
}

// Get looks a group up case-insensitively.
func (s *GroupSet) Get(id string) (Group, bool) {
	i, ok := s.index(id)
	if !ok {
		return Group{}, false
	}
	return s.groups[i], true
}

// List returns the groups in creation order.
func (s *GroupSet) List() []Group {
	return slices.Clone(s.groups)
}

// Len is the number of explicit groups.
func (s *GroupSet) Len() int {
	return len(s.groups)
}

func (s *GroupSet) add(g Group) {
	s.groups = append(s.groups, g)
}

func (s *GroupSet) remove(id string) {
	if i, ok := s.index(id); ok {
		s.groups = slices.Delete(s.groups, i, i+1)
	}
}

func (s *GroupSet) setLabel(id, label string) bool {
	i, ok := s.index(id)
	if !ok {
		return false
	}
	s.groups[i].Label = label
	return true
}

func (s *GroupSet) index(id string) (int, bool) {
	id = strings.TrimSpace(id)
	for i, g := range s.groups {
		if strings.EqualFold(g.ID, id) {
			return i, true
		}
	}
	return 0, false
}

func (s *GroupSet) clone() *GroupSet {
	return &GroupSet{groups: slices.Clone(s.groups)}
}

// groupLabel maps 0 -> "A", 25 -> "Z", 26 -> "AA" (bijective base 26).
func groupLabel(i int) string {
	var b []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}
	slices.Reverse(b)
	return string(b)
}

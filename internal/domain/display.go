package domain

import (
	"strconv"
	"time"
)

// UnsetTimeSentinel stands in for a time that was never set.
const UnsetTimeSentinel = "????"

// DefaultTimeLayout renders raid times for chat, e.g. "2:20 PM".
const DefaultTimeLayout = "3:04 PM"

// Badge is the render category of an attendee's status.
type Badge string

const (
	BadgeInterested Badge = "interested"
	BadgeJoined     Badge = "joined"
	BadgeArrived    Badge = "arrived"
	BadgeDone       Badge = "done"
)

// DisplayOptions controls how times and icons are rendered.
type DisplayOptions struct {
	Location   *time.Location
	TimeLayout string
	// IconRoles maps a role ID to an icon hint. The first of a member's roles with
	// an entry wins.
	IconRoles map[string]string
}

// Display is the render data for one raid. It carries no markup.
type Display struct {
	RaidID            string         `json:"raid_id"`
	ChannelID         string         `json:"channel_id"`
	SubjectName       string         `json:"subject_name,omitempty"`
	Tier              *int           `json:"tier,omitempty"`
	IsEgg             bool           `json:"is_egg"`
	Location          *Gym           `json:"location,omitempty"`
	HatchTime         string         `json:"hatch_time"`
	StartTime         string         `json:"start_time"`
	EndTime           string         `json:"end_time"`
	EndTimeInvalid    bool           `json:"end_time_invalid,omitempty"`
	TotalCount        int            `json:"total_count"`
	StatusCounts      map[Status]int `json:"status_counts"`
	Attendees         []AttendeeHint `json:"attendees"`
	Groups            []GroupHint    `json:"groups"`
	DisplayMessageRef string         `json:"display_message_ref,omitempty"`
}

// AttendeeHint tells the renderer how to draw one roster line.
type AttendeeHint struct {
	MemberID         string `json:"member_id"`
	DisplayName      string `json:"display_name"`
	Status           Status `json:"status"`
	Badge            Badge  `json:"badge"`
	AdditionalSuffix string `json:"additional_suffix,omitempty"`
	IconHint         string `json:"icon_hint,omitempty"`
	GroupID          string `json:"group_id,omitempty"`
}

// GroupHint is one group line with its head count.
type GroupHint struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// Display assembles render data for the raid.
func (r *Raid) Display(opts DisplayOptions) Display {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultTimeLayout
	}

	d := Display{
		RaidID:            r.ID,
		ChannelID:         r.ChannelID,
		SubjectName:       r.Subject.Name,
		IsEgg:             r.Subject.IsEgg(),
		HatchTime:         formatTime(r.HatchTime, opts),
		StartTime:         formatTime(r.StartTime, opts),
		EndTime:           UnsetTimeSentinel,
		TotalCount:        r.Roster.TotalCount(),
		StatusCounts:      r.Roster.CountByStatus(),
		DisplayMessageRef: r.DisplayMessageRef,
	}
	if r.Subject.Tier != nil {
		tier := *r.Subject.Tier
		d.Tier = &tier
	}
	if r.Location != nil {
		loc := *r.Location
		d.Location = &loc
	}
	if r.EndTime != nil {
		d.EndTimeInvalid = r.EndTime.Invalid
		if !r.EndTime.Invalid {
			d.EndTime = formatTime(&r.EndTime.At, opts)
		}
	}

	attendees := r.Roster.Attendees()
	d.Attendees = make([]AttendeeHint, 0, len(attendees))
	for _, a := range attendees {
		d.Attendees = append(d.Attendees, attendeeHint(a, opts.IconRoles))
	}

	groups := r.Groups.List()
	d.Groups = make([]GroupHint, 0, len(groups))
	for _, g := range groups {
		d.Groups = append(d.Groups, GroupHint{
			ID:    g.ID,
			Label: g.Label,
			Count: r.Roster.GroupCount(g.ID),
		})
	}
	return d
}

func attendeeHint(a Attendee, iconRoles map[string]string) AttendeeHint {
	h := AttendeeHint{
		MemberID:    a.Member.ID,
		DisplayName: a.Member.Name(),
		Status:      a.Status,
		Badge:       badgeFor(a),
		GroupID:     a.GroupID,
	}
	if a.AdditionalCount > 0 {
		h.AdditionalSuffix = "+" + strconv.Itoa(a.AdditionalCount)
	}
	for _, role := range a.Member.RoleIDs {
		if icon, ok := iconRoles[role]; ok {
			h.IconHint = icon
			break
		}
	}
	return h
}

func badgeFor(a Attendee) Badge {
	switch a.Status {
	case StatusInterested:
		return BadgeInterested
	case StatusArrived:
		return BadgeArrived
	case StatusComplete:
		return BadgeDone
	default:
		return BadgeJoined
	}
}

func formatTime(t *time.Time, opts DisplayOptions) string {
	if t == nil {
		return UnsetTimeSentinel
	}
	return t.In(opts.Location).Format(opts.TimeLayout)
}

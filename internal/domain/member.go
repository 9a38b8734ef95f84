package domain

import "slices"

// Member is a chat-platform member as handed to the core by the command layer.
// The core keeps its own copy and never calls back into the platform.
type Member struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	RoleIDs     []string `json:"role_ids,omitempty"`
}

// Name returns the display name, falling back to the ID.
func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}

func (m Member) clone() Member {
	m.RoleIDs = slices.Clone(m.RoleIDs)
	return m
}

// Gym is a real-world place a raid happens at. Opaque to the core beyond storage.
type Gym struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Subject is what a raid targets. A subject without a name is an unhatched egg.
type Subject struct {
	Name string `json:"name,omitempty"`
	Tier *int   `json:"tier,omitempty"`
}

// IsEgg returns true until the raid boss is known.
func (s Subject) IsEgg() bool {
	return s.Name == ""
}

func (s Subject) clone() Subject {
	if s.Tier != nil {
		tier := *s.Tier
		s.Tier = &tier
	}
	return s
}

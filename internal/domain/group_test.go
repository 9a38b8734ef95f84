package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupLabel(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, groupLabel(tt.in))
		})
	}
}

func TestGroupSet_NextID_FillsGaps(t *testing.T) {
	s := NewGroupSet()
	for range 3 {
		s.add(Group{ID: s.NextID()})
	}
	assert.Equal(t, "D", s.NextID())

	s.remove("b")
	assert.Equal(t, "B", s.NextID())
	assert.Equal(t, 2, s.Len())
}

func TestIsDefaultGroup(t *testing.T) {
	assert.True(t, IsDefaultGroup(""))
	assert.True(t, IsDefaultGroup(" Default "))
	assert.False(t, IsDefaultGroup("A"))
}

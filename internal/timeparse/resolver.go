// Package timeparse turns free-form time expressions typed into chat into absolute timestamps.
//
// Three input shapes are recognised, tried in order:
//
//  1. clock time with meridiem ("2:20pm", "2 PM", "11:05 a.m.")
//  2. clock time without meridiem ("1:20", "13:45")
//  3. relative duration ("45", "1 h 20 m", "20 minutes", "-5")
//
// Each shape is a pure function of the input and the current time.
package timeparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/raidboard/raidboard-server/internal/clock"
	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

// DefaultAmbiguityWindow bounds how far ahead an ambiguous clock time may resolve.
const DefaultAmbiguityWindow = 3 * time.Hour

// Kind tells whether a result came from a clock time or a duration.
type Kind int

const (
	// KindAbsolute is a wall clock time, with or without meridiem.
	KindAbsolute Kind = iota
	// KindRelative is an offset from now.
	KindRelative
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsolute:
		return "absolute"
	case KindRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// Result is a resolved time expression.
type Result struct {
	At    time.Time
	Kind  Kind
	Input string
}

// Options configures a Resolver.
type Options struct {
	Clock           clock.Clock    // Time source (wall clock if nil)
	Location        *time.Location // Zone clock times are read in (UTC if nil)
	AmbiguityWindow time.Duration  // Look-ahead for meridiem-less times (DefaultAmbiguityWindow if zero)
}

// Resolver resolves time expressions against an injected clock.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	clock  clock.Clock
	loc    *time.Location
	window time.Duration
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		clock:  opts.Clock,
		loc:    opts.Location,
		window: opts.AmbiguityWindow,
	}
	if r.clock == nil {
		r.clock = clock.System{}
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.window <= 0 {
		r.window = DefaultAmbiguityWindow
	}
	return r
}

// Location returns the zone clock times are interpreted in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the current time in the resolver's zone.
func (r *Resolver) Now() time.Time {
	return r.clock.Now().In(r.loc)
}

// rule tries to interpret input. matched is false when the input has a different shape.
type rule func(input string, now time.Time, window time.Duration) (res Result, matched bool, err error)

// grammar is the ordered list of shapes; the first match wins.
var grammar = []rule{
	resolveMeridiem,
	resolveBareClock,
	resolveDuration,
}

var whitespace = regexp.MustCompile(`\s+`)

// Resolve parses input relative to the current time.
//
// Errors: MalformedTimeInput when no shape matches, PastTime when a clock time has
// already passed today, AmbiguousOrTooFar when a meridiem-less time cannot be pinned
// inside the ambiguity window.
func (r *Resolver) Resolve(input string) (Result, error) {
	return r.ResolveAt(input, r.Now())
}

// ResolveAt parses input relative to now.
func (r *Resolver) ResolveAt(input string, now time.Time) (Result, error) {
	normalized := normalize(input)
	if normalized == "" {
		return Result{}, domainerrors.New(domainerrors.CodeMalformedTimeInput, "empty time input")
	}

	now = now.In(r.loc)
	for _, try := range grammar {
		res, matched, err := try(normalized, now, r.window)
		if !matched {
			continue
		}
		if err != nil {
			return Result{}, err
		}
		res.Input = input
		return res, nil
	}

	return Result{}, domainerrors.Newf(domainerrors.CodeMalformedTimeInput, "unrecognised time %q", input)
}

func normalize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, "in ")
	return whitespace.ReplaceAllString(s, " ")
}

package timeparse

import (
	"regexp"
	"strconv"
	"time"

	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

var (
	meridiemPattern  = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))? ?([ap])\.? ?m?\.?$`)
	bareClockPattern = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
	durationPattern  = regexp.MustCompile(`^([+-])? ?(?:(\d{1,3}) ?(?:hours|hour|hrs|hr|h))? ?(?:(\d{1,4}) ?(?:minutes|minute|mins|min|m)?)?$`)
)

// resolveMeridiem handles "2:20pm". The result must be strictly after now.
func resolveMeridiem(input string, now time.Time, _ time.Duration) (Result, bool, error) {
	m := meridiemPattern.FindStringSubmatch(input)
	if m == nil {
		return Result{}, false, nil
	}

	hour, minute, err := clockFields(m[1], m[2])
	if err != nil {
		return Result{}, true, err
	}
	if hour < 1 || hour > 12 {
		return Result{}, true, domainerrors.Newf(domainerrors.CodeMalformedTimeInput, "hour %d out of range for %q", hour, input)
	}

	hour %= 12
	if m[3] == "p" {
		hour += 12
	}

	at := onDay(now, 0, hour, minute)
	if !at.After(now) {
		return Result{}, true, domainerrors.Newf(domainerrors.CodePastTime, "%s has already passed", at.Format(time.Kitchen))
	}
	return Result{At: at, Kind: KindAbsolute}, true, nil
}

// resolveBareClock handles "1:20" and "13:45".
//
// Hours 0 and 13-23 read as a 24-hour clock and must be in the future. Hours 1-12 are
// ambiguous: when exactly one of today's AM/PM readings is still ahead it wins; when
// both are ahead the one inside the window wins; when neither is, the next morning's
// reading is used if it falls inside the window.
func resolveBareClock(input string, now time.Time, window time.Duration) (Result, bool, error) {
	m := bareClockPattern.FindStringSubmatch(input)
	if m == nil {
		return Result{}, false, nil
	}

	hour, minute, err := clockFields(m[1], m[2])
	if err != nil {
		return Result{}, true, err
	}
	if hour > 23 {
		return Result{}, true, domainerrors.Newf(domainerrors.CodeMalformedTimeInput, "hour %d out of range for %q", hour, input)
	}

	if hour == 0 || hour > 12 {
		at := onDay(now, 0, hour, minute)
		if !at.After(now) {
			return Result{}, true, domainerrors.Newf(domainerrors.CodePastTime, "%s has already passed", at.Format("15:04"))
		}
		return Result{At: at, Kind: KindAbsolute}, true, nil
	}

	am := onDay(now, 0, hour%12, minute)
	pm := onDay(now, 0, hour%12+12, minute)
	limit := now.Add(window)

	var at time.Time
	switch amAhead, pmAhead := am.After(now), pm.After(now); {
	case amAhead && pmAhead:
		// am is the earlier of the two; pm can only be in the window if am is too.
		if am.After(limit) {
			return Result{}, true, ambiguous(input, window)
		}
		at = am
	case amAhead:
		at = am
	case pmAhead:
		at = pm
	default:
		next := onDay(now, 1, hour%12, minute)
		if next.After(limit) {
			return Result{}, true, ambiguous(input, window)
		}
		at = next
	}

	return Result{At: at, Kind: KindAbsolute}, true, nil
}

// resolveDuration handles "45", "1 h 20 m", "20 minutes" and signed offsets such as "-5".
// A bare number is minutes.
func resolveDuration(input string, now time.Time, _ time.Duration) (Result, bool, error) {
	m := durationPattern.FindStringSubmatch(input)
	if m == nil || (m[2] == "" && m[3] == "") {
		return Result{}, false, nil
	}

	var d time.Duration
	if m[2] != "" {
		hours, err := strconv.Atoi(m[2])
		if err != nil {
			return Result{}, true, domainerrors.ErrMalformedTimeInput.WithCause(err)
		}
		d += time.Duration(hours) * time.Hour
	}
	if m[3] != "" {
		minutes, err := strconv.Atoi(m[3])
		if err != nil {
			return Result{}, true, domainerrors.ErrMalformedTimeInput.WithCause(err)
		}
		d += time.Duration(minutes) * time.Minute
	}
	if m[1] == "-" {
		d = -d
	}

	return Result{At: now.Add(d), Kind: KindRelative}, true, nil
}

func clockFields(hourText, minuteText string) (hour, minute int, err error) {
	hour, err = strconv.Atoi(hourText)
	if err != nil {
		return 0, 0, domainerrors.ErrMalformedTimeInput.WithCause(err)
	}
	if minuteText != "" {
		minute, err = strconv.Atoi(minuteText)
		if err != nil {
			return 0, 0, domainerrors.ErrMalformedTimeInput.WithCause(err)
		}
	}
	if minute > 59 {
		return 0, 0, domainerrors.Newf(domainerrors.CodeMalformedTimeInput, "minute %d out of range", minute)
	}
	return hour, minute, nil
}

// onDay returns hour:minute on now's calendar day plus dayOffset, in now's zone.
func onDay(now time.Time, dayOffset, hour, minute int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+dayOffset, hour, minute, 0, 0, now.Location())
}

func ambiguous(input string, window time.Duration) error {
	return domainerrors.Newf(domainerrors.CodeAmbiguousOrTooFar, "%q is not within %s", input, window)
}

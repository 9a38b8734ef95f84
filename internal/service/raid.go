package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/raidboard/raidboard-server/internal/clock"
	"github.com/raidboard/raidboard-server/internal/domain"
	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
	"github.com/raidboard/raidboard-server/internal/id"
	"github.com/raidboard/raidboard-server/internal/sse"
	"github.com/raidboard/raidboard-server/internal/timeparse"
)

// CurrentRaid is the raid identifier that resolves to the caller's last touched raid.
const CurrentRaid = "current"

// DefaultRaidDuration is how long a raid lasts after hatching.
const DefaultRaidDuration = 45 * time.Minute

const tracerName = "github.com/raidboard/raidboard-server/internal/service"

// EventEmitter receives raid notifications. sse.Manager implements it.
type EventEmitter interface {
	Emit(event sse.Event)
}

// NoopEmitter drops every event.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(sse.Event) {}

// GymLookup resolves a gym id or a free-text query to a gym.
type GymLookup interface {
	Lookup(ref string) (domain.Gym, error)
}

// RaidConfig tunes RaidService.
type RaidConfig struct {
	// Duration is the hatch-to-end length used when only a hatch time is known.
	Duration time.Duration
	Display  domain.DisplayOptions
}

// Resolution is the outcome of RaidService.Resolve.
type Resolution struct {
	Raid      *domain.Raid
	Unmatched []string
}

// raidEntry guards one live raid. deleted is set under mu before the entry is
// unlinked, so holders of a stale pointer see RaidNotFound.
type raidEntry struct {
	mu        sync.Mutex
	raid      *domain.Raid
	channelID string
	key       string
	deleted   bool
}

type raidRef struct {
	channelID string
	key       string
}

// RaidService is the registry of live raids, keyed by channel and then by
// case-folded raid id. It also tracks each user's last touched raid.
//
// Lock order is registry then entry. Mutations hold only the entry lock, so
// raids in different channels (and different raids in one channel) never
// serialize on each other.
type RaidService struct {
	mu          sync.RWMutex
	channels    map[string]map[string]*raidEntry
	lastTouched map[string]raidRef

	seq      id.Sequence
	clock    clock.Clock
	resolver *timeparse.Resolver
	gyms     GymLookup
	emitter  EventEmitter
	cfg      RaidConfig
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRaidService creates an empty registry. gyms may be nil, in which case
// SetLocationRef is unavailable.
func NewRaidService(clk clock.Clock, resolver *timeparse.Resolver, gyms GymLookup, emitter EventEmitter, cfg RaidConfig, logger *slog.Logger) *RaidService {
	if clk == nil {
		clk = clock.System{}
	}
	if resolver == nil {
		resolver = timeparse.New(timeparse.Options{Clock: clk})
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultRaidDuration
	}
	if cfg.Display.Location == nil {
		cfg.Display.Location = resolver.Location()
	}
	return &RaidService{
		channels:    make(map[string]map[string]*raidEntry),
		lastTouched: make(map[string]raidRef),
		clock:       clk,
		resolver:    resolver,
		gyms:        gyms,
		emitter:     emitter,
		cfg:         cfg,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// Create opens a raid in channelID with creator as its first JOINED attendee and
// makes it the creator's current raid.
func (s *RaidService) Create(ctx context.Context, channelID string, creator domain.Member, subject domain.Subject) (*domain.Raid, error) {
	_, span := s.startSpan(ctx, "Create", channelID, "", creator.ID)
	defer span.End()

	if channelID == "" {
		return nil, s.fail(span, domainerrors.Validation("channel id is required"))
	}

	raidID := id.Counted(raidSlug(subject), s.seq.Next())
	raid, err := domain.NewRaid(raidID, channelID, creator, subject, s.clock.Now())
	if err != nil {
		return nil, s.fail(span, err)
	}

	entry := &raidEntry{
		raid:      raid,
		channelID: channelID,
		key:       domain.FoldKey(raidID),
	}

	s.mu.Lock()
	raids, ok := s.channels[channelID]
	if !ok {
		raids = make(map[string]*raidEntry)
		s.channels[channelID] = raids
	}
	if _, exists := raids[entry.key]; exists {
		s.mu.Unlock()
		s.logger.Error("raid id collision", "channel_id", channelID, "raid_id", raidID)
		return nil, s.fail(span, domainerrors.Internalf("raid id %s already registered", raidID))
	}
	raids[entry.key] = entry
	s.lastTouched[creator.ID] = raidRef{channelID: channelID, key: entry.key}
	snapshot := raid.Clone()
	s.mu.Unlock()

	span.SetAttributes(attribute.String("raid.id", raidID))
	s.logger.Info("raid created",
		"channel_id", channelID,
		"raid_id", raidID,
		"user_id", creator.ID,
		"subject", subject.Name)
	s.emitter.Emit(sse.NewRaidCreatedEvent(s.display(snapshot), creator.ID, snapshot.CreatedAt))
	return snapshot, nil
}

// Get returns a snapshot of a raid. An empty raidID or "current" resolves to
// userID's last touched raid. Lookup ignores case.
func (s *RaidService) Get(ctx context.Context, channelID, raidID, userID string) (*domain.Raid, error) {
	_, span := s.startSpan(ctx, "Get", channelID, raidID, userID)
	defer span.End()

	entry, err := s.lookup(channelID, raidID, userID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	snapshot, err := entry.snapshot()
	if err != nil {
		return nil, s.fail(span, err)
	}
	return snapshot, nil
}

// Resolve picks the first token naming a raid in channelID and returns the rest
// as unmatched, in order. With no matching token it falls back to userID's
// current raid and returns every token as unmatched.
func (s *RaidService) Resolve(ctx context.Context, channelID, userID string, tokens []string) (*Resolution, error) {
	_, span := s.startSpan(ctx, "Resolve", channelID, "", userID)
	defer span.End()

	s.mu.RLock()
	raids := s.channels[channelID]
	var (
		entry *raidEntry
		match = -1
	)
	for i, token := range tokens {
		if e, ok := raids[domain.FoldKey(token)]; ok {
			entry, match = e, i
			break
		}
	}
	s.mu.RUnlock()

	if entry == nil {
		var err error
		entry, err = s.lookup(channelID, CurrentRaid, userID)
		if err != nil {
			return nil, s.fail(span, domainerrors.RaidNotFoundf("no raid found for given input in channel %s", channelID))
		}
	}

	snapshot, err := entry.snapshot()
	if err != nil {
		return nil, s.fail(span, err)
	}

	unmatched := make([]string, 0, len(tokens))
	for i, token := range tokens {
		if i != match {
			unmatched = append(unmatched, token)
		}
	}
	return &Resolution{Raid: snapshot, Unmatched: unmatched}, nil
}

// List returns every live raid of channelID, oldest first.
func (s *RaidService) List(ctx context.Context, channelID string) ([]*domain.Raid, error) {
	_, span := s.startSpan(ctx, "List", channelID, "", "")
	defer span.End()

	s.mu.RLock()
	entries := make([]*raidEntry, 0, len(s.channels[channelID]))
	for _, e := range s.channels[channelID] {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	raids := make([]*domain.Raid, 0, len(entries))
	for _, e := range entries {
		if snapshot, err := e.snapshot(); err == nil {
			raids = append(raids, snapshot)
		}
	}
	slices.SortFunc(raids, func(a, b *domain.Raid) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return raids, nil
}

// Delete removes a raid and clears every current-raid pointer to it.
func (s *RaidService) Delete(ctx context.Context, channelID, raidID, userID string) error {
	_, span := s.startSpan(ctx, "Delete", channelID, raidID, userID)
	defer span.End()

	entry, err := s.lookup(channelID, raidID, userID)
	if err != nil {
		return s.fail(span, err)
	}
	if !s.remove(entry, func(*domain.Raid) bool { return true }) {
		return s.fail(span, domainerrors.RaidNotFoundf("raid %s not found in channel %s", raidID, channelID))
	}

	s.logger.Info("raid deleted",
		"channel_id", channelID,
		"raid_id", entry.raid.ID,
		"user_id", userID)
	s.emitter.Emit(sse.NewRaidRemovedEvent(channelID, entry.raid.ID, domain.EvictionDeleted, s.clock.Now()))
	return nil
}

// Touch makes raidID userID's current raid.
func (s *RaidService) Touch(channelID, raidID, userID string) error {
	if userID == "" {
		return domainerrors.Validation("user id is required")
	}

	key := domain.FoldKey(raidID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[channelID][key]; !ok {
		return domainerrors.RaidNotFoundf("raid %s not found in channel %s", raidID, channelID)
	}
	s.lastTouched[userID] = raidRef{channelID: channelID, key: key}
	return nil
}

// Join adds member as JOINED with additional guests.
func (s *RaidService) Join(ctx context.Context, channelID, raidID string, member domain.Member, additional int) (*domain.Raid, error) {
	return s.join(ctx, "Join", channelID, raidID, member, additional, domain.StatusJoined)
}

// Interested adds member as INTERESTED with additional guests.
func (s *RaidService) Interested(ctx context.Context, channelID, raidID string, member domain.Member, additional int) (*domain.Raid, error) {
	return s.join(ctx, "Interested", channelID, raidID, member, additional, domain.StatusInterested)
}

func (s *RaidService) join(ctx context.Context, op, channelID, raidID string, member domain.Member, additional int, status domain.Status) (*domain.Raid, error) {
	return s.mutate(ctx, op, channelID, raidID, member.ID, func(r *domain.Raid, now time.Time) error {
		_, err := r.Join(member, additional, status, now)
		return err
	})
}

// Leave removes memberID from the roster, along with arrival and group state.
func (s *RaidService) Leave(ctx context.Context, channelID, raidID, memberID string) (*domain.Raid, error) {
	return s.mutate(ctx, "Leave", channelID, raidID, memberID, func(r *domain.Raid, _ time.Time) error {
		_, err := r.Leave(memberID)
		return err
	})
}

// SetStatus moves memberID to status.
func (s *RaidService) SetStatus(ctx context.Context, channelID, raidID, memberID string, status domain.Status) (*domain.Raid, error) {
	return s.mutate(ctx, "SetStatus", channelID, raidID, memberID, func(r *domain.Raid, now time.Time) error {
		_, err := r.SetStatus(memberID, status, now)
		return err
	})
}

// SetAdditional changes how many guests memberID brings.
func (s *RaidService) SetAdditional(ctx context.Context, channelID, raidID, memberID string, additional int) (*domain.Raid, error) {
	return s.mutate(ctx, "SetAdditional", channelID, raidID, memberID, func(r *domain.Raid, _ time.Time) error {
		_, err := r.SetAdditional(memberID, additional)
		return err
	})
}

// SetHatchTime resolves input and stores it as the hatch time. A raid without
// an end time gets one at hatch plus the configured raid duration.
func (s *RaidService) SetHatchTime(ctx context.Context, channelID, raidID, userID, input string) (*domain.Raid, error) {
	return s.mutate(ctx, "SetHatchTime", channelID, raidID, userID, func(r *domain.Raid, now time.Time) error {
		res, err := s.resolver.ResolveAt(input, now)
		if err != nil {
			return err
		}
		return r.SetHatchTime(res.At, s.cfg.Duration)
	})
}

// SetStartTime resolves input and stores it as the meeting time.
func (s *RaidService) SetStartTime(ctx context.Context, channelID, raidID, userID, input string) (*domain.Raid, error) {
	return s.mutate(ctx, "SetStartTime", channelID, raidID, userID, func(r *domain.Raid, now time.Time) error {
		res, err := s.resolver.ResolveAt(input, now)
		if err != nil {
			return err
		}
		return r.SetStartTime(res.At)
	})
}

// SetEndTime resolves input and stores it as the end time. Unlike the other
// times, a negative relative input is accepted; an end at or before creation
// leaves the raid invalid and the next sweep evicts it.
func (s *RaidService) SetEndTime(ctx context.Context, channelID, raidID, userID, input string) (*domain.Raid, error) {
	return s.mutate(ctx, "SetEndTime", channelID, raidID, userID, func(r *domain.Raid, now time.Time) error {
		res, err := s.resolver.ResolveAt(input, now)
		if err != nil {
			return err
		}
		return r.SetEndTime(res.At, res.Input)
	})
}

// ReportEndTime stores an end time reported by an automated source. Input that
// cannot be resolved or ordered still lands on the raid, marked invalid.
func (s *RaidService) ReportEndTime(ctx context.Context, channelID, raidID, userID, raw string) (*domain.Raid, error) {
	return s.mutate(ctx, "ReportEndTime", channelID, raidID, userID, func(r *domain.Raid, now time.Time) error {
		res, err := s.resolver.ResolveAt(raw, now)
		if err == nil {
			err = r.SetEndTime(res.At, res.Input)
		}
		if err != nil {
			s.logger.Warn("reported end time is unusable",
				"channel_id", channelID,
				"raid_id", r.ID,
				"raw", raw,
				"error", err)
			r.MarkEndTimeInvalid(raw)
			return nil
		}
		s.logger.Info("reported end time accepted",
			"channel_id", channelID,
			"raid_id", r.ID,
			"raw", res.Input,
			"kind", res.Kind.String(),
			"end_time", res.At)
		return nil
	})
}

// SetLocation stores gym as the raid's location.
func (s *RaidService) SetLocation(ctx context.Context, channelID, raidID, userID string, gym domain.Gym) (*domain.Raid, error) {
	snapshot, err := s.mutateQuiet(ctx, "SetLocation", channelID, raidID, userID, func(r *domain.Raid, _ time.Time) error {
		r.SetLocation(gym)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(sse.NewRaidLocationSetEvent(s.display(snapshot), gym, userID, s.clock.Now()))
	return snapshot, nil
}

// SetLocationRef looks ref up in the gym directory, as an id first and then as a
// name query, and stores the best match.
func (s *RaidService) SetLocationRef(ctx context.Context, channelID, raidID, userID, ref string) (*domain.Raid, error) {
	if s.gyms == nil {
		return nil, domainerrors.Newf(domainerrors.CodeGymNotFound, "no gym directory configured")
	}
	gym, err := s.gyms.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return s.SetLocation(ctx, channelID, raidID, userID, gym)
}

// SetSubject replaces the raid boss. The emitted event says whether the raid
// was an egg until now.
func (s *RaidService) SetSubject(ctx context.Context, channelID, raidID, userID string, subject domain.Subject) (*domain.Raid, error) {
	var wasEgg bool
	snapshot, err := s.mutateQuiet(ctx, "SetSubject", channelID, raidID, userID, func(r *domain.Raid, _ time.Time) error {
		if subject.Name == "" && subject.Tier == nil {
			return domainerrors.Validation("subject needs a name or a tier")
		}
		wasEgg = r.SetSubject(subject)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(sse.NewRaidSubjectSetEvent(s.display(snapshot), userID, wasEgg, s.clock.Now()))
	return snapshot, nil
}

// CreateGroup opens a new group and moves memberID into it.
func (s *RaidService) CreateGroup(ctx context.Context, channelID, raidID, memberID string) (*domain.Raid, domain.Group, error) {
	var group domain.Group
	snapshot, err := s.mutate(ctx, "CreateGroup", channelID, raidID, memberID, func(r *domain.Raid, now time.Time) error {
		g, err := r.CreateGroup(memberID, now)
		group = g
		return err
	})
	if err != nil {
		return nil, domain.Group{}, err
	}
	return snapshot, group, nil
}

// AssignGroup moves memberID into groupID, or back to the default group.
func (s *RaidService) AssignGroup(ctx context.Context, channelID, raidID, memberID, groupID string) (*domain.Raid, error) {
	return s.mutate(ctx, "AssignGroup", channelID, raidID, memberID, func(r *domain.Raid, _ time.Time) error {
		_, err := r.AssignGroup(memberID, groupID)
		return err
	})
}

// SetGroupLabel labels an explicit group.
func (s *RaidService) SetGroupLabel(ctx context.Context, channelID, raidID, userID, groupID, label string) (*domain.Raid, error) {
	return s.mutate(ctx, "SetGroupLabel", channelID, raidID, userID, func(r *domain.Raid, _ time.Time) error {
		_, err := r.SetGroupLabel(groupID, label)
		return err
	})
}

// TotalAttendees is the raid's head count including guests.
func (s *RaidService) TotalAttendees(ctx context.Context, channelID, raidID, userID string) (int, error) {
	raid, err := s.Get(ctx, channelID, raidID, userID)
	if err != nil {
		return 0, err
	}
	return raid.TotalCount(), nil
}

// SetDisplayMessage records the handle of the message currently rendering the raid.
func (s *RaidService) SetDisplayMessage(ctx context.Context, channelID, raidID, ref string) (*domain.Raid, error) {
	return s.mutateQuiet(ctx, "SetDisplayMessage", channelID, raidID, "", func(r *domain.Raid, _ time.Time) error {
		r.DisplayMessageRef = ref
		return nil
	})
}

// Display returns render data for a raid.
func (s *RaidService) Display(ctx context.Context, channelID, raidID, userID string) (domain.Display, error) {
	raid, err := s.Get(ctx, channelID, raidID, userID)
	if err != nil {
		return domain.Display{}, err
	}
	return s.display(raid), nil
}

// Evict removes every raid whose end time has passed or is invalid at now and
// reports how many went for each reason.
func (s *RaidService) Evict(ctx context.Context, now time.Time) map[domain.EvictionReason]int {
	_, span := s.tracer.Start(ctx, "RaidService.Evict")
	defer span.End()

	s.mu.RLock()
	var entries []*raidEntry
	for _, raids := range s.channels {
		for _, e := range raids {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	counts := make(map[domain.EvictionReason]int)
	for _, e := range entries {
		var reason domain.EvictionReason
		removed := s.remove(e, func(r *domain.Raid) bool {
			reason = r.Eviction(now)
			return reason != domain.EvictionNone
		})
		if !removed {
			continue
		}
		counts[reason]++
		s.logger.Debug("raid evicted",
			"channel_id", e.channelID,
			"raid_id", e.raid.ID,
			"reason", string(reason))
		s.emitter.Emit(sse.NewRaidRemovedEvent(e.channelID, e.raid.ID, reason, now))
	}

	span.SetAttributes(
		attribute.Int("raid.evicted.expired", counts[domain.EvictionExpired]),
		attribute.Int("raid.evicted.invalid", counts[domain.EvictionInvalid]))
	return counts
}

// Len is the number of live raids across all channels.
func (s *RaidService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, raids := range s.channels {
		n += len(raids)
	}
	return n
}

// mutate applies fn under the raid's lock, touches the raid for userID and
// emits raid.updated.
func (s *RaidService) mutate(ctx context.Context, op, channelID, raidID, userID string, fn func(*domain.Raid, time.Time) error) (*domain.Raid, error) {
	snapshot, err := s.mutateQuiet(ctx, op, channelID, raidID, userID, fn)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(sse.NewRaidUpdatedEvent(s.display(snapshot), s.clock.Now()))
	return snapshot, nil
}

// mutateQuiet is mutate without the event. fn must leave the raid unchanged
// when it returns an error.
func (s *RaidService) mutateQuiet(ctx context.Context, op, channelID, raidID, userID string, fn func(*domain.Raid, time.Time) error) (*domain.Raid, error) {
	_, span := s.startSpan(ctx, op, channelID, raidID, userID)
	defer span.End()

	entry, err := s.lookup(channelID, raidID, userID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	entry.mu.Lock()
	if entry.deleted {
		entry.mu.Unlock()
		return nil, s.fail(span, domainerrors.RaidNotFoundf("raid %s not found in channel %s", raidID, channelID))
	}
	if err := fn(entry.raid, s.clock.Now()); err != nil {
		entry.mu.Unlock()
		return nil, s.fail(span, err)
	}
	snapshot := entry.raid.Clone()
	entry.mu.Unlock()

	if userID != "" {
		s.touchEntry(entry, userID)
	}

	s.logger.Debug("raid updated",
		"op", op,
		"channel_id", channelID,
		"raid_id", snapshot.ID,
		"user_id", userID)
	return snapshot, nil
}

// lookup finds the live entry for raidID, resolving "current" through userID's
// last touched raid. A dangling current pointer is cleared on the way out.
func (s *RaidService) lookup(channelID, raidID, userID string) (*raidEntry, error) {
	key := domain.FoldKey(raidID)
	viaCurrent := key == "" || key == CurrentRaid

	s.mu.RLock()
	var ref raidRef
	if viaCurrent {
		var ok bool
		ref, ok = s.lastTouched[userID]
		if !ok || ref.channelID != channelID {
			s.mu.RUnlock()
			return nil, domainerrors.RaidNotFoundf("no current raid for user %s in channel %s", userID, channelID)
		}
		key = ref.key
	}
	entry, ok := s.channels[channelID][key]
	s.mu.RUnlock()

	if ok {
		return entry, nil
	}
	if viaCurrent {
		s.forget(userID, ref)
	}
	return nil, domainerrors.RaidNotFoundf("raid %s not found in channel %s", raidID, channelID)
}

func (s *RaidService) touchEntry(entry *raidEntry, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The raid may have gone while the caller held only the entry lock.
	if s.channels[entry.channelID][entry.key] != entry {
		return
	}
	s.lastTouched[userID] = raidRef{channelID: entry.channelID, key: entry.key}
}

func (s *RaidService) forget(userID string, ref raidRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastTouched[userID] == ref {
		delete(s.lastTouched, userID)
	}
}

// remove unlinks entry when should approves, holding the registry lock and then
// the entry lock. It reports whether this call removed the raid.
func (s *RaidService) remove(entry *raidEntry, should func(*domain.Raid) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.mu.Lock()
	if entry.deleted || !should(entry.raid) {
		entry.mu.Unlock()
		return false
	}
	entry.deleted = true
	entry.mu.Unlock()

	raids := s.channels[entry.channelID]
	if raids[entry.key] != entry {
		s.logger.Error("registry index out of sync",
			"channel_id", entry.channelID,
			"raid_id", entry.raid.ID)
		return false
	}
	delete(raids, entry.key)
	if len(raids) == 0 {
		delete(s.channels, entry.channelID)
	}

	ref := raidRef{channelID: entry.channelID, key: entry.key}
	for userID, touched := range s.lastTouched {
		if touched == ref {
			delete(s.lastTouched, userID)
		}
	}
	return true
}

func (e *raidEntry) snapshot() (*domain.Raid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, domainerrors.RaidNotFoundf("raid %s not found in channel %s", e.raid.ID, e.channelID)
	}
	return e.raid.Clone(), nil
}

func (s *RaidService) display(r *domain.Raid) domain.Display {
	return r.Display(s.cfg.Display)
}

func (s *RaidService) startSpan(ctx context.Context, op, channelID, raidID, userID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "RaidService."+op, trace.WithAttributes(
		attribute.String("channel.id", channelID),
		attribute.String("raid.id", raidID),
		attribute.String("user.id", userID),
	))
}

func (s *RaidService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(domainerrors.CodeOf(err)))
	if domainerrors.CodeOf(err) == domainerrors.CodeInternal {
		s.logger.Error("raid registry invariant violated", "error", err)
	}
	return err
}

func raidSlug(subject domain.Subject) string {
	if subject.IsEgg() {
		return "egg"
	}
	if slug := domain.Slugify(subject.Name); slug != "" {
		return slug
	}
	return "raid"
}

package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/geo"
	"landmark-tour-service/internal/platform/metrics"
	"landmark-tour-service/internal/ports"
)

// Machine drives one tour: it fetches segments, consumes position samples,
// and decides when to narrate a step, reveal a landmark, or advance.
//
// All state is guarded by a single mutex. Public methods never block on I/O;
// segment fetches and utterances run as background tasks whose completions
// re-enter the machine and are discarded once superseded.
//
// Subscribers are called in emission order after the state lock is released.
// They may read Snapshot. Calling a mutating method synchronously from a
// subscriber blocks forever, since its events queue behind the current batch.
type Machine struct {
	mu sync.Mutex

	// Event delivery order: a batch waits until serving reaches its ticket.
	dispatchMu   sync.Mutex
	dispatchCond *sync.Cond
	nextTicket   uint64
	serving      uint64

	sessionID string
	plan      domain.TourPlan
	policy    Policy
	router    ports.SegmentRouter
	narrator  ports.Narrator
	phrases   phraser
	log       *slog.Logger
	spawn     func(func())
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	state        State
	segmentIndex int
	segment      *domain.NavigationSegment
	stepIndex    int
	spoken       map[int]struct{}
	announced    map[int]struct{}
	visited      map[string]struct{}
	described    map[string]struct{}
	last         *domain.Coordinate
	muted        bool
	positionErr  error
	segmentErr   error

	// generation changes on every SegmentLoading entry and on abandon.
	generation  uint64
	fetching    bool
	fetchCancel context.CancelFunc

	speaking     *utterance
	utteranceSeq uint64

	subscribers []subscriber
	nextSubID   int
}

type utterance struct {
	seq        uint64
	generation uint64
	step       int // -1 when not a direction step
	cancel     context.CancelFunc
}

type subscriber struct {
	id int
	fn func(Event)
}

// effects collects what a locked operation wants to publish or start.
type effects struct {
	events []Event
	tasks  []func()
}

type Option func(*Machine)

func WithSessionID(id string) Option {
	return func(m *Machine) { m.sessionID = id }
}

func WithNarrator(n ports.Narrator) Option {
	return func(m *Machine) {
		if n != nil {
			m.narrator = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSpawn replaces how background tasks are started (default: a new goroutine).
func WithSpawn(spawn func(func())) Option {
	return func(m *Machine) {
		if spawn != nil {
			m.spawn = spawn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

type silentNarrator struct{}

func (silentNarrator) Speak(ctx context.Context, text string) error { return nil }

func NewMachine(plan domain.TourPlan, router ports.SegmentRouter, policy Policy, opts ...Option) (*Machine, error) {
	if len(plan.OrderedStops) == 0 {
		return nil, fmt.Errorf("new navigation: tour has no stops: %w", domain.ErrInvalidRequest)
	}
	if router == nil {
		return nil, errors.New("new navigation: router is nil")
	}
	if len(policy.Modes) == 0 {
		policy.Modes = domain.DefaultModePreference
	}

	m := &Machine{
		plan:      plan,
		policy:    policy,
		router:    router,
		narrator:  silentNarrator{},
		phrases:   newPhraser(policy.Locale),
		log:       slog.Default(),
		spawn:     func(f func()) { go f() },
		now:       time.Now,
		state:     StateIdle,
		spoken:    map[int]struct{}{},
		announced: map[int]struct{}{},
		visited:   map[string]struct{}{},
		described: map[string]struct{}{},
	}
	m.dispatchCond = sync.NewCond(&m.dispatchMu)
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("session_id", m.sessionID)
	m.ctx, m.cancel = context.WithCancel(context.Background())

	return m, nil
}

// Subscribe registers fn for every future event and returns a func that removes it.
func (m *Machine) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *Machine) SessionID() string { return m.sessionID }

func (m *Machine) Plan() domain.TourPlan { return m.plan }

// Start loads the first segment.
func (m *Machine) Start() error {
	m.mu.Lock()
	if m.state != StateIdle {
		err := m.invalid("start")
		m.mu.Unlock()
		return err
	}

	var fx effects
	m.beginLoading(&fx)
	m.flush(&fx)
	return nil
}

// Continue resumes the tour after a landmark pause, or starts it from Idle.
// From any other state it fails with domain.ErrInvalidTransition.
func (m *Machine) Continue() error {
	m.mu.Lock()

	var fx effects
	switch m.state {
	case StateIdle:
		m.beginLoading(&fx)
	case StateLandmarkReached:
		m.advance(&fx)
	default:
		err := m.invalid("continue")
		m.mu.Unlock()
		return err
	}

	m.flush(&fx)
	return nil
}

// RetrySegment refetches the current segment after a failed load.
func (m *Machine) RetrySegment() error {
	m.mu.Lock()
	if m.state != StateSegmentLoading || m.fetching || m.segmentErr == nil {
		err := m.invalid("retry segment")
		m.mu.Unlock()
		return err
	}

	var fx effects
	m.beginLoading(&fx)
	m.flush(&fx)
	return nil
}

// Repeat re-announces the current instruction without touching progress.
func (m *Machine) Repeat() error {
	m.mu.Lock()
	if m.state != StateSegmentActive && m.state != StateLandmarkReached {
		err := m.invalid("repeat")
		m.mu.Unlock()
		return err
	}

	var fx effects
	if m.segment != nil && m.stepIndex < len(m.segment.Steps) {
		i := m.stepIndex
		text := m.phrases.direction(m.segment.Steps[i], m.policy.PreAlertRadius)
		m.emit(&fx, Event{Kind: EventNarrateDirection, StepIndex: &i, Text: text, Repeat: true})
		// The step itself is still being spoken; stopping it would lose its completion.
		if m.speaking == nil || m.speaking.step != i {
			m.say(&fx, text, -1, true)
		}
	} else {
		target := m.plan.OrderedStops[m.segmentIndex]
		text := m.phrases.destination(target)
		m.emit(&fx, Event{Kind: EventDestinationReached, Landmark: &target, Text: text, Repeat: true})
		m.say(&fx, text, -1, true)
	}

	m.flush(&fx)
	return nil
}

// OnPositionUpdate consumes one position sample. It is a no-op once the tour is over.
func (m *Machine) OnPositionUpdate(c domain.Coordinate) {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return
	}
	if err := c.Validate(); err != nil {
		m.log.Debug("ignoring invalid position sample", "error", err)
		m.mu.Unlock()
		return
	}

	m.last = &c
	m.positionErr = nil

	var fx effects
	if m.state == StateSegmentActive || m.state == StateLandmarkReached {
		m.evaluate(c, &fx)
	}
	m.flush(&fx)
}

// OnPositionError records that the provider could not deliver a sample.
// Navigation simply waits; the next good sample clears the error.
func (m *Machine) OnPositionError(err error) {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return
	}

	var fx effects
	first := m.positionErr == nil
	m.positionErr = fmt.Errorf("%w: %w", domain.ErrPositionUnavailable, err)
	if first {
		m.log.Warn("position unavailable", "error", err)
		m.emit(&fx, Event{Kind: EventPositionLost, Error: err.Error()})
	}
	m.flush(&fx)
}

// SetMuted toggles speech. Muting stops the current utterance; direction and
// description narration is suppressed while muted, but arrival still advances steps.
func (m *Machine) SetMuted(muted bool) {
	m.mu.Lock()

	var fx effects
	m.muted = muted
	if muted {
		m.stopSpeaking()
	} else if m.last != nil && (m.state == StateSegmentActive || m.state == StateLandmarkReached) {
		m.evaluate(*m.last, &fx)
	}
	m.flush(&fx)
}

// Abandon ends the tour. In-flight fetches and utterances are cancelled and
// their late completions ignored.
func (m *Machine) Abandon() {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return
	}

	var fx effects
	m.state = StateAbandoned
	m.generation++
	m.fetching = false
	m.speaking = nil
	m.cancel()
	m.emit(&fx, Event{Kind: EventTourAbandoned})
	m.flush(&fx)
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		SessionID:          m.sessionID,
		State:              m.state,
		SegmentIndex:       m.segmentIndex,
		StepIndex:          m.stepIndex,
		SpokenSteps:        make([]int, 0, len(m.spoken)),
		VisitedLandmarkIDs: make([]string, 0, len(m.visited)),
		TotalSegments:      len(m.plan.OrderedStops),
		Muted:              m.muted,
		Narrating:          m.speaking != nil,
	}
	for i := range m.spoken {
		s.SpokenSteps = append(s.SpokenSteps, i)
	}
	sort.Ints(s.SpokenSteps)
	for id := range m.visited {
		s.VisitedLandmarkIDs = append(s.VisitedLandmarkIDs, id)
	}
	sort.Strings(s.VisitedLandmarkIDs)

	if m.last != nil {
		c := *m.last
		s.LastCoordinate = &c
	}
	if m.segmentIndex < len(m.plan.OrderedStops) {
		t := m.plan.OrderedStops[m.segmentIndex]
		s.Target = &t
	}
	if m.segment != nil {
		seg := *m.segment
		s.Segment = &seg
	}
	if m.positionErr != nil {
		s.PositionError = m.positionErr.Error()
	}
	if m.segmentErr != nil {
		s.SegmentError = m.segmentErr.Error()
	}
	return s
}

func (m *Machine) invalid(action string) error {
	return fmt.Errorf("%s in state %s: %w", action, m.state, domain.ErrInvalidTransition)
}

// beginLoading enters SegmentLoading for the current index and schedules the fetch.
func (m *Machine) beginLoading(fx *effects) {
	m.state = StateSegmentLoading
	m.segment = nil
	m.segmentErr = nil
	m.generation++
	m.fetching = true

	gen, idx := m.generation, m.segmentIndex
	from := m.plan.LegStart(idx)
	to := m.plan.OrderedStops[idx].Coordinate
	modes := m.policy.Modes

	ctx, cancel := context.WithCancel(m.ctx)
	m.fetchCancel = cancel

	m.log.Debug("loading segment", "segment", idx, "modes", modes)
	fx.tasks = append(fx.tasks, func() {
		seg, err := m.router.FetchSegment(ctx, from, to, modes)
		m.fetchDone(gen, idx, seg, err)
	})
}

func (m *Machine) fetchDone(gen uint64, idx int, seg domain.NavigationSegment, err error) {
	m.mu.Lock()
	if gen != m.generation || idx != m.segmentIndex || m.state != StateSegmentLoading {
		m.log.Debug("discarding stale segment fetch", "segment", idx)
		m.mu.Unlock()
		return
	}

	var fx effects
	m.fetching = false
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}

	if err != nil {
		m.segmentErr = err
		m.log.Warn("segment fetch failed", "segment", idx, "error", err)
		m.emit(&fx, Event{Kind: EventSegmentError, Error: err.Error()})
		m.flush(&fx)
		return
	}

	m.install(seg, &fx)
	m.flush(&fx)
}

// install replaces the active segment wholesale and resets per-segment progress.
func (m *Machine) install(seg domain.NavigationSegment, fx *effects) {
	target := m.plan.OrderedStops[m.segmentIndex]
	seg.ToLandmark = target

	m.segment = &seg
	m.stepIndex = 0
	m.spoken = map[int]struct{}{}
	m.announced = map[int]struct{}{}
	m.state = StateSegmentActive

	text := m.phrases.heading(target)
	m.emit(fx, Event{Kind: EventSegmentAdvanced, Landmark: &target, Mode: string(seg.Mode), Text: text})
	m.say(fx, text, -1, false)

	if m.last != nil {
		m.evaluate(*m.last, fx)
	}
}

// advance moves past the current stop, completing the tour after the last one.
func (m *Machine) advance(fx *effects) {
	m.state = StateSegmentAdvancing
	m.segmentIndex++
	m.segment = nil

	if m.segmentIndex >= len(m.plan.OrderedStops) {
		m.state = StateCompleted
		text := m.phrases.complete()
		m.emit(fx, Event{Kind: EventTourComplete, Text: text})
		m.say(fx, text, -1, false)
		return
	}

	m.beginLoading(fx)
}

func (m *Machine) evaluate(c domain.Coordinate, fx *effects) {
	m.checkDirections(c, fx)
	m.checkLandmarkArrival(c, fx)
	m.checkNearby(c, fx)
}

// nextUnspoken is the smallest step index at or after stepIndex not yet spoken.
func (m *Machine) nextUnspoken() int {
	i := m.stepIndex
	for ; m.segment != nil && i < len(m.segment.Steps); i++ {
		if _, ok := m.spoken[i]; !ok {
			break
		}
	}
	return i
}

func (m *Machine) markSpoken(idx int) {
	m.spoken[idx] = struct{}{}
	if idx+1 > m.stepIndex {
		m.stepIndex = idx + 1
	}
}

func (m *Machine) checkDirections(c domain.Coordinate, fx *effects) {
	if m.segment == nil {
		return
	}
	idx := m.nextUnspoken()
	if idx >= len(m.segment.Steps) {
		return
	}

	step := m.segment.Steps[idx]
	d := geo.DistanceMeters(c, step.Anchor)

	if d < m.policy.PreAlertRadius && !m.muted {
		if _, done := m.announced[idx]; !done {
			m.announced[idx] = struct{}{}
			i := idx
			text := m.phrases.direction(step, m.policy.PreAlertRadius)
			m.emit(fx, Event{Kind: EventNarrateDirection, StepIndex: &i, Text: text})
			m.say(fx, text, idx, true)
		}
	}

	// Progress never waits on audio.
	if d < m.policy.ArrivalRadius {
		if _, ok := m.spoken[idx]; !ok {
			m.markSpoken(idx)
		}
	}
}

func (m *Machine) checkLandmarkArrival(c domain.Coordinate, fx *effects) {
	if m.state != StateSegmentActive {
		return
	}

	target := m.plan.OrderedStops[m.segmentIndex]
	if _, seen := m.visited[target.ID]; seen {
		return
	}
	if geo.DistanceMeters(c, target.Coordinate) >= m.policy.LandmarkArrivalRadius {
		return
	}

	m.state = StateLandmarkReached
	m.visited[target.ID] = struct{}{}
	m.described[target.ID] = struct{}{}

	m.emit(fx, Event{Kind: EventLandmarkReached, Landmark: &target, Text: target.Description})
	m.say(fx, m.phrases.arrival(target), -1, true)

	if m.segmentIndex == 0 && m.policy.AutoContinueFirstStop {
		m.advance(fx)
	}
}

// checkNearby describes at most one landmark per sample, each at most once per tour.
// The current target is left to the arrival check.
func (m *Machine) checkNearby(c domain.Coordinate, fx *effects) {
	if m.muted || m.state.Terminal() {
		return
	}

	for i, lm := range m.plan.OrderedStops {
		if i == m.segmentIndex || lm.Description == "" {
			continue
		}
		if _, ok := m.described[lm.ID]; ok {
			continue
		}
		if geo.DistanceMeters(c, lm.Coordinate) >= m.policy.LandmarkDescriptionRadius {
			continue
		}

		m.described[lm.ID] = struct{}{}
		text := m.phrases.nearby(lm)
		m.emit(fx, Event{Kind: EventNarrateDescription, Landmark: &lm, Text: text})
		m.say(fx, text, -1, true)
		return
	}
}

// say schedules an utterance. With preempt the in-flight one is stopped (last request wins);
// without it the text is dropped while something else is playing.
func (m *Machine) say(fx *effects, text string, step int, preempt bool) {
	if m.muted || text == "" {
		return
	}
	if m.speaking != nil {
		if !preempt {
			return
		}
		m.stopSpeaking()
	}

	m.utteranceSeq++
	ctx, cancel := context.WithCancel(m.ctx)
	u := &utterance{seq: m.utteranceSeq, generation: m.generation, step: step, cancel: cancel}
	m.speaking = u

	narrator := m.narrator
	fx.tasks = append(fx.tasks, func() {
		err := narrator.Speak(ctx, text)
		m.narrationDone(u, err)
	})
}

func (m *Machine) stopSpeaking() {
	if m.speaking != nil {
		m.speaking.cancel()
		m.speaking = nil
	}
}

func (m *Machine) narrationDone(u *utterance, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.cancel()

	outcome := "done"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNarrationStopped), errors.Is(err, context.Canceled):
		outcome = "stopped"
	default:
		outcome = "failed"
		m.log.Warn("narration failed", "error", fmt.Errorf("%w: %w", domain.ErrNarrationFailure, err))
	}
	metrics.NarrationOutcomes.WithLabelValues(outcome).Inc()

	if m.speaking != u {
		return
	}
	m.speaking = nil

	// A failed utterance counts as delivered so progress does not stall on the speech sink.
	if outcome == "stopped" || u.step < 0 || u.generation != m.generation || m.segment == nil {
		return
	}
	if m.state == StateSegmentActive || m.state == StateLandmarkReached {
		m.markSpoken(u.step)
	}
}

func (m *Machine) emit(fx *effects, e Event) {
	e.SessionID = m.sessionID
	e.SegmentIndex = m.segmentIndex
	e.At = m.now()
	metrics.NavigationEvents.WithLabelValues(string(e.Kind)).Inc()
	fx.events = append(fx.events, e)
}

// flush releases m.mu, delivers events in order, then starts queued tasks.
// Callers must hold m.mu. Batches are delivered in the order their tickets were
// taken under m.mu, and no one waits for delivery while holding m.mu.
func (m *Machine) flush(fx *effects) {
	if len(fx.events) == 0 {
		m.mu.Unlock()
		m.spawnAll(fx.tasks)
		return
	}

	ticket := m.nextTicket
	m.nextTicket++
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	m.dispatchMu.Lock()
	for m.serving != ticket {
		m.dispatchCond.Wait()
	}
	m.dispatchMu.Unlock()

	m.deliver(subs, fx.events)
	m.spawnAll(fx.tasks)
}

func (m *Machine) deliver(subs []subscriber, events []Event) {
	defer func() {
		m.dispatchMu.Lock()
		m.serving++
		m.dispatchCond.Broadcast()
		m.dispatchMu.Unlock()
	}()

	for _, e := range events {
		for _, s := range subs {
			s.fn(e)
		}
	}
}

func (m *Machine) spawnAll(tasks []func()) {
	for _, task := range tasks {
		m.spawn(task)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/navigation"
	"landmark-tour-service/internal/platform/metrics"
	"landmark-tour-service/internal/platform/obs"
	"landmark-tour-service/internal/ports"
)

const (
	eventBuffer    = 256
	publishTimeout = 5 * time.Second
)

// TourService owns tour sessions: it sequences and persists plans, then runs one
// navigation.Machine per session wired to the router, narrator and event fan-out.
type TourService struct {
	store     ports.TourStore
	router    ports.SegmentRouter
	publisher ports.EventPublisher
	policy    navigation.Policy
	metric    string

	matrix      ports.DistanceMatrixProvider
	positions   ports.PositionStream
	newNarrator func(sessionID string) ports.Narrator
	log         *slog.Logger

	mu       sync.Mutex
	sessions map[string]*tourSession
}

type tourSession struct {
	machine       *navigation.Machine
	narrator      ports.Narrator
	unsubscribe   func()
	stopPositions func() error
	done          chan struct{}
	drained       chan struct{}
}

type TourOption func(*TourService)

// WithMatrix enables the walking metric for PlanTour.
func WithMatrix(p ports.DistanceMatrixProvider) TourOption {
	return func(s *TourService) { s.matrix = p }
}

// WithPositionStream subscribes every started session to live position samples.
func WithPositionStream(ps ports.PositionStream) TourOption {
	return func(s *TourService) { s.positions = ps }
}

// WithNarratorFactory builds the narrator for each new session.
func WithNarratorFactory(f func(sessionID string) ports.Narrator) TourOption {
	return func(s *TourService) { s.newNarrator = f }
}

func WithTourLogger(l *slog.Logger) TourOption {
	return func(s *TourService) {
		if l != nil {
			s.log = l
		}
	}
}

func NewTourService(
	store ports.TourStore,
	router ports.SegmentRouter,
	publisher ports.EventPublisher,
	policy navigation.Policy,
	metric string,
	opts ...TourOption,
) *TourService {
	s := &TourService{
		store:     store,
		router:    router,
		publisher: publisher,
		policy:    policy,
		metric:    metric,
		log:       slog.Default(),
		sessions:  map[string]*tourSession{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlanTour sequences the request and stores the plan under a new session id.
func (s *TourService) PlanTour(ctx context.Context, req domain.TourRequest) (_ string, _ domain.TourPlan, err error) {
	defer obs.Time(ctx, "tour.Plan")(&err)

	var plan domain.TourPlan
	if s.metric == MetricWalking && s.matrix != nil {
		plan, err = ComputeTourWithMatrix(ctx, req, s.matrix)
	} else {
		plan, err = ComputeTour(req)
	}
	if err != nil {
		return "", domain.TourPlan{}, fmt.Errorf("plan tour: %w", err)
	}

	id := uuid.NewString()
	if err := s.store.Save(ctx, id, plan); err != nil {
		return "", domain.TourPlan{}, fmt.Errorf("plan tour: save: %w", err)
	}

	s.log.InfoContext(ctx, "tour planned",
		"session_id", id, "stops", len(plan.OrderedStops), "metric", plan.Metric,
		"total_m", int(plan.TotalDistanceMeters))

	return id, plan, nil
}

// Plan returns the stored plan of a session.
func (s *TourService) Plan(ctx context.Context, sessionID string) (domain.TourPlan, error) {
	plan, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return domain.TourPlan{}, fmt.Errorf("tour plan: %w", err)
	}
	return plan, nil
}

// StartNavigation starts navigating a planned tour. Calling it again for a
// running session returns the existing machine.
func (s *TourService) StartNavigation(ctx context.Context, sessionID string) (_ *navigation.Machine, err error) {
	defer obs.Time(ctx, "tour.StartNavigation")(&err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess.machine, nil
	}

	plan, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("start navigation: %w", err)
	}

	var narrator ports.Narrator
	if s.newNarrator != nil {
		narrator = s.newNarrator(sessionID)
	}

	opts := []navigation.Option{
		navigation.WithSessionID(sessionID),
		navigation.WithLogger(s.log),
	}
	if narrator != nil {
		opts = append(opts, navigation.WithNarrator(narrator))
	}

	m, err := navigation.NewMachine(plan, s.router, s.policy, opts...)
	if err != nil {
		return nil, fmt.Errorf("start navigation: %w", err)
	}

	sess := &tourSession{
		machine:  m,
		narrator: narrator,
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}
	sess.unsubscribe = s.forward(sessionID, m, sess)

	if s.positions != nil {
		stop, err := s.positions.Subscribe(context.WithoutCancel(ctx), sessionID, m)
		if err != nil {
			s.release(sess)
			return nil, fmt.Errorf("start navigation: positions: %w", err)
		}
		sess.stopPositions = stop
	}

	if err := m.Start(); err != nil {
		s.release(sess)
		return nil, fmt.Errorf("start navigation: %w", err)
	}

	s.sessions[sessionID] = sess
	metrics.ActiveTours.Inc()
	s.log.InfoContext(ctx, "navigation started", "session_id", sessionID, "segments", len(plan.OrderedStops))

	return m, nil
}

// forward relays machine events to the publisher in emission order without
// blocking the machine. Events that do not fit the buffer are dropped.
func (s *TourService) forward(sessionID string, m *navigation.Machine, sess *tourSession) func() {
	queue := make(chan navigation.Event, eventBuffer)

	unsubscribe := m.Subscribe(func(e navigation.Event) {
		select {
		case <-sess.done:
		case queue <- e:
		default:
			s.log.Warn("event queue full, dropping event", "session_id", sessionID, "kind", e.Kind)
		}
	})

	publish := func(e navigation.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, sessionID, string(e.Kind), e); err != nil {
			s.log.Warn("publish event failed", "session_id", sessionID, "kind", e.Kind, "error", err)
		}
	}

	go func() {
		defer close(sess.drained)
		for {
			select {
			case e := <-queue:
				publish(e)
				if e.Kind == navigation.EventTourComplete {
					s.finish(sessionID, sess)
				}
			case <-sess.done:
				for {
					select {
					case e := <-queue:
						publish(e)
					default:
						return
					}
				}
			}
		}
	}()

	return unsubscribe
}

// finish tears down a session whose tour completed. It is a no-op when the
// session was already abandoned or shut down.
func (s *TourService) finish(sessionID string, sess *tourSession) {
	s.mu.Lock()
	cur, ok := s.sessions[sessionID]
	if ok && cur == sess {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok || cur != sess {
		return
	}

	s.release(sess)
	metrics.ActiveTours.Dec()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.log.Warn("delete completed tour failed", "session_id", sessionID, "error", err)
	}
	s.log.Info("tour completed", "session_id", sessionID)
}

func (s *TourService) release(sess *tourSession) {
	if sess.stopPositions != nil {
		if err := sess.stopPositions(); err != nil {
			s.log.Warn("stop position stream failed", "session_id", sess.machine.SessionID(), "error", err)
		}
	}
	sess.unsubscribe()
	close(sess.done)
}

// Navigation returns the running machine of a session.
func (s *TourService) Navigation(sessionID string) (*navigation.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("navigation %s: %w", sessionID, domain.ErrTourNotFound)
	}
	return sess.machine, nil
}

// AcknowledgeNarration reports that the client finished speaking an utterance.
func (s *TourService) AcknowledgeNarration(sessionID, utteranceID string) (bool, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("acknowledge narration %s: %w", sessionID, domain.ErrTourNotFound)
	}

	ack, ok := sess.narrator.(ports.AcknowledgingNarrator)
	if !ok {
		return false, nil
	}
	return ack.Acknowledge(utteranceID), nil
}

// Abandon ends a session: in-flight work is cancelled, subscriptions are
// released and the stored plan is deleted.
func (s *TourService) Abandon(ctx context.Context, sessionID string) (err error) {
	defer obs.Time(ctx, "tour.Abandon")(&err)

	s.mu.Lock()
	sess, running := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if running {
		sess.machine.Abandon()
		s.release(sess)
		metrics.ActiveTours.Dec()
	} else if _, err := s.store.Load(ctx, sessionID); err != nil {
		return fmt.Errorf("abandon tour: %w", err)
	}

	if err := s.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrTourNotFound) {
		return fmt.Errorf("abandon tour: %w", err)
	}

	s.log.InfoContext(ctx, "tour abandoned", "session_id", sessionID, "was_navigating", running)
	return nil
}

// Shutdown abandons every running session.
func (s *TourService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		delete(s.sessions, id)
		s.mu.Unlock()
		if !ok {
			continue
		}
		sess.machine.Abandon()
		s.release(sess)
		metrics.ActiveTours.Dec()

		select {
		case <-sess.drained:
		case <-ctx.Done():
			return
		}
	}
}

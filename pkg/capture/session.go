package capture

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/replaykit/replaykit/pkg/eventbus"
	"github.com/replaykit/replaykit/pkg/events"
	"github.com/replaykit/replaykit/pkg/models"
)

// Config tunes one capture session.
type Config struct {
	SessionName string
	Platform    string
	StartURL    string

	// DebounceWindow collapses consecutive edits to one field into a single
	// type action carrying the final value.
	DebounceWindow time.Duration

	// ScrollThresholdPx is the cumulative scroll delta below which scrolling
	// is not recorded.
	ScrollThresholdPx float64

	// NavigationPollInterval drives the URL polling fallback. Zero disables
	// polling; it only runs when the source exposes its current URL.
	NavigationPollInterval time.Duration
}

const (
	defaultDebounceWindow    = 500 * time.Millisecond
	defaultScrollThresholdPx = 200
	defaultNavPollInterval   = time.Second
)

func (c Config) withDefaults() Config {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = defaultDebounceWindow
	}

	if c.ScrollThresholdPx <= 0 {
		c.ScrollThresholdPx = defaultScrollThresholdPx
	}

	if c.NavigationPollInterval < 0 {
		c.NavigationPollInterval = 0
	}

	return c
}

// Session observes one live page and emits raw action records. It runs
// cooperatively with the page: internal failures are logged, never allowed
// to escape into the host.
type Session struct {
	id     string
	cfg    Config
	logger *slog.Logger
	source PageEventSource
	shots  ScreenshotCapturer
	sink   Sink
	bus    eventbus.EventPublisher

	mu        sync.Mutex
	started   bool
	stopping  bool
	stopped   bool
	startedAt time.Time
	runCtx    context.Context
	cancel    context.CancelFunc
	ch        <-chan PageEvent
	runDone   chan struct{}

	records map[int64]*models.RawRecord
	order   []int64
	keySeq  int64
	fields  map[string]*fieldState
	seen    map[string]struct{}
	lastURL string

	scrollX float64
	scrollY float64

	shotWG sync.WaitGroup
}

// NewSession builds a session. The screenshot capturer and the event
// publisher are optional; the sink is required.
func NewSession(cfg Config, source PageEventSource, shots ScreenshotCapturer, sink Sink, bus eventbus.EventPublisher, logger *slog.Logger) *Session {
	cfg = cfg.withDefaults()
	id := uuid.New().String()

	return &Session{
		id:      id,
		cfg:     cfg,
		logger:  logger.With("session_id", id),
		source:  source,
		shots:   shots,
		sink:    sink,
		bus:     bus,
		records: make(map[int64]*models.RawRecord),
		fields:  make(map[string]*fieldState),
		seen:    make(map[string]struct{}),
		lastURL: cfg.StartURL,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start subscribes to the page event source and begins recording. It is
// idempotent: a second call is a no-op. A failed initialization is logged
// and recording simply does not start; the host page is never affected.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopping {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	ch, err := s.source.Subscribe(runCtx)
	if err != nil {
		cancel()
		s.logger.Error("Failed to subscribe to page events, recording will not start", "error", err)

		return
	}

	s.started = true
	s.startedAt = time.Now()
	s.runCtx = runCtx
	s.cancel = cancel
	s.ch = ch
	s.runDone = make(chan struct{})

	go s.run(runCtx, ch)

	if urls, ok := s.source.(URLSource); ok && s.cfg.NavigationPollInterval > 0 {
		go s.pollURL(runCtx, urls)
	}

	s.publish(runCtx, events.SessionStarted{
		BaseEvent:   s.baseEvent(events.SessionStartedEvent),
		SessionName: s.cfg.SessionName,
		Platform:    s.cfg.Platform,
		StartURL:    s.cfg.StartURL,
	})
}

// Running reports whether the session is actively recording.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started && !s.stopping
}

func (s *Session) run(ctx context.Context, ch <-chan PageEvent) {
	defer close(s.runDone)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}

			s.dispatch(ctx, ev)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, ev PageEvent) {
	// A panic in a handler must not take down the host page's loop.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from capture handler panic", "panic", r, "event_kind", ev.Kind)
		}
	}()

	switch ev.Kind {
	case PageEventClick:
		s.handleClick(ctx, ev)
	case PageEventInput:
		s.handleInput(ctx, ev)
	case PageEventScroll:
		s.handleScroll(ctx, ev)
	case PageEventNavigation:
		s.handleNavigation(ctx, ev)
	case PageEventFileSelected:
		s.handleFileSelected(ctx, ev)
	case PageEventNodeInserted, PageEventFrameAttached:
		s.handleContainer(ctx, ev)
	default:
		s.logger.Debug("Ignoring unknown page event kind", "event_kind", ev.Kind)
	}
}

// Identity keys join asynchronous screenshot enrichment to the record it
// belongs to. The event timestamp alone cannot serve: two events can land in
// the same millisecond. Folding a per-session sequence into the low bits keeps
// each key unique while preserving capture-time order.
const recordKeySeqBits = 16

// newRecordKeyLocked allocates the identity key for a record captured at the
// given timestamp. Callers must hold s.mu.
func (s *Session) newRecordKeyLocked(timestamp int64) int64 {
	s.keySeq++

	return timestamp<<recordKeySeqBits | (s.keySeq & (1<<recordKeySeqBits - 1))
}

// emitLocked allocates the record's identity key, registers the record under
// it and forwards it to the sink. Callers must hold s.mu.
func (s *Session) emitLocked(ctx context.Context, rec *models.RawRecord) int64 {
	key := s.newRecordKeyLocked(rec.Timestamp)
	s.emitKeyedLocked(ctx, key, rec)

	return key
}

// emitKeyedLocked registers the record under a pre-allocated identity key.
// The debounce path allocates its key on the first keystroke so in-flight
// enrichment can find the pending field. Callers must hold s.mu.
func (s *Session) emitKeyedLocked(ctx context.Context, key int64, rec *models.RawRecord) {
	s.records[key] = rec
	s.order = append(s.order, key)

	if err := s.sink.Emit(ctx, rec); err != nil {
		s.logger.Error("Sink rejected record", "error", err, "record_kind", rec.Kind)
	}

	s.publish(ctx, events.ActionRecorded{
		BaseEvent:  s.baseEvent(events.ActionRecordedEvent),
		RecordKind: rec.Kind,
		RecordKey:  key,
	})
}

// Flush synchronously emits every buffered-but-unpersisted action: pending
// debounced type actions whose timers have not fired yet.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushFieldsLocked(ctx)
}

// Stop tears down the subscription, drains events the subscription had
// already buffered, flushes pending records and waits for in-flight
// screenshot enrichment bounded by ctx. Nothing captured is silently
// dropped. Stop is idempotent.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()

	if !s.started || s.stopping {
		s.mu.Unlock()

		return
	}

	s.stopping = true
	s.cancel()
	s.mu.Unlock()

	// Wait for the run loop to exit so the drain below is the sole consumer
	// of the subscription channel.
	<-s.runDone

	s.source.Unsubscribe()
	s.drainEvents(ctx)

	s.mu.Lock()
	s.stopped = true
	s.flushFieldsLocked(ctx)
	recordCount := len(s.order)
	duration := time.Since(s.startedAt)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.shotWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Abandoning in-flight screenshot enrichment at session stop")
	}

	s.publish(ctx, events.SessionFinished{
		BaseEvent:   s.baseEvent(events.SessionFinishedEvent),
		RecordCount: recordCount,
		Duration:    duration,
	})
}

// drainEvents dispatches events the subscription delivered before the run
// loop was cancelled. They were captured; teardown must not lose them.
func (s *Session) drainEvents(ctx context.Context) {
	if s.ch == nil {
		return
	}

	for {
		select {
		case ev, ok := <-s.ch:
			if !ok {
				return
			}

			s.dispatch(ctx, ev)
		default:
			return
		}
	}
}

// Export returns the session document: session metadata plus the ordered raw
// records, in the shape the converter ingests.
func (s *Session) Export() (*models.RecordingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]map[string]any, 0, len(s.order))

	for _, key := range s.order {
		raw, err := json.Marshal(s.records[key])
		if err != nil {
			return nil, err
		}

		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return &models.RecordingSession{
		ID:         s.id,
		Name:       s.cfg.SessionName,
		Platform:   s.cfg.Platform,
		StartURL:   s.cfg.StartURL,
		RecordedAt: s.startedAt,
		Records:    records,
	}, nil
}

func (s *Session) publish(ctx context.Context, event eventbus.Event) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, s.id, event); err != nil {
		s.logger.Warn("Failed to publish capture event", "error", err, "event_type", event.GetType())
	}
}

func (s *Session) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: s.id,
	}
}

package pulse

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/gitpulse/am"
	"github.com/teranos/gitpulse/errors"
)

// PipelineRunner is the commit attempt the scheduler fires.
// *Pipeline implements it.
type PipelineRunner interface {
	Run(ctx context.Context) *Outcome
}

// StateBroadcaster pushes snapshots to connected clients on every state
// transition. Avoids a circular dependency on the server package.
type StateBroadcaster interface {
	BroadcastSnapshot(snap Snapshot)
}

// Scheduler runs the jittered commit loop. A single goroutine owns the
// state machine; external callers interact only through Snapshot and
// Submit. Pause is cooperative and never cancels a running attempt.
type Scheduler struct {
	runner      PipelineRunner
	broadcaster StateBroadcaster
	logger      *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// wake nudges the loop out of its timer wait; pending requests are
	// coalesced per kind under mu
	wake chan struct{}

	mu                 sync.Mutex
	state              State
	nextFireAt         time.Time
	lastOutcome        *Outcome
	pending            map[ControlRequest]bool
	intervalSeconds    int
	jitterSeconds      int
	triggerWhilePaused bool
	rng                *rand.Rand
}

// NewScheduler creates a scheduler. Call Start to begin the loop.
func NewScheduler(ctx context.Context, runner PipelineRunner, cfg *am.Config, log *zap.SugaredLogger) *Scheduler {
	loopCtx, cancel := context.WithCancel(ctx)

	return &Scheduler{
		runner:             runner,
		logger:             log,
		ctx:                loopCtx,
		cancel:             cancel,
		wake:               make(chan struct{}, 1),
		state:              StateIdle,
		pending:            make(map[ControlRequest]bool),
		intervalSeconds:    cfg.Schedule.IntervalSeconds,
		jitterSeconds:      cfg.Schedule.JitterSeconds,
		triggerWhilePaused: cfg.Schedule.TriggerWhilePaused,
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetBroadcaster wires the snapshot broadcaster. Must be called before
// Start.
func (s *Scheduler) SetBroadcaster(b StateBroadcaster) {
	s.broadcaster = b
}

// Start begins the scheduling loop
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	s.logger.Infow("Scheduler started",
		"interval_seconds", s.intervalSeconds,
		"jitter_seconds", s.jitterSeconds)
}

// Stop shuts the loop down and waits for any in-flight commit attempt
// to finish
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Infow("Scheduler stopped")
}

// Snapshot returns a consistent point-in-time view of the scheduler.
// Safe from any goroutine; never blocks on the loop's timer.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:           s.state,
		Paused:          s.state == StatePaused,
		IntervalSeconds: s.intervalSeconds,
		JitterSeconds:   s.jitterSeconds,
		LastOutcome:     s.lastOutcome,
	}
	if s.state == StateWaiting {
		at := s.nextFireAt
		snap.NextFireAt = &at
	}
	return snap
}

// Submit enqueues a control request for the loop's next suspension
// point. Fire-and-forget: the ack means accepted, not applied. Repeated
// requests of the same kind coalesce into one.
func (s *Scheduler) Submit(req ControlRequest) error {
	select {
	case <-s.ctx.Done():
		return errors.ErrSchedulerStopped
	default:
	}

	s.mu.Lock()
	s.pending[req] = true
	s.mu.Unlock()

	s.wakeLoop()
	return nil
}

// ApplyConfig picks up reloaded schedule settings. A waiting scheduler
// recomputes its next fire time from now.
func (s *Scheduler) ApplyConfig(cfg *am.Config) {
	s.mu.Lock()
	s.intervalSeconds = cfg.Schedule.IntervalSeconds
	s.jitterSeconds = cfg.Schedule.JitterSeconds
	s.triggerWhilePaused = cfg.Schedule.TriggerWhilePaused
	if s.state == StateWaiting {
		s.scheduleNextLocked(time.Now())
	}
	s.mu.Unlock()

	s.wakeLoop()
	s.logger.Infow("Schedule configuration applied",
		"interval_seconds", cfg.Schedule.IntervalSeconds,
		"jitter_seconds", cfg.Schedule.JitterSeconds)
}

func (s *Scheduler) wakeLoop() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the loop goroutine, the sole owner of state transitions
func (s *Scheduler) run() {
	defer s.wg.Done()

	s.mu.Lock()
	s.scheduleNextLocked(time.Now())
	s.state = StateWaiting
	s.mu.Unlock()
	s.broadcast()

	for {
		// The timer only arms while waiting; paused the loop sleeps
		// until a control request or shutdown
		var timer *time.Timer
		var timerC <-chan time.Time
		s.mu.Lock()
		if s.state == StateWaiting {
			timer = time.NewTimer(time.Until(s.nextFireAt))
			timerC = timer.C
		}
		s.mu.Unlock()

		select {
		case <-s.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-timerC:
			s.runPipeline()
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
			s.applyPending()
		}
	}
}

// applyPending drains coalesced control requests in a fixed order so a
// pause+resume pair settles on resumed
func (s *Scheduler) applyPending() {
	s.mu.Lock()
	pause := s.pending[ControlPause]
	resume := s.pending[ControlResume]
	trigger := s.pending[ControlTrigger]
	for k := range s.pending {
		delete(s.pending, k)
	}
	s.mu.Unlock()

	if pause {
		s.mu.Lock()
		changed := s.state != StatePaused
		s.state = StatePaused
		s.mu.Unlock()
		if changed {
			s.logger.Infow("Scheduler paused")
			s.broadcast()
		}
	}

	if resume {
		s.mu.Lock()
		changed := s.state == StatePaused
		if changed {
			s.scheduleNextLocked(time.Now())
			s.state = StateWaiting
		}
		s.mu.Unlock()
		if changed {
			s.logger.Infow("Scheduler resumed", "next_fire_at", s.Snapshot().NextFireAt)
			s.broadcast()
		}
	}

	if trigger {
		s.mu.Lock()
		paused := s.state == StatePaused
		allowed := !paused || s.triggerWhilePaused
		s.mu.Unlock()
		if !allowed {
			s.logger.Infow("Trigger ignored while paused")
			return
		}
		s.logger.Infow("Manual commit triggered")
		s.runPipeline()
	}
}

// runPipeline executes one commit attempt. A paused scheduler returns
// to paused afterwards; otherwise the next fire time is recomputed from
// completion, so a trigger never causes an immediate double-fire.
func (s *Scheduler) runPipeline() {
	s.mu.Lock()
	resumeTo := StateWaiting
	if s.state == StatePaused {
		resumeTo = StatePaused
	}
	s.state = StateCommitting
	s.mu.Unlock()
	s.broadcast()

	outcome := s.runner.Run(s.ctx)

	s.mu.Lock()
	s.lastOutcome = outcome
	s.state = resumeTo
	if resumeTo == StateWaiting {
		s.scheduleNextLocked(time.Now())
	}
	s.mu.Unlock()
	s.broadcast()
}

// scheduleNextLocked computes nextFireAt = now + base + uniform(-jitter, +jitter).
// Callers hold mu.
func (s *Scheduler) scheduleNextLocked(now time.Time) {
	base := time.Duration(s.intervalSeconds) * time.Second
	jitter := time.Duration(s.jitterSeconds) * time.Second

	var offset time.Duration
	if jitter > 0 {
		offset = time.Duration(s.rng.Int63n(int64(2*jitter)+1)) - jitter
	}

	s.nextFireAt = now.Add(base + offset)
}

func (s *Scheduler) broadcast() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastSnapshot(s.Snapshot())
}

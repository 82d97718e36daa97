// Package render drives placeholder resolution over live document content.
// Containers are queued when they become visible or change, and processed in
// small batches during idle time. Scrolling pauses processing, switching
// scope drops everything queued.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"imgres/common"
	"imgres/config"
	"imgres/metrics"
	"imgres/resolve"
)

// Document gives access to text containers.
type Document interface {
	// Text returns current raw text of container, false if it is gone.
	Text(id string) (string, bool)
	// Patch replaces container content with resolved markup.
	Patch(id, markup string) error
}

// Target resolves text for the active scope.
type Target interface {
	HasAssets(ctx context.Context) (bool, error)
	ResolveText(ctx context.Context, text string) (resolve.Result, error)
	// Invalidate is called when scheduler switches away from target.
	Invalidate()
}

type memo int

const (
	memoUnprocessed memo = iota
	// resolved and nothing left to do
	memoClean
	// resolved, but content changed afterwards
	memoStale
	// proven to have no placeholders
	memoNoPlaceholders
)

type task struct {
	id      string
	changed bool
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	State      common.RenderState
	Attached   bool
	Generation uint64
	Queued     int
	Ticks      int
	Processed  int
	Patched    int
	Skipped    int
	Faults     int
}

// Scheduler processes containers FIFO, at most one batch at a time, so a
// container is never processed concurrently with itself.
type Scheduler struct {
	cfg   config.RenderConfig
	doc   Document
	idler Idler
	clock Clock

	metrics *metrics.Observer
	log     *zap.Logger

	mu       sync.Mutex
	state    common.RenderState
	target   Target
	attached bool
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc

	queue   []task
	queued  map[string]bool
	memos   map[string]memo
	visible map[string]bool
	// containers being processed right now, true when changed meanwhile
	inflight map[string]bool

	tickPending bool
	cancelTick  func()
	scrolling   bool
	scrollTimer Timer
	idle        chan struct{}
	stats       Stats
}

func NewScheduler(cfg *config.RenderConfig, doc Document, idler Idler, clock Clock, m *metrics.Observer, log *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if idler == nil {
		idler = NewTimerIdler(clock, cfg.IdleTimeout)
	}
	c := *cfg
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	s := &Scheduler{
		cfg:     c,
		doc:     doc,
		idler:   idler,
		clock:   clock,
		metrics: m,
		log:     log.Named("render"),
		state:   common.RenderStateIdle,
		idle:    make(chan struct{}),
	}
	close(s.idle)
	s.reset()
	return s
}

// reset drops all per scope state, called with lock held.
func (s *Scheduler) reset() {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.queue = nil
	s.queued = make(map[string]bool)
	s.memos = make(map[string]memo)
	s.visible = make(map[string]bool)
	s.inflight = make(map[string]bool)
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	s.tickPending = false
	if s.scrollTimer != nil {
		s.scrollTimer.Stop()
		s.scrollTimer = nil
	}
	s.scrolling = false
	s.setState(common.RenderStateIdle)
}

func (s *Scheduler) setState(st common.RenderState) {
	if s.state == st {
		return
	}
	if st == common.RenderStateIdle {
		close(s.idle)
	} else if s.state == common.RenderStateIdle {
		s.idle = make(chan struct{})
	}
	s.log.Debug("State", zap.Stringer("from", s.state), zap.Stringer("to", st))
	s.state = st
}

// Switch cancels everything queued or in progress and moves scheduler to
// new target. Scheduler attaches only when target has assets, otherwise all
// notifications are ignored until next switch. Nil target detaches.
func (s *Scheduler) Switch(ctx context.Context, target Target) (bool, error) {
	s.mu.Lock()
	old := s.target
	s.gen++
	gen := s.gen
	s.reset()
	s.target = nil
	s.attached = false
	s.mu.Unlock()

	if old != nil {
		old.Invalidate()
	}
	if target == nil {
		return false, nil
	}

	has, err := target.HasAssets(ctx)
	if err != nil {
		return false, fmt.Errorf("unable to check assets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// switched again while checking
		return false, nil
	}
	s.target = target
	s.attached = has
	s.log.Debug("Switched", zap.Uint64("generation", gen), zap.Bool("attached", has))
	return has, nil
}

// Attached reports whether scheduler is processing notifications.
func (s *Scheduler) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Notify reports document change for container.
func (s *Scheduler) Notify(id string, kind common.ChangeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return
	}
	switch kind {
	case common.ChangeKindAdded:
		s.memos[id] = memoUnprocessed
		s.enqueue(id, true)
	case common.ChangeKindMutated:
		if _, busy := s.inflight[id]; busy {
			s.inflight[id] = true
			return
		}
		if s.memos[id] == memoClean {
			s.memos[id] = memoStale
		} else if s.memos[id] == memoNoPlaceholders {
			s.memos[id] = memoUnprocessed
		}
		s.enqueue(id, true)
	case common.ChangeKindVisible:
		s.visible[id] = true
		switch s.memos[id] {
		case memoClean, memoNoPlaceholders:
		default:
			s.enqueue(id, false)
		}
	case common.ChangeKindHidden:
		delete(s.visible, id)
	case common.ChangeKindRemoved:
		delete(s.visible, id)
		delete(s.memos, id)
		delete(s.queued, id)
		delete(s.inflight, id)
	}
}

func (s *Scheduler) enqueue(id string, changed bool) {
	if s.queued[id] {
		if changed {
			for i := range s.queue {
				if s.queue[i].id == id {
					s.queue[i].changed = true
				}
			}
		}
		return
	}
	s.queued[id] = true
	s.queue = append(s.queue, task{id: id, changed: changed})
	s.kick()
}

// kick moves scheduler out of idle when there is work, called with lock held.
func (s *Scheduler) kick() {
	if s.scrolling {
		s.setState(common.RenderStateSuspendedByScroll)
		return
	}
	if s.state == common.RenderStateDraining {
		// tick reschedules itself
		return
	}
	s.setState(common.RenderStateQueued)
	s.schedule()
}

func (s *Scheduler) schedule() {
	if s.tickPending {
		return
	}
	s.tickPending = true
	gen := s.gen
	s.cancelTick = s.idler.ScheduleLowPriority(func(d Deadline) {
		s.tick(gen, d)
	}, s.cfg.FrameBudget)
}

// Scroll reports scroll activity. Processing pauses until no scroll is
// reported for a quiet period.
func (s *Scheduler) Scroll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return
	}
	s.scrolling = true
	if s.state == common.RenderStateQueued || s.state == common.RenderStateDraining {
		s.setState(common.RenderStateSuspendedByScroll)
	}
	if s.scrollTimer != nil {
		s.scrollTimer.Stop()
	}
	gen := s.gen
	s.scrollTimer = s.clock.AfterFunc(s.cfg.ScrollQuiet, func() {
		s.scrollStopped(gen)
	})
}

func (s *Scheduler) scrollStopped(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.scrolling {
		return
	}
	s.scrolling = false
	s.scrollTimer = nil
	if s.state != common.RenderStateSuspendedByScroll {
		return
	}
	if len(s.queued) == 0 && !s.tickPending {
		s.setState(common.RenderStateIdle)
		return
	}
	s.setState(common.RenderStateQueued)
	s.schedule()
}

// next pops first task which still has to be processed, called with lock held.
func (s *Scheduler) next() (task, bool) {
	for len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		if !s.queued[t.id] {
			// removed while queued
			continue
		}
		delete(s.queued, t.id)
		if !t.changed && !s.visible[t.id] {
			// became hidden before its turn, Visible will bring it back
			s.stats.Skipped++
			continue
		}
		return t, true
	}
	return task{}, false
}

func (s *Scheduler) tick(gen uint64, d Deadline) {
	start := s.clock.Now()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancelTick = nil
	if s.scrolling {
		s.tickPending = false
		s.setState(common.RenderStateSuspendedByScroll)
		s.mu.Unlock()
		return
	}
	s.setState(common.RenderStateDraining)
	s.stats.Ticks++
	target, ctx := s.target, s.ctx

	for n := 0; n < s.cfg.BatchSize && d.TimeRemaining() > 0 && !s.scrolling; n++ {
		t, ok := s.next()
		if !ok {
			break
		}
		s.inflight[t.id] = false
		s.mu.Unlock()

		m, err := s.process(ctx, target, t.id)

		s.mu.Lock()
		if gen != s.gen {
			// switched meanwhile, results belong to abandoned scope
			s.mu.Unlock()
			return
		}
		changed, busy := s.inflight[t.id]
		delete(s.inflight, t.id)
		s.stats.Processed++
		if err != nil {
			s.stats.Faults++
			s.metrics.RenderFault()
			s.log.Warn("Unable to render container", zap.String("id", t.id), zap.Error(err))
			m = memoUnprocessed
		}
		if !busy {
			// removed while processing
			continue
		}
		s.memos[t.id] = m
		if changed {
			if m == memoClean {
				s.memos[t.id] = memoStale
			} else {
				s.memos[t.id] = memoUnprocessed
			}
			s.enqueue(t.id, true)
		}
	}

	s.tickPending = false
	s.metrics.RenderTick(s.clock.Now().Sub(start))
	switch {
	case len(s.queued) == 0:
		s.setState(common.RenderStateIdle)
	case s.scrolling:
		s.setState(common.RenderStateSuspendedByScroll)
	default:
		s.setState(common.RenderStateQueued)
		s.schedule()
	}
	s.mu.Unlock()
}

var errNoTarget = errors.New("no render target")

// process resolves single container. It is called without lock held and
// never panics outward.
func (s *Scheduler) process(ctx context.Context, target Target, id string) (m memo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while rendering: %v", r)
		}
	}()

	if target == nil {
		return memoUnprocessed, errNoTarget
	}
	text, ok := s.doc.Text(id)
	if !ok {
		return memoNoPlaceholders, nil
	}
	if !resolve.HasPlaceholders(text) {
		return memoNoPlaceholders, nil
	}
	res, err := target.ResolveText(ctx, text)
	if err != nil {
		return memoUnprocessed, fmt.Errorf("unable to resolve: %w", err)
	}
	if ctx.Err() != nil {
		return memoUnprocessed, ctx.Err()
	}
	if res.Hit {
		if err := s.patch(ctx, id, res.Text); err != nil {
			return memoUnprocessed, err
		}
	}
	if len(res.Missing) > 0 {
		// may resolve later, after cache is rebuilt
		return memoUnprocessed, nil
	}
	return memoClean, nil
}

func (s *Scheduler) patch(ctx context.Context, id, markup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// never apply results after switch
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := s.doc.Patch(id, markup); err != nil {
		return fmt.Errorf("unable to patch container: %w", err)
	}
	s.stats.Patched++
	return nil
}

// Wait blocks until queue is drained or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
		s.mu.Lock()
		done := s.state == common.RenderStateIdle
		s.mu.Unlock()
		if done {
			return nil
		}
	}
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.State = s.state
	st.Attached = s.attached
	st.Generation = s.gen
	st.Queued = len(s.queued)
	return st
}

// State returns current scheduler state.
func (s *Scheduler) State() common.RenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close detaches scheduler and cancels pending work.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.reset()
	s.attached = false
	s.target = nil
}

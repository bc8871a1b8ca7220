// Package scheduler drives the clock-dependent parts of the engine: a fast
// tick for live elapsed time and a slower scan for deadlines and automation
// rules. Results are delivered to Bubble Tea as messages.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/tasktrack/internal/model"
)

// Target is the engine surface the scheduler drives.
type Target interface {
	ElapsedTimes() (map[string]time.Duration, bool)
	DeadlinesReached() []model.Task
	ScanDeadlines(ctx context.Context) ([]model.Notification, error)
	RunAutomation(ctx context.Context) ([]model.Task, error)
}

// ElapsedMsg carries live elapsed times. It is only sent while at least
// one task is being tracked.
type ElapsedMsg struct {
	Elapsed map[string]time.Duration
}

// DeadlineReachedMsg is sent once per task when its deadline has just
// passed.
type DeadlineReachedMsg struct {
	Tasks []model.Task
}

// ScanMsg is sent when a scan produced notifications, created automated
// tasks or failed.
type ScanMsg struct {
	Notifications []model.Notification
	Created       []model.Task
	Err           error
}

// scanTimeout bounds a single scan.
const scanTimeout = 10 * time.Second

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler runs the tick and scan loops.
type Scheduler struct {
	target       Target
	tickInterval time.Duration
	scanInterval time.Duration

	events    chan tea.Msg
	tickRearm chan struct{}
	scanRearm chan struct{}
	scans     singleflight.Group

	// alerted holds tasks already reported as reached; tick goroutine only.
	alerted map[string]bool

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New creates a Scheduler. Non-positive intervals fall back to 1s and 60s.
func New(target Target, tick, scan time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Second
	}
	if scan <= 0 {
		scan = time.Minute
	}
	return &Scheduler{
		target:       target,
		tickInterval: tick,
		scanInterval: scan,
		events:       make(chan tea.Msg, 16),
		tickRearm:    make(chan struct{}, 1),
		scanRearm:    make(chan struct{}, 1),
		alerted:      make(map[string]bool),
	}
}

// Start launches both loops and returns a tea.Cmd waiting for the first
// event. An initial scan runs immediately. Calling Start on a running
// scheduler returns nil.
func (s *Scheduler) Start(ctx context.Context) tea.Cmd {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.group, ctx = errgroup.WithContext(ctx)
	s.running = true
	g := s.group
	s.mu.Unlock()

	g.Go(func() error { return s.tickLoop(ctx) })
	g.Go(func() error { return s.scanLoop(ctx) })

	return s.waitForEvent()
}

// Stop cancels both loops and waits for them to exit. The event channel is
// closed afterwards, so pending WaitForNext commands return nil.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.stopped = true
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.stopped = true
	cancel, g := s.cancel, s.group
	s.mu.Unlock()

	cancel()
	err := g.Wait()
	close(s.events)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Rearm resets both timers and schedules an immediate scan. Call it when
// the task or rule set changes.
func (s *Scheduler) Rearm() {
	for _, ch := range []chan struct{}{s.tickRearm, s.scanRearm} {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Events exposes the raw event channel.
func (s *Scheduler) Events() <-chan tea.Msg {
	return s.events
}

// WaitForNext returns a tea.Cmd that waits for the next event. Call it
// after handling each ElapsedMsg, DeadlineReachedMsg or ScanMsg to keep
// listening.
func (s *Scheduler) WaitForNext() tea.Cmd {
	return s.waitForEvent()
}

func (s *Scheduler) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.events
		if !ok {
			return nil
		}
		return msg
	}
}

// send delivers msg without blocking; it is dropped when the UI lags.
func (s *Scheduler) send(msg tea.Msg) {
	select {
	case s.events <- msg:
	default:
	}
}

func (s *Scheduler) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.tickRearm:
			ticker.Reset(s.tickInterval)
			s.tick()
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	if elapsed, active := s.target.ElapsedTimes(); active {
		s.send(ElapsedMsg{Elapsed: elapsed})
	}

	reached := s.target.DeadlinesReached()
	inWindow := make(map[string]bool, len(reached))
	var fresh []model.Task
	for _, t := range reached {
		inWindow[t.ID] = true
		if !s.alerted[t.ID] {
			fresh = append(fresh, t)
		}
	}
	s.alerted = inWindow
	if len(fresh) > 0 {
		s.send(DeadlineReachedMsg{Tasks: fresh})
	}
}

func (s *Scheduler) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	s.scanAndSend(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.scanRearm:
			ticker.Reset(s.scanInterval)
			s.scanAndSend(ctx)
		case <-ticker.C:
			s.scanAndSend(ctx)
		}
	}
}

func (s *Scheduler) scanAndSend(ctx context.Context) {
	msg := s.Scan(ctx)
	if msg.Err != nil {
		log.Printf("scheduled scan: %v", msg.Err)
	}
	if msg.Err != nil || len(msg.Notifications) > 0 || len(msg.Created) > 0 {
		s.send(msg)
	}
}

// Scan runs automation rules and then the deadline scan once. Concurrent
// callers share a single run.
func (s *Scheduler) Scan(ctx context.Context) ScanMsg {
	v, _, _ := s.scans.Do("scan", func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, scanTimeout)
		defer cancel()

		var msg ScanMsg
		created, err := s.target.RunAutomation(ctx)
		if err != nil {
			msg.Err = fmt.Errorf("running automation: %w", err)
		}
		msg.Created = created

		ns, err := s.target.ScanDeadlines(ctx)
		if err != nil {
			msg.Err = errors.Join(msg.Err, fmt.Errorf("scanning deadlines: %w", err))
		}
		msg.Notifications = ns
		return msg, nil
	})
	return v.(ScanMsg)
}

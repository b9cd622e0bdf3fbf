package room

import (
	"context"
	"time"
)

// maxCatchup bounds the simulated time a single late tick may cover.
const maxCatchup = 4

// Start launches the tick loop on its own goroutine. Calling Start twice, or
// after Stop, does nothing.
func (s *Simulation) Start(ctx context.Context) {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.done != nil || s.stopped {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.Run(loopCtx)
	}()
}

// Run ticks at the configured interval until ctx is cancelled or the match
// ends. Elapsed wall time drives each step, capped so a stalled process
// does not teleport enemies.
func (s *Simulation) Run(ctx context.Context) {
	interval := s.cfg.TickInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			if dt <= 0 {
				dt = interval
			}
			if dt > maxCatchup*interval {
				dt = maxCatchup * interval
			}
			last = now

			s.Step(dt)
			if !s.Active() {
				s.logger.Debugf("tick loop exiting: room inactive")
				return
			}
		}
	}
}

// Stop cancels the tick loop, waits for it to exit and drops every pending
// wave event so nothing mutates the room afterwards. It must not be called
// from an Observer callback, which runs on the loop goroutine.
func (s *Simulation) Stop() {
	s.loopMu.Lock()
	cancel, done := s.cancel, s.done
	s.stopped = true
	s.loopMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	s.mu.Lock()
	dropped := s.scheduler.CancelRoom(s.id)
	s.state.Active = false
	s.mu.Unlock()
	if dropped > 0 {
		s.logger.Debugf("dropped %d pending wave events on stop", dropped)
	}
}

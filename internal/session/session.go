// Package session runs one trace session: it pumps the source through
// the dispatch pipeline on a single goroutine and owns shutdown, which
// can be triggered by source exhaustion, the duration timer or an
// interrupt. Teardown and the final summary happen exactly once no
// matter how many triggers fire.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/goldshtn/etrace/internal/dispatch"
	"github.com/goldshtn/etrace/internal/sink"
	"github.com/goldshtn/etrace/internal/source"
	"github.com/goldshtn/etrace/pkg/logging"
)

// Controller owns the lifecycle of one session.
type Controller struct {
	src      source.Source
	pipe     *dispatch.Pipeline
	snk      sink.Sink
	duration time.Duration
	logger   *logging.Logger
	out      io.Writer

	mu      sync.Mutex
	stopped bool
	timer   *time.Timer
	start   time.Time

	// loopDone is closed by Run when the dispatch loop exits; finished
	// is closed after teardown and summary.
	loopDone chan struct{}
	finished chan struct{}
}

func New(src source.Source, pipe *dispatch.Pipeline, snk sink.Sink, duration time.Duration, logger *logging.Logger, out io.Writer) *Controller {
	return &Controller{
		src:      src,
		pipe:     pipe,
		snk:      snk,
		duration: duration,
		logger:   logger.With("session", uuid.NewString()),
		out:      out,
		loopDone: make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run processes events until the source is exhausted, the duration
// elapses or an interrupt arrives, then finalizes the session. It only
// returns after the summary has been printed.
func (c *Controller) Run(ctx context.Context) error {
	c.start = time.Now()

	events, err := c.src.Events(ctx)
	if err != nil {
		close(c.loopDone)
		return fmt.Errorf("start source: %w", err)
	}

	c.mu.Lock()
	if c.duration > 0 && !c.stopped {
		c.timer = time.AfterFunc(c.duration, c.Shutdown)
	}
	c.mu.Unlock()

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigCtx.Done()
		c.Shutdown()
	}()

	c.logger.Info("session started", "duration", c.duration)

	for ev := range events {
		c.pipe.Dispatch(ev)
	}
	close(c.loopDone)

	c.Shutdown()
	<-c.finished
	return nil
}

// Shutdown stops the source, waits for the dispatch loop to drain,
// closes the sink and prints the one-time summary. Safe to call from any
// goroutine and any number of times; only the first call does the work.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true

	if c.timer != nil {
		c.timer.Stop()
	}
	if err := c.src.Stop(); err != nil {
		c.logger.Warn("source stop failed", "error", err)
	}
	<-c.loopDone

	counters := c.pipe.Counters()
	counters.Lost = c.src.Lost()

	if err := c.snk.Close(); err != nil {
		c.logger.Warn("sink close failed", "error", err)
	}

	elapsed := time.Since(c.start).Round(time.Millisecond)
	fmt.Fprintf(c.out, "\nProcessed %d events in %s (%d forwarded, %d lost)\n",
		counters.Observed, elapsed, counters.Forwarded, counters.Lost)
	if counters.Lost > 0 {
		c.logger.Warn("producer dropped events", "lost", counters.Lost)
	}
	c.logger.Info("session complete",
		"observed", counters.Observed,
		"forwarded", counters.Forwarded,
		"lost", counters.Lost,
		"elapsed", elapsed)

	close(c.finished)
}

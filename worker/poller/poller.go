package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/jpillora/backoff"
	"github.com/purselabs/purse/core"
)

type Config struct {
	// Interval between settlement checks for one invoice.
	Interval time.Duration `valid:"required"`
	// Countdown is the user-visible tick resolution.
	Countdown time.Duration
}

// Checker is the settlement probe; the wallet satisfies this.
type Checker interface {
	CheckMintQuote(ctx context.Context, quoteID string) (*core.MintQuote, error)
}

// Events are the hooks a watch reports through. All callbacks are optional.
type Events struct {
	// OnTick fires every countdown tick with the time left before the
	// next settlement check.
	OnTick func(remaining time.Duration)
	// OnSettled fires once when the invoice is credited.
	OnSettled func(quote *core.MintQuote)
	// OnFailed fires once when polling stops on a terminal error.
	OnFailed func(err error)
}

func New(checker Checker, logger *slog.Logger, cfg Config) *Poller {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Countdown <= 0 {
		cfg.Countdown = time.Second
	}

	return &Poller{
		checker: checker,
		logger:  logger.With("worker", "poller"),
		cfg:     cfg,
		jobs:    make(map[string]*job),
	}
}

// Poller drives settlement checks for outstanding invoices. Each invoice
// gets one job owning both timers; the periodic check and the countdown
// share a single cancellation, and an in-flight guard collapses overlapping
// triggers instead of queueing them.
type Poller struct {
	checker Checker
	logger  *slog.Logger
	cfg     Config

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	cancel context.CancelFunc

	// checking is the in-flight token: a check already running suppresses
	// a newly scheduled one.
	checking atomic.Bool
}

type checkResult struct {
	quote *core.MintQuote
	err   error
}

// Watch starts polling one quote. Watching an already-watched quote is a
// no-op.
func (p *Poller) Watch(ctx context.Context, quote *core.MintQuote, events Events) {
	p.mu.Lock()
	if _, ok := p.jobs[quote.ID]; ok {
		p.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel}
	p.jobs[quote.ID] = j
	p.mu.Unlock()

	go p.run(ctx, j, quote, events)
}

// Cancel tears down both timers for a quote. Safe to call at any time,
// including while a check is in flight; a late-arriving result is discarded
// and the checking flag is cleared immediately.
func (p *Poller) Cancel(quoteID string) {
	p.mu.Lock()
	j, ok := p.jobs[quoteID]
	if ok {
		delete(p.jobs, quoteID)
	}
	p.mu.Unlock()

	if ok {
		j.cancel()
		j.checking.Store(false)
	}
}

// Watching reports whether a quote currently has a poll job.
func (p *Poller) Watching(quoteID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.jobs[quoteID]
	return ok
}

func (p *Poller) run(ctx context.Context, j *job, quote *core.MintQuote, events Events) {
	logger := p.logger.With("quote", quote.ID)
	logger.Info("watching invoice", "amount", quote.Amount)

	defer p.Cancel(quote.ID)

	bo := &backoff.Backoff{
		Min:    p.cfg.Interval,
		Max:    4 * p.cfg.Interval,
		Factor: 2,
	}

	ticker := time.NewTicker(p.cfg.Countdown)
	defer ticker.Stop()

	results := make(chan checkResult, 1)
	remaining := p.cfg.Interval

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			remaining -= p.cfg.Countdown
			if events.OnTick != nil {
				events.OnTick(max(remaining, 0))
			}

			if remaining > 0 {
				continue
			}

			remaining = bo.Duration()
			p.check(ctx, j, quote.ID, results)

		case res := <-results:
			switch {
			case res.err == nil && res.quote.State == core.QuoteStateIssued:
				logger.Info("invoice settled")
				if events.OnSettled != nil {
					events.OnSettled(res.quote)
				}
				return

			case res.err == nil:
				// Not settled yet; poll at the base rate again.
				bo.Reset()
				remaining = min(remaining, p.cfg.Interval)

			case terminal(res.err):
				logger.Error("polling stopped", "err", res.err)
				if events.OnFailed != nil {
					events.OnFailed(res.err)
				}
				return

			default:
				// Transport failures re-poll on a stretched interval.
				logger.Warn("check failed, will retry", "err", res.err)
			}
		}
	}
}

// check launches one settlement probe unless one is already in flight. The
// result is discarded if the job was cancelled while the probe was out.
func (p *Poller) check(ctx context.Context, j *job, quoteID string, results chan<- checkResult) {
	if !j.checking.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer j.checking.Store(false)

		quote, err := p.checker.CheckMintQuote(ctx, quoteID)
		if ctx.Err() != nil {
			return
		}

		select {
		case results <- checkResult{quote: quote, err: err}:
		default:
		}
	}()
}

func terminal(err error) bool {
	return errors.Is(err, core.ErrAlreadySpent)
}

package weather

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"todoboard/internal/log"
)

// FetchFunc loads one report.
type FetchFunc func(ctx context.Context) (Report, error)

// Refresher runs a fetch on a cron schedule and hands every outcome to
// deliver.
type Refresher struct {
	cron    *cron.Cron
	fetch   FetchFunc
	deliver func(Report, error)
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewRefresher parses spec, e.g. "@every 3m".
func NewRefresher(spec string, fetch FetchFunc, deliver func(Report, error)) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		fetch:   fetch,
		deliver: deliver,
		timeout: 15 * time.Second,
	}
	if _, err := r.cron.AddFunc(spec, r.RunOnce); err != nil {
		return nil, err
	}
	return r, nil
}

// Start fetches once right away, then on schedule.
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.RunOnce()
	r.cron.Start()
}

// Stop halts the schedule and waits for a running fetch.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()
	<-r.cron.Stop().Done()
}

// RunOnce performs a single fetch and delivers the result.
func (r *Refresher) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	rep, err := r.fetch(ctx)
	if err != nil {
		log.Warn("weather refresh failed", "err", err)
	}
	if r.deliver != nil {
		r.deliver(rep, err)
	}
}

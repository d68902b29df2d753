package bot

import (
	"context"
	"time"

	"github.com/susu3304/sharetabbot/internal/logging"
)

// sweeper periodically expires sessions nobody has touched for the idle timeout.
type sweeper struct {
	handler  Handler
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	log      *logging.Logger
	stopChan chan struct{}
	ticker   *time.Ticker
}

func newSweeper(h Handler, idle time.Duration, log *logging.Logger) *sweeper {
	interval := time.Minute
	if idle > 0 && idle < interval {
		interval = idle
	}
	return &sweeper{
		handler:  h,
		idle:     idle,
		interval: interval,
		now:      time.Now,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

func (w *sweeper) start() {
	if w == nil || w.idle <= 0 {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *sweeper) stop() {
	if w == nil || w.ticker == nil {
		return
	}
	close(w.stopChan)
	w.ticker.Stop()
}

func (w *sweeper) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *sweeper) tick(ctx context.Context) {
	cutoff := w.now().Add(-w.idle)
	ids, err := w.handler.Expire(ctx, cutoff)
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to expire idle sessions")
		return
	}
	for _, id := range ids {
		w.log.Debug().Str("conversation", id).Msg("session expired after idle timeout")
	}
}

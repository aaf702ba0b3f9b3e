package slug

import (
	"context"
	"sync"
	"time"
)

const DefaultDelay = 500 * time.Millisecond

// Debouncer retarde l'appel de fn : chaque Trigger annule l'appel en attente
// et relance le délai. Un appel déjà parti n'est pas annulé.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(ctx context.Context, value string)
	timer   *time.Timer
	seq     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func(ctx context.Context, value string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{delay: delay, fn: fn, ctx: ctx, cancel: cancel}
}

func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// Un Trigger plus récent a pu passer entre l'expiration et le verrou.
		current := seq == d.seq && !d.stopped
		d.mu.Unlock()
		if current {
			d.fn(d.ctx, value)
		}
	})
}

// Stop annule l'appel en attente ; les Trigger suivants sont ignorés.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancel()
}

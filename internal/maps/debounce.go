package maps

import (
	"context"
	"sync"
	"time"
)

const DefaultDebounce = 500 * time.Millisecond

// PlaceSearcher is what the Debouncer drives; *Searcher satisfies it.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// Result is one completed search delivered by the Debouncer.
type Result struct {
	Query  string
	Places []Place
	Err    error
}

// Debouncer collapses a burst of keystrokes into one search. Each Submit
// restarts the quiet timer. When it fires, the previous in-flight search is
// cancelled, and a result is only delivered while its query is still the
// latest one submitted.
type Debouncer struct {
	parent   context.Context
	searcher PlaceSearcher
	delay    time.Duration

	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool
	results  chan Result
}

func NewDebouncer(ctx context.Context, searcher PlaceSearcher, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		parent:   ctx,
		searcher: searcher,
		delay:    delay,
		results:  make(chan Result, 1),
	}
}

// Results is closed by Close.
func (d *Debouncer) Results() <-chan Result {
	return d.results
}

func (d *Debouncer) Submit(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, query) })
}

func (d *Debouncer) fire(seq uint64, query string) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	if d.inflight != nil {
		d.inflight()
	}
	ctx, cancel := context.WithCancel(d.parent)
	d.inflight = cancel
	d.mu.Unlock()

	places, err := d.searcher.Search(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()
	cancel()
	if d.closed || seq != d.seq {
		return
	}
	res := Result{Query: query, Places: places, Err: err}
	select {
	case d.results <- res:
	default:
		// Replace an unread older result.
		select {
		case <-d.results:
		default:
		}
		d.results <- res
	}
}

func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.inflight != nil {
		d.inflight()
	}
	close(d.results)
}

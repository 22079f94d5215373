package web

import (
	"context"
	"sync"
	"time"

	"github.com/alnah/go-chunkscribe/internal/format"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
)

// State is the lifecycle stage of a run.
type State string

// Run states. Every run ends in exactly one of the last three.
const (
	StateRunning  State = "running"
	StateDone     State = "done"
	StateFailed   State = "failed"
	StateCanceled State = "canceled"
)

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCanceled
}

// Status is the JSON view of a run, sent by the status endpoint and as
// websocket events.
type Status struct {
	ID        string   `json:"id"`
	State     State    `json:"state"`
	Filename  string   `json:"filename"`
	Size      string   `json:"size"`
	Done      int      `json:"done"`
	Total     int      `json:"total"`
	Duration  string   `json:"duration,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Text      string   `json:"text,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// run is one isolated transcription task. Its fields are guarded by mu;
// subscribers receive the latest status and are closed when the run ends.
type run struct {
	id       string
	filename string
	size     int64
	cancel   context.CancelFunc

	mu       sync.Mutex
	state    State
	done     int
	total    int
	result   pipeline.Result
	finished time.Time
	subs     map[chan Status]struct{}
}

func newRun(id, filename string, size int64, cancel context.CancelFunc) *run {
	return &run{
		id:       id,
		filename: filename,
		size:     size,
		cancel:   cancel,
		state:    StateRunning,
		subs:     make(map[chan Status]struct{}),
	}
}

// status must be called with mu held.
func (r *run) status() Status {
	s := Status{
		ID:       r.id,
		State:    r.state,
		Filename: r.filename,
		Size:     format.Size(r.size),
		Done:     r.done,
		Total:    r.total,
	}
	if r.result.Duration > 0 {
		s.Duration = format.Duration(r.result.Duration)
	}
	if r.state.Terminal() {
		s.Languages = r.result.Languages
		s.Text = r.result.Text
		s.Error = r.result.Reason()
	}
	return s
}

// Status returns a snapshot.
func (r *run) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status()
}

func (r *run) progress(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done, r.total = done, total
	r.publish()
}

func (r *run) finish(res pipeline.Result, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result = res
	r.finished = at
	if res.Chunks > 0 {
		r.total = res.Chunks
	}
	switch {
	case res.OK():
		r.state = StateDone
		r.done = r.total
	case isCanceled(res.Err):
		r.state = StateCanceled
	default:
		r.state = StateFailed
	}

	r.publish()
	for ch := range r.subs {
		close(ch)
		delete(r.subs, ch)
	}
}

// publish delivers the current status without blocking. A slow subscriber
// only ever sees the latest status. Must be called with mu held.
func (r *run) publish() {
	s := r.status()
	for ch := range r.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

// subscribe returns a channel that yields the current status immediately,
// then every change until the run ends, when it is closed.
func (r *run) subscribe() (<-chan Status, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Status, 1)
	ch <- r.status()
	if r.state.Terminal() {
		close(ch)
		return ch, func() {}
	}
	r.subs[ch] = struct{}{}

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
	}
}

// expired reports whether the run ended more than retention before now.
func (r *run) expired(now time.Time, retention time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Terminal() && now.Sub(r.finished) > retention
}

// registry holds the runs of this process, keyed by identifier.
type registry struct {
	retention time.Duration
	now       func() time.Time

	mu   sync.Mutex
	runs map[string]*run
}

func newRegistry(retention time.Duration, now func() time.Time) *registry {
	return &registry{
		retention: retention,
		now:       now,
		runs:      make(map[string]*run),
	}
}

func (g *registry) add(r *run) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs[r.id] = r
}

func (g *registry) get(id string) (*run, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.runs[id]
	return r, ok
}

// evict drops finished runs older than the retention period and returns
// how many were removed.
func (g *registry) evict() int {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for id, r := range g.runs {
		if r.expired(now, g.retention) {
			delete(g.runs, id)
			n++
		}
	}
	return n
}

// cancelAll cancels every unfinished run.
func (g *registry) cancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.runs {
		r.cancel()
	}
}

func (g *registry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.runs)
}

package document

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Registry owns every tracked document and serialises mutations to them.
//
// Subscribers are called synchronously after each event that changes a
// record, in registration order and in the order events were applied. A
// subscriber may read from the registry, but it must not call HandleEvent
// from inside the callback.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string

	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     []*subscription
	nextSub  int

	opts options
}

type subscription struct {
	id int
	fn func(Record)
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		records: make(map[string]*Record),
		opts:    o,
	}
}

// Register starts tracking a document in the queued state and returns its id.
func (r *Registry) Register(meta Metadata) (string, error) {
	if err := ValidateMetadata(meta, r.opts.limits); err != nil {
		return "", err
	}

	rec := &Record{
		ID:           r.opts.newID(),
		Name:         strings.TrimSpace(meta.Name),
		SizeBytes:    meta.SizeBytes,
		MIMEType:     meta.MIMEType,
		Status:       StatusQueued,
		RegisteredAt: r.opts.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.ID]; exists {
		return "", fmt.Errorf("duplicate document id %q", rec.ID)
	}
	r.records[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return rec.ID, nil
}

// HandleEvent applies an adapter event to a document. On failure the stored
// record is unchanged and no subscriber is notified.
func (r *Registry) HandleEvent(id string, ev Event) (Record, error) {
	// Lock order is notifyMu then mu. Subscribers run with only notifyMu held,
	// so they may read from the registry.
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	out, changed, err := r.apply(id, ev)
	if err != nil || !changed {
		return out, err
	}
	for _, fn := range r.subscribers() {
		fn(out.clone())
	}
	return out, nil
}

func (r *Registry) apply(id string, ev Event) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.records[id]
	if !ok {
		return Record{}, false, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}

	next, changed, err := Apply(*current, ev, r.opts.now())
	if err != nil {
		r.opts.logger.Warn("rejected adapter event",
			"document_id", id,
			"status", current.Status,
			"event", ev.Kind,
			"error", err,
		)
		return Record{}, false, err
	}
	if !changed {
		return current.clone(), false, nil
	}
	*current = next
	return next.clone(), true, nil
}

// Get returns a copy of the document.
func (r *Registry) Get(id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	return rec.clone(), nil
}

// List returns every document in registration order. Each iteration takes a
// fresh snapshot, so the sequence can be ranged over repeatedly.
func (r *Registry) List() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, rec := range r.snapshot() {
			if !yield(rec) {
				return
			}
		}
	}
}

// Len returns the number of tracked documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Delete stops tracking a document. Its id is never reissued.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	delete(r.records, id)
	r.order = slices.DeleteFunc(r.order, func(existing string) bool { return existing == id })
	return nil
}

// Subscribe registers fn for every applied change. The returned function
// removes the subscription and is safe to call more than once.
func (r *Registry) Subscribe(fn func(Record)) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.nextSub++
	sub := &subscription{id: r.nextSub, fn: fn}
	r.subs = append(r.subs, sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			defer r.subMu.Unlock()
			r.subs = slices.DeleteFunc(r.subs, func(s *subscription) bool { return s.id == sub.id })
		})
	}
}

func (r *Registry) subscribers() []func(Record) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	fns := make([]func(Record), 0, len(r.subs))
	for _, s := range r.subs {
		fns = append(fns, s.fn)
	}
	return fns
}

func (r *Registry) snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].clone())
	}
	return out
}

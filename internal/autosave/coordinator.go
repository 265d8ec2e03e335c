package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bads1de/CareerRise/internal/resumes"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Saver persists a snapshot and returns the stored record.
type Saver interface {
	Save(ctx context.Context, snap resumes.Snapshot) (resumes.Resume, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, snap resumes.Snapshot) (resumes.Resume, error)

func (f SaverFunc) Save(ctx context.Context, snap resumes.Snapshot) (resumes.Resume, error) {
	return f(ctx, snap)
}

// UserSaver saves through the resume service on behalf of one user.
type UserSaver struct {
	Svc    *resumes.Service
	UserID string
}

func (s UserSaver) Save(ctx context.Context, snap resumes.Snapshot) (resumes.Resume, error) {
	return s.Svc.Save(ctx, s.UserID, snap)
}

type Options struct {
	Saver Saver
	// Delay is the debounce quiet period; DefaultDelay when zero.
	Delay time.Duration
	// Initial is the stored resume being edited, nil for a new one.
	Initial *resumes.Resume
	// OnIDChange is called when a save assigns a new resume id.
	OnIDChange func(id string)
	// OnSaved is called after every successful save.
	OnSaved func(resumes.Resume)
	// OnError is called when a save fails; the coordinator then waits for
	// Retry or a new edit.
	OnError func(error)
	Clock   func() time.Time
}

// Status is a point-in-time view of an editing session.
type Status struct {
	ResumeID    string
	Saving      bool
	Dirty       bool
	Err         error
	LastSavedAt time.Time
}

// Coordinator autosaves one editing session. At most one save is in flight
// and saves are applied in the order edits settled.
type Coordinator struct {
	ctx       context.Context
	opts      Options
	debouncer *Debouncer[resumes.Snapshot]

	mu          sync.Mutex
	wg          sync.WaitGroup
	id          string
	lastSaved   resumes.Snapshot
	latest      *resumes.Snapshot
	saving      bool
	err         error
	lastSavedAt time.Time
	closed      bool
}

func New(ctx context.Context, opts Options) (*Coordinator, error) {
	if opts.Saver == nil {
		return nil, errors.New("autosave: saver is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	c := &Coordinator{ctx: ctx, opts: opts}
	if opts.Initial != nil {
		c.id = opts.Initial.ID
		c.lastSaved = opts.Initial.Snapshot()
	}
	c.debouncer = NewDebouncer(opts.Delay, c.onSettled)
	return c, nil
}

// Update records the current editor state. It is saved once edits stop for
// the debounce delay.
func (c *Coordinator) Update(snap resumes.Snapshot) {
	c.debouncer.Update(snap.Clone())
}

// Flush skips the remaining quiet period of a pending edit.
func (c *Coordinator) Flush() {
	c.debouncer.Flush()
}

// Retry re-attempts the last settled snapshot after a failed save.
func (c *Coordinator) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return
	}
	c.err = nil
	c.maybeSaveLocked()
}

func (c *Coordinator) ResumeID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Coordinator) State() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	dirty := c.debouncer.Pending()
	if !dirty && c.latest != nil {
		dirty = HasChanges(c.withID(*c.latest), c.lastSaved)
	}
	return Status{
		ResumeID:    c.id,
		Saving:      c.saving,
		Dirty:       dirty,
		Err:         c.err,
		LastSavedAt: c.lastSavedAt,
	}
}

// Close saves any pending edit, waits for in-flight saves and stops the session.
// Edits that settle while Close runs are saved too.
func (c *Coordinator) Close() {
	if snap, ok := c.debouncer.Drain(); ok {
		c.onSettled(snap)
	}
	c.wg.Wait()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Coordinator) onSettled(snap resumes.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = &snap
	// a new settled value clears a previous failure
	c.err = nil
	c.maybeSaveLocked()
}

func (c *Coordinator) withID(s resumes.Snapshot) resumes.Snapshot {
	s.ID = c.id
	return s
}

func (c *Coordinator) maybeSaveLocked() {
	if c.closed || c.saving || c.err != nil || c.latest == nil {
		return
	}
	target := c.withID(c.latest.Clone())
	if !HasChanges(target, c.lastSaved) {
		return
	}

	payload := target.Clone()
	if samePhoto(payload.Photo, c.lastSaved.Photo) {
		payload.Photo = resumes.NoPhoto()
	}

	c.saving = true
	c.wg.Add(1)
	go c.run(target, payload)
}

func (c *Coordinator) run(target, payload resumes.Snapshot) {
	defer c.wg.Done()
	res, err := c.opts.Saver.Save(c.ctx, payload)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.err = err
		id := c.id
		c.mu.Unlock()
		telemetry.Warn("autosave.failed", map[string]any{"resume_id": id, "error": err})
		if c.opts.OnError != nil {
			c.opts.OnError(err)
		}
		return
	}

	prevID := c.id
	c.id = res.ID
	target.ID = res.ID
	c.lastSaved = target
	c.lastSavedAt = c.opts.Clock()
	c.maybeSaveLocked()
	c.mu.Unlock()

	if res.ID != prevID && c.opts.OnIDChange != nil {
		c.opts.OnIDChange(res.ID)
	}
	if c.opts.OnSaved != nil {
		c.opts.OnSaved(res)
	}
}

package autosave

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bads1de/CareerRise/internal/permissions"
	"github.com/bads1de/CareerRise/internal/resumes"
)

const waitFor = 2 * time.Second

type fakeSaver struct {
	mu          sync.Mutex
	calls       []resumes.Snapshot
	err         error
	release     chan struct{}
	inFlight    int
	maxInFlight int
}

func (f *fakeSaver) Save(_ context.Context, snap resumes.Snapshot) (resumes.Resume, error) {
	f.mu.Lock()
	f.calls = append(f.calls, snap.Clone())
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	release, err := f.release, f.err
	f.mu.Unlock()

	if release != nil {
		<-release
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	if err != nil {
		return resumes.Resume{}, err
	}
	id := snap.ID
	if id == "" {
		id = "resume-1"
	}
	return resumes.Resume{ID: id, Content: snap.Content}, nil
}

func (f *fakeSaver) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSaver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSaver) call(i int) resumes.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func newCoordinator(t *testing.T, saver Saver, opts Options) *Coordinator {
	t.Helper()
	opts.Saver = saver
	if opts.Delay == 0 {
		opts.Delay = 10 * time.Millisecond
	}
	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func settle(c *Coordinator, snap resumes.Snapshot) {
	c.Update(snap)
	c.Flush()
}

func idle(c *Coordinator) func() bool {
	return func() bool { return !c.State().Saving }
}

func TestCoordinatorFirstSaveAdoptsID(t *testing.T) {
	saver := &fakeSaver{}
	ids := make(chan string, 4)
	c := newCoordinator(t, saver, Options{OnIDChange: func(id string) { ids <- id }})

	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "cv"}})

	require.Eventually(t, func() bool { return c.ResumeID() == "resume-1" }, waitFor, 5*time.Millisecond)
	assert.Equal(t, "", saver.call(0).ID, "first save carries no id")
	assert.Equal(t, "resume-1", <-ids)

	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "cv 2"}})
	require.Eventually(t, func() bool { return saver.callCount() == 2 }, waitFor, 5*time.Millisecond)
	require.Eventually(t, idle(c), waitFor, 5*time.Millisecond)
	assert.Equal(t, "resume-1", saver.call(1).ID)
	assert.Empty(t, ids, "id did not change on second save")
}

func TestCoordinatorSkipsUnchangedSnapshot(t *testing.T) {
	saver := &fakeSaver{}
	c := newCoordinator(t, saver, Options{})

	snap := resumes.Snapshot{Content: resumes.Content{Title: "cv"}}
	settle(c, snap)
	require.Eventually(t, func() bool { return c.State().LastSavedAt.After(time.Time{}) }, waitFor, 5*time.Millisecond)

	settle(c, snap)
	settle(c, snap.Clone())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, saver.callCount())
	assert.False(t, c.State().Dirty)
}

func TestCoordinatorOmitsUnchangedPhoto(t *testing.T) {
	saver := &fakeSaver{}
	c := newCoordinator(t, saver, Options{})

	file := &resumes.FileUpload{Name: "me.png", Size: 3, Type: "image/png", LastModified: 1, Data: []byte{1, 2, 3}}
	snap := resumes.Snapshot{Photo: resumes.PhotoUpload(file), Content: resumes.Content{Title: "cv"}}
	settle(c, snap)
	require.Eventually(t, func() bool { return c.ResumeID() != "" }, waitFor, 5*time.Millisecond)
	assert.Equal(t, resumes.PhotoFile, saver.call(0).Photo.Kind)

	snap.Title = "cv edited"
	settle(c, snap)
	require.Eventually(t, func() bool { return saver.callCount() == 2 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, resumes.PhotoAbsent, saver.call(1).Photo.Kind)

	require.Eventually(t, idle(c), waitFor, 5*time.Millisecond)
	snap.Photo = resumes.RemovePhoto()
	settle(c, snap)
	require.Eventually(t, func() bool { return saver.callCount() == 3 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, resumes.PhotoRemove, saver.call(2).Photo.Kind)
}

func TestCoordinatorSingleSaveInFlight(t *testing.T) {
	saver := &fakeSaver{release: make(chan struct{})}
	c := newCoordinator(t, saver, Options{})

	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "v1"}})
	require.Eventually(t, func() bool { return saver.callCount() == 1 }, waitFor, 5*time.Millisecond)
	assert.True(t, c.State().Saving)

	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "v2"}})
	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "v3"}})
	assert.Equal(t, 1, saver.callCount())

	close(saver.release)
	require.Eventually(t, func() bool { return saver.callCount() == 2 }, waitFor, 5*time.Millisecond)
	require.Eventually(t, idle(c), waitFor, 5*time.Millisecond)

	assert.Equal(t, "v3", saver.call(1).Title)
	assert.Equal(t, "resume-1", saver.call(1).ID)
	saver.mu.Lock()
	assert.Equal(t, 1, saver.maxInFlight)
	saver.mu.Unlock()
}

func TestCoordinatorErrorStateAndRetry(t *testing.T) {
	saver := &fakeSaver{err: errors.New("network down")}
	errs := make(chan error, 4)
	c := newCoordinator(t, saver, Options{OnError: func(err error) { errs <- err }})

	snap := resumes.Snapshot{Content: resumes.Content{Title: "cv"}}
	settle(c, snap)
	require.Eventually(t, func() bool { return c.State().Err != nil }, waitFor, 5*time.Millisecond)
	assert.EqualError(t, <-errs, "network down")
	assert.True(t, c.State().Dirty)

	// no automatic re-attempt while in the error state
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, saver.callCount())

	saver.setErr(nil)
	c.Retry()
	require.Eventually(t, func() bool { return c.ResumeID() == "resume-1" }, waitFor, 5*time.Millisecond)
	assert.Equal(t, 2, saver.callCount())
	assert.Equal(t, "cv", saver.call(1).Title)
	assert.NoError(t, c.State().Err)
}

func TestCoordinatorNewEditClearsError(t *testing.T) {
	saver := &fakeSaver{err: errors.New("timeout")}
	c := newCoordinator(t, saver, Options{})

	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "a"}})
	require.Eventually(t, func() bool { return c.State().Err != nil }, waitFor, 5*time.Millisecond)

	saver.setErr(nil)
	settle(c, resumes.Snapshot{Content: resumes.Content{Title: "b"}})
	require.Eventually(t, func() bool { return c.ResumeID() != "" }, waitFor, 5*time.Millisecond)
	assert.Equal(t, "b", saver.call(1).Title)
}

func TestCoordinatorInitialResumeIsBaseline(t *testing.T) {
	saver := &fakeSaver{}
	url := "https://cdn.test/resume_photos/a.png"
	initial := &resumes.Resume{
		ID:       "5f0c5a4e-8d0b-4a43-9a43-1f0c2f5e7a10",
		PhotoURL: &url,
		Content:  resumes.Content{Title: "existing"},
	}
	c := newCoordinator(t, saver, Options{Initial: initial})
	assert.Equal(t, initial.ID, c.ResumeID())

	settle(c, resumes.Snapshot{Photo: resumes.PhotoAt(url), Content: resumes.Content{Title: "existing"}})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, saver.callCount())

	settle(c, resumes.Snapshot{Photo: resumes.PhotoAt(url), Content: resumes.Content{Title: "renamed"}})
	require.Eventually(t, func() bool { return saver.callCount() == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, initial.ID, saver.call(0).ID)
	assert.Equal(t, resumes.PhotoAbsent, saver.call(0).Photo.Kind)
}

func TestCoordinatorCloseFlushesPendingEdit(t *testing.T) {
	saver := &fakeSaver{}
	c, err := New(context.Background(), Options{Saver: saver, Delay: time.Hour})
	require.NoError(t, err)

	c.Update(resumes.Snapshot{Content: resumes.Content{Title: "unsaved"}})
	c.Close()
	assert.Equal(t, 1, saver.callCount())

	c.Update(resumes.Snapshot{Content: resumes.Content{Title: "after close"}})
	c.Flush()
	assert.Equal(t, 1, saver.callCount())
}

func TestCoordinatorCloseSavesEditSettlingDuringClose(t *testing.T) {
	saver := &fakeSaver{}
	c, err := New(context.Background(), Options{Saver: saver, Delay: time.Millisecond})
	require.NoError(t, err)

	// Hold the session lock so the settled edit is stuck inside its callback.
	c.mu.Lock()
	c.Update(resumes.Snapshot{Content: resumes.Content{Title: "last edit"}})
	require.Eventually(t, func() bool { return !c.debouncer.Pending() }, waitFor, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	time.Sleep(20 * time.Millisecond)
	c.mu.Unlock()

	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("Close did not return")
	}
	require.Equal(t, 1, saver.callCount())
	assert.Equal(t, "last edit", saver.call(0).Title)
}

func TestNewRequiresSaver(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

type freeTier struct{}

func (freeTier) TierFor(context.Context, string) (permissions.Tier, error) {
	return permissions.Free, nil
}

type countingStore struct {
	mu      sync.Mutex
	puts    int
	deletes int
}

func (s *countingStore) Put(_ context.Context, key, _ string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	return "https://cdn.test/" + key, nil
}

func (s *countingStore) Delete(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	return nil
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts, s.deletes
}

func TestCoordinatorWithResumeServiceUploadsPhotoOnce(t *testing.T) {
	store := &countingStore{}
	repo := resumes.NewMemoryRepo()
	svc := &resumes.Service{Repo: repo, Store: store, Tiers: freeTier{}}
	c := newCoordinator(t, UserSaver{Svc: svc, UserID: "u1"}, Options{})

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	file := &resumes.FileUpload{Name: "me.png", Size: int64(len(png)), Type: "image/png", LastModified: 1700000000000, Data: png}
	snap := resumes.Snapshot{Photo: resumes.PhotoUpload(file), Content: resumes.Content{Title: "cv"}}

	settle(c, snap)
	require.Eventually(t, func() bool { return c.ResumeID() != "" && !c.State().Saving }, waitFor, 5*time.Millisecond)
	stored, err := svc.Get(context.Background(), "u1", c.ResumeID())
	require.NoError(t, err)
	require.NotNil(t, stored.PhotoURL)
	puts, deletes := store.counts()
	assert.Equal(t, 1, puts)
	assert.Equal(t, 0, deletes)

	snap.Title = "cv v2"
	settle(c, snap)
	require.Eventually(t, func() bool {
		got, err := svc.Get(context.Background(), "u1", c.ResumeID())
		return err == nil && got.Title == "cv v2"
	}, waitFor, 5*time.Millisecond)
	require.Eventually(t, idle(c), waitFor, 5*time.Millisecond)

	puts, deletes = store.counts()
	assert.Equal(t, 1, puts, "unchanged photo must not be uploaded again")
	assert.Equal(t, 0, deletes)

	again, err := svc.Get(context.Background(), "u1", c.ResumeID())
	require.NoError(t, err)
	assert.Equal(t, *stored.PhotoURL, *again.PhotoURL)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1, "autosave must update the same resume")
}

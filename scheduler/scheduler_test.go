package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"midloop/content"
)

// Mock job for testing
type MockJob struct {
	name     string
	runCount atomic.Int32
}

func (j *MockJob) Name() string {
	return j.name
}

func (j *MockJob) Run(ctx context.Context) error {
	j.runCount.Add(1)
	return nil
}

func TestScheduler(t *testing.T) {
	s := NewScheduler(nil, nil)
	mockJob := &MockJob{name: "test_job"}

	// Test adding a job
	err := s.AddJob("* * * * * *", mockJob) // Run every second
	if err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}

	if err := s.AddJob("* * * * * *", mockJob); err == nil {
		t.Error("Adding the same job twice should have failed")
	}

	// Start the scheduler
	s.Start()
	defer s.Stop()

	// Wait for the job to run at least once
	time.Sleep(2 * time.Second)

	// Verify the job ran
	if mockJob.runCount.Load() == 0 {
		t.Error("Job did not run")
	}

	// Test running a job now
	initialRunCount := mockJob.runCount.Load()
	err = s.RunJobNow(context.Background(), "test_job")
	if err != nil {
		t.Fatalf("Failed to run job now: %v", err)
	}

	if mockJob.runCount.Load() < initialRunCount+1 {
		t.Errorf("RunJobNow did not increment run count")
	}

	// Test running a non-existent job
	err = s.RunJobNow(context.Background(), "non_existent_job")
	if err == nil {
		t.Error("Running non-existent job should have failed")
	}
}

func TestDefaultSchedule(t *testing.T) {
	loc, err := time.LoadLocation("UTC")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}
	s := NewScheduler(nil, loc)
	mockJob := &MockJob{name: "test_daily_job"}

	if err := s.AddJob(DefaultSchedule, mockJob); err != nil {
		t.Fatalf("Failed to add daily job: %v", err)
	}
	if err := s.AddJob("not a spec", &MockJob{name: "broken"}); err == nil {
		t.Error("Invalid spec should have been rejected")
	}

	s.Start()
	defer s.Stop()

	next, ok := s.Next()
	if !ok {
		t.Fatal("Expected a next run time")
	}
	if h := next.In(loc).Hour(); h != 10 && h != 17 {
		t.Errorf("Expected next run at 10:00 or 17:00, got %s", next)
	}

	// Verify the job is registered
	err = s.RunJobNow(context.Background(), "test_daily_job")
	if err != nil {
		t.Errorf("Daily job not registered correctly: %v", err)
	}
}

type fakeCatalog struct {
	live      []content.StandardItem
	refreshed int
}

func (c *fakeCatalog) Refresh(ctx context.Context) map[string][]content.StandardItem {
	c.refreshed++
	return map[string][]content.StandardItem{"movies": c.live}
}

func (c *fakeCatalog) Live(ctx context.Context) []content.StandardItem { return c.live }

type fakeBookmarks struct {
	got []content.StandardItem
	err error
}

func (b *fakeBookmarks) Refresh(ctx context.Context, live []content.StandardItem) (int, error) {
	b.got = live
	return len(live), b.err
}

func (b *fakeBookmarks) Keys() (map[string]bool, error) {
	return map[string]bool{"movie:1": true}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	keys  map[string]bool
	err   error
}

func (n *fakeNotifier) NotifyReleases(items []content.StandardItem, bookmarked map[string]bool, now time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.keys = bookmarked
	return n.err
}

func TestRefreshJob(t *testing.T) {
	live := []content.StandardItem{{ID: "1", Title: "Dune"}}
	cat := &fakeCatalog{live: live}
	bm := &fakeBookmarks{}
	notify := &fakeNotifier{err: errors.New("smtp down")}

	job := NewRefreshJob(cat, bm, notify, nil, nil)
	if job.Name() != "catalog_refresh" {
		t.Errorf("Unexpected job name %q", job.Name())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Refresh job failed: %v", err)
	}
	if cat.refreshed != 1 {
		t.Errorf("Expected one catalog refresh, got %d", cat.refreshed)
	}
	if len(bm.got) != 1 {
		t.Errorf("Bookmarks were not refreshed against live data")
	}
	if notify.calls != 1 || !notify.keys["movie:1"] {
		t.Errorf("Digest not sent with bookmark keys: calls=%d keys=%v", notify.calls, notify.keys)
	}
}

func TestRefreshJobBookmarkFailure(t *testing.T) {
	job := NewRefreshJob(&fakeCatalog{}, &fakeBookmarks{err: errors.New("disk full")}, nil, nil, nil)
	if err := job.Run(context.Background()); err == nil {
		t.Error("Expected bookmark refresh failure to fail the job")
	}
}

func TestRefreshJobCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bm := &fakeBookmarks{}
	job := NewRefreshJob(&fakeCatalog{}, bm, nil, nil, nil)
	if err := job.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if bm.got != nil {
		t.Error("Bookmarks should not be refreshed after cancellation")
	}
}

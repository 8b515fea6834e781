package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/prematch/internal/notify"
	"github.com/username/prematch/internal/provider"
	"github.com/username/prematch/internal/store"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

// newDaemon builds a daemon over the upper school fixture with the clock
// fixed at now.
func newDaemon(t *testing.T, now time.Time) (*Daemon, *store.FileStore) {
	t.Helper()
	loc := newYork(t)
	st := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	p := provider.New(st, loc, zap.NewNop())

	data, err := os.ReadFile(filepath.Join("..", "definition", "testdata", "calendar.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.StoreCalendar(context.Background(), data); err != nil {
		t.Fatalf("StoreCalendar() error = %v", err)
	}

	d := New(p, st, Settings{
		BriefingTime: "6:45",
		Limit:        5,
		RenewCron:    "@every 1h",
		Location:     loc,
	}, zap.NewNop())
	d.now = func() time.Time { return now }
	return d, st
}

func TestRenewNow(t *testing.T) {
	loc := newYork(t)
	d, st := newDaemon(t, time.Date(2018, 9, 4, 6, 0, 0, 0, loc))
	ctx := context.Background()

	result, err := d.RenewNow(ctx)
	if err != nil {
		t.Fatalf("RenewNow() error = %v", err)
	}
	want := []string{"d2018-09-04", "d2018-09-05", "d2018-09-06", "d2018-09-07", "d2018-09-11"}
	if !reflect.DeepEqual(result.Added, want) {
		t.Errorf("Added = %v, want %v", result.Added, want)
	}

	reqs, err := st.PendingRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 5 || !reqs[0].Trigger.Equal(time.Date(2018, 9, 4, 6, 45, 0, 0, loc)) {
		t.Errorf("PendingRequests() = %+v", reqs)
	}
}

func TestRenewNowPrunesAndSkipsPassedBriefing(t *testing.T) {
	loc := newYork(t)
	d, st := newDaemon(t, time.Date(2018, 9, 4, 6, 0, 0, 0, loc))
	ctx := context.Background()

	if _, err := d.RenewNow(ctx); err != nil {
		t.Fatalf("RenewNow() error = %v", err)
	}

	d.now = func() time.Time { return time.Date(2018, 9, 6, 7, 0, 0, 0, loc) }
	result, err := d.RenewNow(ctx)
	if err != nil {
		t.Fatalf("second RenewNow() error = %v", err)
	}
	if want := []string{"d2018-09-12", "d2018-09-13", "d2018-09-14"}; !reflect.DeepEqual(result.Added, want) {
		t.Errorf("Added = %v, want %v", result.Added, want)
	}

	ids, _ := st.PendingIdentifiers(ctx)
	want := []string{"d2018-09-07", "d2018-09-11", "d2018-09-12", "d2018-09-13", "d2018-09-14"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("PendingIdentifiers() = %v, want %v", ids, want)
	}
}

func TestRenewNowErrors(t *testing.T) {
	loc := newYork(t)

	d, _ := newDaemon(t, time.Date(2019, 7, 1, 9, 0, 0, 0, loc))
	if _, err := d.RenewNow(context.Background()); !errors.Is(err, notify.ErrYearEnded) {
		t.Errorf("RenewNow() in summer error = %v, want ErrYearEnded", err)
	}

	st := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	empty := New(provider.New(st, loc, zap.NewNop()), st, Settings{BriefingTime: "6:45"}, zap.NewNop())
	if _, err := empty.RenewNow(context.Background()); !errors.Is(err, provider.ErrNoCalendar) {
		t.Errorf("RenewNow() without calendar error = %v, want ErrNoCalendar", err)
	}

	d, _ = newDaemon(t, time.Date(2018, 9, 4, 6, 0, 0, 0, loc))
	d.running = true
	if _, err := d.RenewNow(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("overlapping RenewNow() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRun(t *testing.T) {
	loc := newYork(t)
	d, st := newDaemon(t, time.Date(2018, 9, 4, 6, 0, 0, 0, loc))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		status := d.GetStatus()
		if status["running"] == true && status["last_run"] != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon did not start: %v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	ids, _ := st.PendingIdentifiers(context.Background())
	if len(ids) != 5 {
		t.Errorf("pending after Run() = %v, want 5 identifiers", ids)
	}
	if d.GetStatus()["running"] != false {
		t.Error("GetStatus() reports running after Run() returned")
	}
}

func TestRunRejectsBadSchedule(t *testing.T) {
	d, _ := newDaemon(t, time.Now())
	d.settings.RenewCron = "whenever"
	if err := d.Run(context.Background()); err == nil {
		t.Error("Run() with bad schedule error = nil")
	}
}

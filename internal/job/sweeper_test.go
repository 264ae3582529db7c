package job

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeDeactivator struct {
	before time.Time
	calls  int
	n      int64
	err    error
}

func (f *fakeDeactivator) DeactivateIdle(ctx context.Context, before time.Time) (int64, error) {
	f.calls++
	f.before = before
	return f.n, f.err
}

func TestSweepIdleConversations(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	repo := &fakeDeactivator{n: 3}
	if got := SweepIdleConversations(context.Background(), repo, 30, now); got != 3 {
		t.Errorf("swept %d, want 3", got)
	}
	if want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC); !repo.before.Equal(want) {
		t.Errorf("before = %v, want %v", repo.before, want)
	}

	disabled := &fakeDeactivator{n: 3}
	if got := SweepIdleConversations(context.Background(), disabled, 0, now); got != 0 || disabled.calls != 0 {
		t.Errorf("idleDays=0 swept %d with %d calls", got, disabled.calls)
	}

	failing := &fakeDeactivator{n: 5, err: errors.New("db down")}
	if got := SweepIdleConversations(context.Background(), failing, 30, now); got != 0 {
		t.Errorf("failing sweep returned %d", got)
	}
}

func TestScheduler_RegisterIdleSweep(t *testing.T) {
	s := NewScheduler("Not/AZone")

	if err := s.RegisterIdleSweep("not a cron spec", &fakeDeactivator{}, 30); err == nil {
		t.Errorf("expected error for invalid spec")
	}
	if err := s.RegisterIdleSweep("@hourly", &fakeDeactivator{}, 30); err != nil {
		t.Errorf("@hourly: %v", err)
	}
	if err := s.RegisterIdleSweep("0 */5 * * * *", &fakeDeactivator{}, 30); err != nil {
		t.Errorf("six-field spec: %v", err)
	}

	s.Start()
	s.Stop()
}

// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func TestRunnerSerializesRuns(t *testing.T) {
	cfg, deps, fetcher, _, _ := testDeps(t)
	fetcher.block = make(chan struct{})
	runner := NewRunner(cfg, deps)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background())
		done <- err
	}()

	waitFor(t, runner.Running)

	if _, err := runner.Run(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent run: err = %v, want ErrBusy", err)
	}

	close(fetcher.block)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if runner.Running() {
		t.Error("runner still marked running after completion")
	}

	// The guard is released, a new run goes through.
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run after release: %v", err)
	}
}

func TestRunnerStatus(t *testing.T) {
	cfg, deps, _, store, _ := testDeps(t)
	runner := NewRunner(cfg, deps)

	if got := runner.Status(); !got.LastRun.IsZero() {
		t.Fatalf("fresh runner status = %+v, want zero value", got)
	}

	st, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := runner.Status()
	if got.Stories != st.Stories || got.LastRun != st.LastRun {
		t.Errorf("status = %+v, want %+v", got, st)
	}
	if got.Error != "" {
		t.Errorf("status error = %q, want empty", got.Error)
	}

	// A failed run keeps the previous counts and marks the error.
	store.err = errors.New("disk full")
	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	got = runner.Status()
	if got.Error != "refresh operation failed" {
		t.Errorf("status error = %q", got.Error)
	}
	if got.Stories != st.Stories {
		t.Errorf("failed run dropped story count: %d, want %d", got.Stories, st.Stories)
	}
	if got.LastRun != st.LastRun {
		t.Error("failed run should not move LastRun")
	}
}

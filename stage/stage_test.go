package stage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/internal/stats"
	"github.com/itayaharoni2/lineflow/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStageTransformsAndForwards(t *testing.T) {
	var got []string
	var mu sync.Mutex

	s := New("upper", func(line string) (string, error) {
		return line + "!", nil
	}, discardLogger(), &stats.Stage{})

	if err := s.Init(4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Attach(func(line string) error {
		mu.Lock()
		got = append(got, line)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := s.PlaceWork("a"); err != nil {
		t.Fatalf("PlaceWork: %v", err)
	}
	if err := s.PlaceWork("b"); err != nil {
		t.Fatalf("PlaceWork: %v", err)
	}
	if err := s.PlaceWork(queue.Terminator); err != nil {
		t.Fatalf("PlaceWork terminator: %v", err)
	}

	if err := s.WaitFinished(); err != nil {
		t.Fatalf("WaitFinished: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 || got[0] != "a!" || got[1] != "b!" || got[2] != queue.Terminator {
		t.Fatalf("forwarded = %v, want [a! b! <END>]", got)
	}
}

// TestStageTerminatorPassesThroughUntransformed validates that the
// terminator itself never reaches the transform function.
func TestStageTerminatorPassesThroughUntransformed(t *testing.T) {
	called := false
	s := New("noop", func(line string) (string, error) {
		called = true
		return line, nil
	}, discardLogger(), &stats.Stage{})

	if err := s.Init(2); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Attach(nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.PlaceWork(queue.Terminator); err != nil {
		t.Fatalf("PlaceWork: %v", err)
	}
	if err := s.WaitFinished(); err != nil {
		t.Fatalf("WaitFinished: %v", err)
	}
	if called {
		t.Fatal("transform was invoked on the terminator line")
	}
}

// TestStageTransientFailureDoesNotHaltStage validates that a transform
// error is logged and the stage keeps consuming subsequent lines.
func TestStageTransientFailureDoesNotHaltStage(t *testing.T) {
	var got []string
	var mu sync.Mutex
	st := &stats.Stage{}

	s := New("flaky", func(line string) (string, error) {
		if line == "bad" {
			return "", fmt.Errorf("boom: %w", errs.ErrTransient)
		}
		return line, nil
	}, discardLogger(), st)

	if err := s.Init(4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Attach(func(line string) error {
		mu.Lock()
		got = append(got, line)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	for _, line := range []string{"good1", "bad", "good2", queue.Terminator} {
		if err := s.PlaceWork(line); err != nil {
			t.Fatalf("PlaceWork(%q): %v", line, err)
		}
	}
	if err := s.WaitFinished(); err != nil {
		t.Fatalf("WaitFinished: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"good1", "good2", queue.Terminator}
	if len(got) != len(want) {
		t.Fatalf("forwarded = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forwarded = %v, want %v", got, want)
		}
	}

	snap := st.Snapshot()
	if snap.Processed != 2 || snap.TransientFailure != 1 {
		t.Fatalf("snapshot = %+v, want Processed=2 TransientFailure=1", snap)
	}
}

func TestAttachTwiceFails(t *testing.T) {
	s := New("x", func(line string) (string, error) { return line, nil }, discardLogger(), &stats.Stage{})
	if err := s.Init(1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Attach(nil); err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if err := s.Attach(nil); !errors.Is(err, errs.ErrWire) {
		t.Fatalf("second Attach error = %v, want ErrWire", err)
	}
}

func TestInitTwiceFails(t *testing.T) {
	s := New("x", func(line string) (string, error) { return line, nil }, discardLogger(), &stats.Stage{})
	if err := s.Init(1); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := s.Init(1); !errors.Is(err, errs.ErrInit) {
		t.Fatalf("second Init error = %v, want ErrInit", err)
	}
	if err := s.Attach(nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.PlaceWork(queue.Terminator); err != nil {
		t.Fatalf("PlaceWork: %v", err)
	}
	if err := s.WaitFinished(); err != nil {
		t.Fatalf("WaitFinished: %v", err)
	}
}

// TestWaitFinishedBlocksUntilTerminator validates that WaitFinished
// really blocks while the stage still has work pending.
func TestWaitFinishedBlocksUntilTerminator(t *testing.T) {
	s := New("slow", func(line string) (string, error) { return line, nil }, discardLogger(), &stats.Stage{})
	if err := s.Init(4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Attach(nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.PlaceWork("line"); err != nil {
		t.Fatalf("PlaceWork: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = s.WaitFinished()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitFinished returned before the terminator was placed")
	case <-time.After(50 * time.Millisecond):
	}

	if err := s.PlaceWork(queue.Terminator); err != nil {
		t.Fatalf("PlaceWork terminator: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitFinished never returned after the terminator")
	}
}

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cutboard/pkg/cut"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(nil, 8)
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

func TestPostIsSerialized(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Post(func(s *State) { s.Script += "x" })
		}()
	}
	wg.Wait()

	n, err := View(ctx, l, func(s *State) int { return len(s.Script) })
	if err != nil {
		t.Fatal(err)
	}
	if n != 100 {
		t.Fatalf("got %d writes, want 100", n)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	err := Update(ctx, l, func(s *State) {
		s.ScriptCuts = cut.Parse("=== CUT 1 (0:00-0:08) ===\n[Scene]\nA\n")
		s.Jobs["j1"] = &Job{ID: "j1", Cuts: cut.CloneAll(s.ScriptCuts), Created: time.Now()}
	})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := View(ctx, l, (*State).Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	snap.ScriptCuts[0] = snap.ScriptCuts[0].WithPrompt("changed")
	snap.Jobs["j1"].Status = JobFailed

	after, _ := View(ctx, l, (*State).Snapshot)
	if after.ScriptCuts[0].ImagePrompt != nil || after.Jobs["j1"].Status != "" {
		t.Fatalf("snapshot writes leaked into state: %+v", after)
	}
}

func TestGoDeliversOnLoop(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	f := Go(ctx, l, func(context.Context) ([]cut.Cut, error) {
		return cut.SplitLyrics("one\ntwo"), nil
	}, func(s *State, cuts []cut.Cut, err error) {
		if err == nil {
			s.LyricCuts = cuts
		}
	})
	cuts, err := f.Wait(ctx)
	if err != nil || len(cuts) != 2 {
		t.Fatalf("Wait = %v, %v", cuts, err)
	}
	n, _ := View(ctx, l, func(s *State) int { return len(s.LyricCuts) })
	if n != 2 {
		t.Fatalf("result not delivered before Wait returned, have %d lyric cuts", n)
	}

	boom := errors.New("boom")
	_, err = Go(ctx, l, func(context.Context) (int, error) { return 0, boom }, nil).Wait(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestStoppedLoopRejectsMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(nil, 0)
	go l.Run(ctx)
	cancel()
	<-l.Done()

	if err := l.Post(func(*State) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, err := View(context.Background(), l, func(*State) int { return 1 }); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestPanickingMessageKeepsLoopAlive(t *testing.T) {
	l := startLoop(t)
	_ = l.Post(func(*State) { panic("bad message") })
	tab, err := View(context.Background(), l, func(s *State) Tab { return s.Tab })
	if err != nil || tab != TabScript {
		t.Fatalf("loop should survive a panic: %v %v", tab, err)
	}
}

func TestSetCutMirrorsLatestCuts(t *testing.T) {
	s := NewState()
	s.Jobs["a"] = &Job{ID: "a", Kind: cut.Lyric, Cuts: cut.SplitLyrics("x\ny")}
	if !s.SetCut("a", 1, s.Jobs["a"].Cuts[1].WithPrompt("p")) {
		t.Fatal("SetCut failed")
	}
	if s.SetCut("a", 5, cut.Cut{}) || s.SetCut("missing", 0, cut.Cut{}) {
		t.Fatal("SetCut should reject bad targets")
	}
	if len(s.LyricCuts) != 2 || s.LyricCuts[1].Prompt() != "p" {
		t.Fatalf("lyric cuts not refreshed: %+v", s.LyricCuts)
	}
	if _, ok := ParseTab("trends"); !ok {
		t.Fatal("trends tab should parse")
	}
}

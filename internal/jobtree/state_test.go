package jobtree

import "testing"

func TestCanTransition_table(t *testing.T) {
	allowed := map[[2]State]bool{
		{Born, Checking}:       true,
		{Born, PreRunning}:     true,
		{Born, Running}:        true,
		{Checking, PreRunning}: true,
		{Checking, Running}:    true,
		{Checking, Skipped}:    true,
		{Checking, Failed}:     true,
		{PreRunning, Running}:  true,
		{PreRunning, Failed}:   true,
		{Running, PostRunning}: true,
		{Running, Success}:     true,
		{Running, Failed}:      true,
		{PostRunning, Success}: true,
		{PostRunning, Failed}:  true,
	}

	states := []State{Born, Checking, PreRunning, Running, PostRunning, Success, Skipped, Failed}
	for _, from := range states {
		for _, to := range states {
			want := allowed[[2]State{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{Success, Skipped, Failed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{Born, Checking, PreRunning, Running, PostRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

package aggregate

import (
	"testing"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

func TestAssertStateValue(t *testing.T) {
	in := State{Throne: throne.State{Pool: 250}}
	out, err := AssertState[State](in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Throne.Pool != 250 {
		t.Fatalf("pool = %d, want 250", out.Throne.Pool)
	}
}

func TestAssertStatePointer(t *testing.T) {
	in := &State{Throne: throne.State{Pool: 100}}
	out, err := AssertState[State](in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Throne.Pool != 100 {
		t.Fatalf("pool = %d, want 100", out.Throne.Pool)
	}
}

func TestAssertStateNilPointerYieldsZero(t *testing.T) {
	var in *State
	out, err := AssertState[State](in)
	if err != nil {
		t.Fatalf("unexpected error for nil pointer: %v", err)
	}
	if out.Throne.Pool != 0 || out.Realm.Name != "" {
		t.Fatalf("expected zero state, got %+v", out)
	}
}

func TestAssertStateNilYieldsZero(t *testing.T) {
	if _, err := AssertState[State](nil); err != nil {
		t.Fatalf("unexpected error for nil: %v", err)
	}
}

func TestAssertStateWrongType(t *testing.T) {
	_, err := AssertState[State]("not a state")
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	want := `expected aggregate.State, got string`
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

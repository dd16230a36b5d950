package aggregate

import (
	"fmt"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

// State captures aggregate core domain state: one realm identity and its
// throne machine, replayed from the same journal.
type State struct {
	Realm  realm.State
	Throne throne.State
}

// AssertState coerces an opaque engine state into T. It accepts a T value, a
// *T (nil yields the zero value), or nil, and rejects anything else.
func AssertState[T any](state any) (T, error) {
	var zero T
	switch typed := state.(type) {
	case nil:
		return zero, nil
	case T:
		return typed, nil
	case *T:
		if typed == nil {
			return zero, nil
		}
		return *typed, nil
	default:
		return zero, fmt.Errorf("expected %T, got %T", zero, state)
	}
}

package unlock

// State is the position of one scope in the unlock state machine.
type State int

const (
	Locked State = iota
	AttemptingRemembered
	PromptingUser
	Unlocked
	Failed
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case AttemptingRemembered:
		return "attempting-remembered"
	case PromptingUser:
		return "prompting"
	case Unlocked:
		return "unlocked"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// waiting reports whether a scope in state s accepts an attempt's result.
func (s State) waiting() bool {
	return s == AttemptingRemembered || s == PromptingUser || s == Failed
}

// scope is the per-scope bookkeeping of a Controller.
type scope struct {
	state State

	// inFlight is set while a typed-password attempt is running.
	inFlight bool

	// generation changes whenever the scope is reset, so a late result can
	// tell that nobody is waiting for it anymore.
	generation uint64
}

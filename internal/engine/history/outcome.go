package history

// Outcome reports what a history operation did.
// None of the outcomes are errors; callers branch on them when they care.
type Outcome int

const (
	// Noop indicates there was nothing to do (empty stack, boundary reached).
	Noop Outcome = iota

	// Applied indicates a snapshot was pushed or restored.
	Applied

	// Duplicate indicates the captured content equals the current snapshot.
	Duplicate

	// Suppressed indicates a record was dropped because a restore is in progress.
	Suppressed

	// Throttled indicates a coalesced record was dropped by the minimum interval.
	Throttled

	// Pending indicates a coalesced record is scheduled.
	Pending

	// Closed indicates the history has been closed.
	Closed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Noop:
		return "noop"
	case Applied:
		return "applied"
	case Duplicate:
		return "duplicate"
	case Suppressed:
		return "suppressed"
	case Throttled:
		return "throttled"
	case Pending:
		return "pending"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

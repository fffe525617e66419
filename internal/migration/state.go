package migration

// State is where a migration operation ended up.
//
//	Pending -> Rejected                      gate closed
//	Pending -> Executing -> Completed        success
//	Pending -> Executing -> Failed           accessor error
type State uint8

const (
	Pending State = iota
	Rejected
	Executing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Rejected:
		return "rejected"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == Rejected || s == Completed || s == Failed
}

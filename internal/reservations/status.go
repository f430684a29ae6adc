package reservations

// Status is the booking lifecycle state. Holds are not part of this
// enum: a hold is active while now < expires_at and expired after,
// which is a fact checked at read time, never a stored status.
type Status string

const (
	StatusTentative Status = "TENTATIVE"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusTentative, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	validTransitions := map[Status][]Status{
		StatusTentative: {StatusConfirmed, StatusCancelled, StatusNoShow},
		StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
		StatusCompleted: {},
		StatusCancelled: {},
		StatusNoShow:    {},
	}

	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Blocks reports whether a booking in this status participates in the
// overlap invariant.
func (s Status) Blocks() bool {
	return s == StatusTentative || s == StatusConfirmed
}

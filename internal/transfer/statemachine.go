package transfer

// Explicit transition tables for both workflows. Statuses absent from a
// table are terminal. No transition skips a state or moves backward.

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusNew:     {RequestStatusPending, RequestStatusCancelled},
	RequestStatusPending: {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
}

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusNew:        {TransferStatusDelivering, TransferStatusRejected},
	TransferStatusDelivering: {TransferStatusCompleted},
}

// IsValid checks if the status is known.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusNew, RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving to the given status is legal.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// IsValid checks if the status is known.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusNew, TransferStatusDelivering, TransferStatusCompleted, TransferStatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving to the given status is legal.
func (s TransferStatus) CanTransition(to TransferStatus) bool {
	for _, next := range transferTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s TransferStatus) IsTerminal() bool {
	return len(transferTransitions[s]) == 0
}

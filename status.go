package session

// BlockingType classifies an administrative account state.
type BlockingType string

const (
	BlockingNone         BlockingType = "none"
	BlockingBanned       BlockingType = "banned"
	BlockingSuspended    BlockingType = "suspended"
	BlockingClosed       BlockingType = "closed"
	BlockingVerification BlockingType = "verification_required"
)

// Hard reports whether the blocking type requires immediate session
// termination, as opposed to a non-blocking advisory.
func (b BlockingType) Hard() bool {
	switch b {
	case BlockingBanned, BlockingSuspended, BlockingClosed:
		return true
	}
	return false
}

// StatusSnapshot is the authoritative account state returned by the status
// endpoint. Each fresh snapshot supersedes the previous one; no history is
// kept.
type StatusSnapshot struct {
	Blocked      bool         `json:"is_blocked"`
	BlockingType BlockingType `json:"blocking_type,omitempty"`
	Reason       string       `json:"reason,omitempty"`
}

// EnsureType normalizes snapshots whose producer left the type empty.
func (s StatusSnapshot) EnsureType() StatusSnapshot {
	if s.BlockingType == "" {
		s.BlockingType = BlockingNone
	}
	if !s.Blocked {
		s.BlockingType = BlockingNone
		s.Reason = ""
	}
	return s
}

// VerificationAdvisory is the soft-block projection of a snapshot. It is
// retained across reconciliation cycles until a fresh snapshot clears it.
type VerificationAdvisory struct {
	Required bool   `json:"required"`
	Reason   string `json:"reason,omitempty"`
}

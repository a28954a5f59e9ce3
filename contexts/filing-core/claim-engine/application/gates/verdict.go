package gates

import (
	"recoup/contexts/filing-core/claim-engine/domain/entities"
)

type Outcome string

const (
	OutcomePass       Outcome = "pass"
	OutcomeSkip       Outcome = "skip"
	OutcomeQuarantine Outcome = "quarantine"
	// OutcomeUnknown means the gate's own query failed. The pipeline applies
	// a fail-open policy to it; callers wanting fail-closed can inspect it.
	OutcomeUnknown Outcome = "unknown"
)

// Verdict is the typed result of one safety gate. FilingStatus/Status are the
// side-track targets to write on the claim; empty values mean no change
// (skip-and-retry-next-run gates).
type Verdict struct {
	Outcome      Outcome
	Gate         string
	Reason       string
	FilingStatus entities.FilingStatus
	Status       entities.ClaimStatus
	Metadata     map[string]any
	Err          error
}

func (v Verdict) Blocked() bool {
	return v.Outcome == OutcomeSkip || v.Outcome == OutcomeQuarantine
}

func Pass(gate string) Verdict {
	return Verdict{Outcome: OutcomePass, Gate: gate}
}

func Skip(gate, reason string, filingStatus entities.FilingStatus) Verdict {
	return Verdict{Outcome: OutcomeSkip, Gate: gate, Reason: reason, FilingStatus: filingStatus}
}

func Quarantine(gate, reason string, filingStatus entities.FilingStatus, metadata map[string]any) Verdict {
	return Verdict{
		Outcome:      OutcomeQuarantine,
		Gate:         gate,
		Reason:       reason,
		FilingStatus: filingStatus,
		Metadata:     metadata,
	}
}

func Unknown(gate string, err error) Verdict {
	return Verdict{Outcome: OutcomeUnknown, Gate: gate, Err: err}
}

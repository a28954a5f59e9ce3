package classify

import "strings"

// RejectionCategory routes a marketplace denial to a retry policy.
type RejectionCategory string

const (
	RejectionAlreadyResolved RejectionCategory = "already_resolved"
	RejectionWrongClaimType  RejectionCategory = "wrong_claim_type"
	RejectionEvidenceNeeded  RejectionCategory = "evidence_needed"
	RejectionUnknown         RejectionCategory = "unknown"
)

// TableVersion identifies the keyword taxonomy below. Bump on any edit so
// routing decisions stored on claims can be traced to the table that made
// them.
const TableVersion = 3

// Keyword tables are matched case-insensitively, first category wins in the
// order already_resolved > wrong_claim_type > evidence_needed. An
// already-resolved denial must never be shadowed by a generic evidence
// phrase: retrying it wastes a filing slot on an unwinnable case.
var (
	alreadyResolvedKeywords = []string{
		"already reimbursed",
		"already been reimbursed",
		"already credited",
		"already compensated",
		"previously reimbursed",
		"reimbursement has been issued",
		"already resolved",
		"duplicate of case",
	}

	wrongClaimTypeKeywords = []string{
		"wrong claim type",
		"incorrect claim type",
		"not eligible for this claim type",
		"filed under the wrong",
		"does not qualify for this type",
		"incorrect category",
	}

	evidenceNeededKeywords = []string{
		"additional documentation",
		"additional information",
		"provide proof",
		"provide documentation",
		"insufficient evidence",
		"insufficient documentation",
		"proof of delivery required",
		"more information is required",
		"supporting documents",
	}

	// informationRequestKeywords flag an in-progress case that is waiting on
	// the seller, before any terminal denial arrives.
	informationRequestKeywords = []string{
		"additional",
		"provide",
		"documentation",
		"required",
	}
)

// Classify maps free-text denial reasons to a category. Pure function; the
// status poller owns what each category means for retry policy.
func Classify(reasonText string) RejectionCategory {
	text := strings.ToLower(reasonText)
	if containsAny(text, alreadyResolvedKeywords) {
		return RejectionAlreadyResolved
	}
	if containsAny(text, wrongClaimTypeKeywords) {
		return RejectionWrongClaimType
	}
	if containsAny(text, evidenceNeededKeywords) {
		return RejectionEvidenceNeeded
	}
	return RejectionUnknown
}

// IsInformationRequest reports whether an in-progress resolution message is
// asking the seller for more material.
func IsInformationRequest(resolutionText string) bool {
	return containsAny(strings.ToLower(resolutionText), informationRequestKeywords)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

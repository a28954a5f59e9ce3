package gates

import "strings"

// KeywordTableVersion identifies the gate keyword taxonomy. Bump on any edit;
// quarantine metadata records the version that matched.
const KeywordTableVersion = 4

// Filing a document that is itself a credit or return record reads as fraud
// to the marketplace. Filename matching is substring, case-insensitive.
var dangerousFilenameKeywords = []string{
	"credit",
	"refund",
	"return",
	"chargeback",
	"debit-note",
	"debit_note",
	"debit note",
}

// Content phrases are checked against parsed document text, triggering
// on-demand parsing when text is missing.
var dangerousContentPhrases = []string{
	"credit note",
	"credit memo",
	"refund issued",
	"amount refunded",
	"refund processed",
	"return authorization",
	"goods returned",
	"returned to sender",
	"chargeback",
	"debit note",
}

// A proof-of-delivery document that never mentions delivery is weak evidence;
// the marketplace rejects these and the rejection hurts the account record.
var podConfirmationKeywords = []string{
	"delivered",
	"delivery confirmation",
	"proof of delivery",
	"received by",
	"signed for",
	"signature",
	"pod",
}

// Claim types that require physical measurement proof the engine cannot
// produce; a human has to attach it before filing.
var dimensionProofClaimTypes = map[string]bool{
	"fee_overcharge_dimensions": true,
	"fee_overcharge_weight":     true,
	"oversize_reclassification": true,
}

func matchDangerousFilename(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	for _, keyword := range dangerousFilenameKeywords {
		if strings.Contains(lower, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func matchDangerousContent(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range dangerousContentPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}

func hasPODConfirmation(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range podConfirmationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func requiresDimensionProof(claimType string) bool {
	return dimensionProofClaimTypes[strings.ToLower(strings.TrimSpace(claimType))]
}

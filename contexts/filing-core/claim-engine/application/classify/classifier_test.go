package classify

import "testing"

func TestClassifyRoutesDenialReasons(t *testing.T) {
	cases := []struct {
		name   string
		reason string
		want   RejectionCategory
	}{
		{"already reimbursed sweep", "Item already reimbursed in FC sweep", RejectionAlreadyResolved},
		{"previously reimbursed", "This unit was previously reimbursed under case 123.", RejectionAlreadyResolved},
		{"duplicate case", "Denied: duplicate of case 40021.", RejectionAlreadyResolved},
		{"wrong type", "This issue was filed under the wrong claim type.", RejectionWrongClaimType},
		{"not eligible for type", "The order is not eligible for this claim type.", RejectionWrongClaimType},
		{"needs documentation", "Please provide additional documentation for the shipment.", RejectionEvidenceNeeded},
		{"insufficient evidence", "Denied due to insufficient evidence.", RejectionEvidenceNeeded},
		{"pod required", "Proof of delivery required before review.", RejectionEvidenceNeeded},
		{"empty reason", "", RejectionUnknown},
		{"free text", "Case reviewed by specialist team.", RejectionUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.reason); got != tc.want {
				t.Fatalf("Classify(%q) = %s, want %s", tc.reason, got, tc.want)
			}
		})
	}
}

func TestClassifyAlreadyResolvedWinsOverEvidencePhrases(t *testing.T) {
	reason := "Item already reimbursed; provide additional documentation if you disagree."
	if got := Classify(reason); got != RejectionAlreadyResolved {
		t.Fatalf("expected already_resolved to take priority, got %s", got)
	}
}

func TestIsInformationRequest(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Please provide additional documentation", true},
		{"More details required to proceed", true},
		{"Your case is under review", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsInformationRequest(tc.text); got != tc.want {
			t.Fatalf("IsInformationRequest(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

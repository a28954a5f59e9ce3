package gates

import "testing"

func TestMatchDangerousFilename(t *testing.T) {
	cases := []struct {
		filename string
		matched  bool
	}{
		{"credit_note_2024.pdf", true},
		{"REFUND-receipt.pdf", true},
		{"return_label.png", true},
		{"debit note march.pdf", true},
		{"supplier_invoice_2024.pdf", false},
		{"packing_slip.pdf", false},
	}
	for _, tc := range cases {
		if _, matched := matchDangerousFilename(tc.filename); matched != tc.matched {
			t.Fatalf("matchDangerousFilename(%q) = %v, want %v", tc.filename, matched, tc.matched)
		}
	}
}

func TestMatchDangerousContent(t *testing.T) {
	if _, matched := matchDangerousContent("CREDIT MEMO issued against invoice 42"); !matched {
		t.Fatal("expected credit memo text to match")
	}
	if _, matched := matchDangerousContent("Invoice for 12 units of SKU-A"); matched {
		t.Fatal("plain invoice text should not match")
	}
}

func TestHasPODConfirmation(t *testing.T) {
	if !hasPODConfirmation("Package delivered, signed for by J. Smith") {
		t.Fatal("expected delivery confirmation to match")
	}
	if hasPODConfirmation("Carrier scan events attached") {
		t.Fatal("text without delivery keywords should not match")
	}
}

func TestRequiresDimensionProof(t *testing.T) {
	for _, claimType := range []string{"fee_overcharge_dimensions", "fee_overcharge_weight", "oversize_reclassification"} {
		if !requiresDimensionProof(claimType) {
			t.Fatalf("expected %s to require dimension proof", claimType)
		}
	}
	if requiresDimensionProof("lost_inbound") {
		t.Fatal("lost_inbound should not require dimension proof")
	}
}

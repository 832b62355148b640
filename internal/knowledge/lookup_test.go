package knowledge

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDrug string
		wantOK   bool
	}{
		{"exact", "metformin", "metformin", true},
		{"case variant", "Metformin", "metformin", true},
		{"brand suffix", "Metformin HCl", "metformin", true},
		{"partial input", "metf", "metformin", true},
		{"with whitespace", "  warfarin  ", "warfarin", true},
		{"unknown", "ibuprofen", "", false},
		{"empty table order", "lisinopril", "lisinopril", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drug, g, ok := Lookup(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if drug != tt.wantDrug {
				t.Errorf("Lookup(%q) drug = %q, want %q", tt.input, drug, tt.wantDrug)
			}
			if ok && (len(g.Restrictions) == 0 || len(g.Timing) == 0) {
				t.Errorf("Lookup(%q) returned empty guidance", tt.input)
			}
		})
	}
}

func TestLookupMetforminContent(t *testing.T) {
	_, g, ok := Lookup("metformin")
	if !ok {
		t.Fatal("metformin not found")
	}
	want := "Take with meals to reduce stomach upset"
	if g.Restrictions[0] != want {
		t.Errorf("Restrictions[0] = %q, want %q", g.Restrictions[0], want)
	}
}

func TestSupplement(t *testing.T) {
	drug, g, ok := Supplement("warfarin sodium 5mg")
	if !ok {
		t.Fatal("expected supplement match for warfarin")
	}
	if drug != "warfarin" {
		t.Errorf("drug = %q, want warfarin", drug)
	}
	if len(g.Restrictions) == 0 {
		t.Error("supplement restrictions empty")
	}

	// Atorvastatin has no evidence-based supplement entry.
	if _, _, ok := Supplement("atorvastatin"); ok {
		t.Error("atorvastatin should have no supplement")
	}

	// Supplement matching is one-directional: partial input must not match.
	if _, _, ok := Supplement("warf"); ok {
		t.Error("partial name must not match supplement table")
	}
}

func TestGeneric(t *testing.T) {
	g := Generic()
	if len(g.Restrictions) != 3 || len(g.Timing) != 3 || len(g.Considerations) != 3 {
		t.Errorf("generic guidance shape = %d/%d/%d, want 3/3/3",
			len(g.Restrictions), len(g.Timing), len(g.Considerations))
	}
}

package knowledge

import "strings"

// Lookup returns the full curated guidance for a medication name. Matching is
// case-insensitive substring containment in either direction, so "Metformin
// HCl" and "metf" both resolve to metformin. The first table entry that
// matches wins.
func Lookup(medication string) (drug string, g Guidance, ok bool) {
	med := strings.ToLower(strings.TrimSpace(medication))
	for _, e := range drugTable {
		if strings.Contains(med, e.name) || strings.Contains(e.name, med) {
			return e.name, e.fallback, true
		}
	}
	return "", Guidance{}, false
}

// Supplement returns the evidence-based subset merged into live interaction
// data during fusion. Unlike Lookup, only the canonical name appearing inside
// the medication string counts as a match.
func Supplement(medication string) (drug string, g Guidance, ok bool) {
	med := strings.ToLower(medication)
	for _, e := range drugTable {
		if len(e.supplement.Restrictions) == 0 && len(e.supplement.Timing) == 0 {
			continue
		}
		if strings.Contains(med, e.name) {
			return e.name, e.supplement, true
		}
	}
	return "", Guidance{}, false
}

// Generic returns safe, condition-agnostic guidance for drugs absent from the
// curated table.
func Generic() Guidance {
	return Guidance{
		Restrictions: []string{
			"Take as prescribed by healthcare provider",
			"Maintain consistent meal timing",
			"Avoid excessive alcohol unless approved by doctor",
		},
		Timing: []string{
			"Follow prescribed dosing schedule",
			"Take at same time each day if possible",
			"Take with or without food as directed by prescriber",
		},
		Considerations: []string{
			"Consult pharmacist for specific food interactions",
			"Report any unusual symptoms to healthcare provider",
			"Keep medication list updated with all providers",
		},
	}
}

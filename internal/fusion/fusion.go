// Package fusion merges live RxNorm interaction data with the curated
// knowledge table into one deduplicated guidance triple.
package fusion

import (
	"fmt"
	"strings"

	"github.com/wickedtornado/diet-planning/internal/knowledge"
	"github.com/wickedtornado/diet-planning/internal/rxnorm"
)

// highPriorityPrefix marks considerations derived from severe interactions.
const highPriorityPrefix = "HIGH PRIORITY: "

// Fuse classifies live interaction fragments into restriction/timing/
// consideration buckets, merges in the curated evidence-based supplement for
// the medication when one exists, and deduplicates each bucket. Interactions
// may be nil (e.g. the interaction endpoint timed out but the RxCUI resolved).
func Fuse(medication string, interactions []rxnorm.Interaction) knowledge.Guidance {
	g := classify(interactions)

	if drug, sup, ok := knowledge.Supplement(medication); ok {
		g.Restrictions = append(g.Restrictions, sup.Restrictions...)
		g.Timing = append(g.Timing, sup.Timing...)
		g.Considerations = append(g.Considerations, sup.Considerations...)
		g.Considerations = append(g.Considerations, fmt.Sprintf("Evidence-based guidance for %s", drug))
	}

	g.Restrictions = dedupe(g.Restrictions)
	g.Timing = dedupe(g.Timing)
	g.Considerations = dedupe(g.Considerations)
	return g
}

// Merge concatenates two guidance triples and deduplicates each bucket.
// Used on the fallback path to combine the full curated entry with the
// evidence-based supplement the same way the live path does.
func Merge(base, extra knowledge.Guidance) knowledge.Guidance {
	return knowledge.Guidance{
		Restrictions:   dedupe(append(base.Restrictions, extra.Restrictions...)),
		Timing:         dedupe(append(base.Timing, extra.Timing...)),
		Considerations: dedupe(append(base.Considerations, extra.Considerations...)),
	}
}

// classify buckets each interaction description by keyword heuristic: mentions
// of food or meals are restrictions, mentions of time or hours are timing
// advice, and anything marked severe becomes a flagged consideration.
func classify(interactions []rxnorm.Interaction) knowledge.Guidance {
	var g knowledge.Guidance
	for _, in := range interactions {
		desc := strings.ToLower(in.Description)
		severity := strings.ToLower(in.Severity)

		switch {
		case strings.Contains(desc, "food") || strings.Contains(desc, "meal"):
			g.Restrictions = append(g.Restrictions, in.Description)
		case strings.Contains(desc, "time") || strings.Contains(desc, "hour"):
			g.Timing = append(g.Timing, in.Description)
		case severity == "high" || severity == "severe":
			g.Considerations = append(g.Considerations, highPriorityPrefix+in.Description)
		}
	}
	return g
}

// dedupe removes duplicate strings, keeping the first occurrence of each.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

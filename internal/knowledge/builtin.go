// Package knowledge holds the curated drug-food guidance used when RxNorm has
// nothing to offer, plus the evidence-based supplements merged into live
// results. Both concerns are served by one canonical table keyed by generic
// drug name, so the fallback and fusion paths cannot drift apart.
package knowledge

// Guidance is a curated {restrictions, timing, considerations} triple.
type Guidance struct {
	Restrictions   []string
	Timing         []string
	Considerations []string
}

// entry is one canonical drug in the table. Fallback is the full guidance
// returned when a drug is unknown to RxNorm; Supplement is the smaller
// evidence-based subset merged into live interaction data during fusion.
type entry struct {
	name       string
	fallback   Guidance
	supplement Guidance
}

// drugTable is ordered; matching iterates in declaration order and the first
// hit wins.
var drugTable = []entry{
	{
		name: "metformin",
		fallback: Guidance{
			Restrictions: []string{
				"Take with meals to reduce stomach upset",
				"Limit alcohol consumption",
				"Avoid large amounts of vitamin B12 inhibiting foods long-term",
			},
			Timing: []string{
				"Take with breakfast and dinner if twice daily",
				"Take with largest meal if once daily",
				"Consistent meal timing helps with blood sugar control",
			},
			Considerations: []string{
				"Monitor for lactic acidosis symptoms",
				"Regular B12 level monitoring recommended",
			},
		},
		supplement: Guidance{
			Restrictions: []string{
				"Take with meals to reduce stomach upset",
				"Limit alcohol intake",
			},
			Timing: []string{
				"Take with breakfast and dinner if twice daily",
				"Take with largest meal if once daily",
			},
		},
	},
	{
		name: "lisinopril",
		fallback: Guidance{
			Restrictions: []string{
				"Monitor potassium intake (avoid excessive high-potassium foods)",
				"Limit alcohol consumption",
				"Avoid salt substitutes containing potassium",
			},
			Timing: []string{
				"Can be taken with or without food",
				"Take at the same time each day",
				"Morning dosing preferred to avoid nighttime hypotension",
			},
			Considerations: []string{
				"Watch for signs of hyperkalemia",
				"Monitor blood pressure regularly",
			},
		},
		supplement: Guidance{
			Restrictions: []string{
				"Monitor potassium intake (avoid excessive potassium-rich foods)",
				"Limit alcohol consumption",
			},
			Timing: []string{
				"Can be taken with or without food",
				"Take at the same time each day",
			},
		},
	},
	{
		name: "warfarin",
		fallback: Guidance{
			Restrictions: []string{
				"Maintain consistent vitamin K intake",
				"Limit leafy green vegetables to consistent amounts",
				"Avoid cranberry juice and large amounts of cranberries",
				"Limit alcohol consumption significantly",
			},
			Timing: []string{
				"Take at the same time each day (usually evening)",
				"Consistent diet pattern crucial for INR stability",
				"Take on empty stomach for consistent absorption",
			},
			Considerations: []string{
				"Regular INR monitoring essential",
				"Many food and drug interactions - consult pharmacist",
			},
		},
		supplement: Guidance{
			Restrictions: []string{
				"Maintain consistent vitamin K intake (leafy greens)",
				"Avoid cranberry juice and large amounts of cranberries",
				"Limit alcohol consumption",
			},
			Timing: []string{
				"Take at the same time each day",
				"Consistent diet pattern important for INR stability",
			},
		},
	},
	{
		name: "levothyroxine",
		fallback: Guidance{
			Restrictions: []string{
				"Avoid soy products within 4 hours",
				"Avoid calcium supplements within 4 hours",
				"Avoid iron supplements within 4 hours",
				"Avoid high-fiber meals within 1 hour",
			},
			Timing: []string{
				"Take on empty stomach 30-60 minutes before breakfast",
				"Wait 4 hours before calcium or iron supplements",
				"Consistent timing critical for hormone levels",
			},
			Considerations: []string{
				"Coffee may affect absorption - wait 1 hour",
				"Regular thyroid function monitoring needed",
			},
		},
		supplement: Guidance{
			Restrictions: []string{
				"Avoid soy products within 4 hours",
				"Avoid calcium and iron supplements within 4 hours",
				"Avoid high-fiber meals within 1 hour",
			},
			Timing: []string{
				"Take on empty stomach 30-60 minutes before breakfast",
				"Wait at least 4 hours before calcium or iron supplements",
			},
		},
	},
	{
		name: "atorvastatin",
		fallback: Guidance{
			Restrictions: []string{
				"Avoid grapefruit and grapefruit juice completely",
				"Limit alcohol consumption",
				"Can be taken with or without food",
			},
			Timing: []string{
				"Evening dosing preferred (cholesterol synthesis highest at night)",
				"Can take with dinner",
				"Consistent daily timing recommended",
			},
			Considerations: []string{
				"Monitor for muscle pain or weakness",
				"Regular liver function tests recommended",
			},
		},
	},
	{
		name: "amlodipine",
		fallback: Guidance{
			Restrictions: []string{
				"Avoid grapefruit and grapefruit juice",
				"Limit alcohol consumption",
				"Can be taken with or without food",
			},
			Timing: []string{
				"Same time each day",
				"Morning dosing typically preferred",
				"Can take with breakfast",
			},
			Considerations: []string{
				"Monitor for ankle swelling",
				"Rise slowly from sitting/lying to prevent dizziness",
			},
		},
	},
}

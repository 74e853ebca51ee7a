package rhythm

// Insight is an advisory annotation derived from sub-score thresholds. These
// are presentation hints, not part of the numeric contract.
type Insight struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type insightRule struct {
	kind    string
	score   func(Result) float64
	below   bool // true: fire when score < threshold, false: when score > threshold
	cutoff  float64
	message string
}

var insightRules = []insightRule{
	{
		kind:    "sleep-inconsistency",
		score:   func(r Result) float64 { return r.Sleep },
		below:   true,
		cutoff:  0.5,
		message: "Sleep and wake times vary a lot; a steadier schedule would lift your rhythm score.",
	},
	{
		kind:    "sleep-strong",
		score:   func(r Result) float64 { return r.Sleep },
		cutoff:  0.8,
		message: "Sleep schedule is very consistent. Keep it up.",
	},
	{
		kind:    "task-variability",
		score:   func(r Result) float64 { return r.Task },
		below:   true,
		cutoff:  0.4,
		message: "Daily task completion swings widely; smaller, steadier daily loads score better.",
	},
	{
		kind:    "circadian-misalignment",
		score:   func(r Result) float64 { return r.Circadian },
		below:   true,
		cutoff:  0.5,
		message: "Much of your activity lands outside productive hours; try shifting work toward the morning and late-afternoon peaks.",
	},
	{
		kind:    "attendance-weak",
		score:   func(r Result) float64 { return r.Attendance },
		below:   true,
		cutoff:  0.5,
		message: "On-time rate is low; protecting start times would help.",
	},
}

func insights(r Result) []Insight {
	var out []Insight
	for _, rule := range insightRules {
		s := rule.score(r)
		if (rule.below && s < rule.cutoff) || (!rule.below && s > rule.cutoff) {
			out = append(out, Insight{Kind: rule.kind, Message: rule.message})
		}
	}
	return out
}

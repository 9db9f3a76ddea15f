package analytics

import (
	"fmt"

	"learnzy-server/models"
)

// MaxRecommendations caps the improvement plan.
const MaxRecommendations = 5

// Bloom levels that mark higher-order cognitive work.
var higherOrderBloomLevels = map[string]bool{
	"Analysis":  true,
	"Synthesis": true,
}

// Recommend turns a report into a bounded, prioritized improvement plan.
// Entries are deduplicated exact strings in fixed priority order: global
// pacing first, then weak groups, slow groups, hard-question accuracy, and
// higher-order bloom accuracy. At most MaxRecommendations survive.
func Recommend(report models.Report) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(msg string) {
		if seen[msg] {
			return
		}
		seen[msg] = true
		out = append(out, msg)
	}

	if report.TotalUserTimeSeconds > report.TotalIdealTimeSeconds {
		add(fmt.Sprintf(
			"Work on time management: you spent %.0fs against a benchmark of %.0fs.",
			report.TotalUserTimeSeconds, report.TotalIdealTimeSeconds))
	}

	for _, groups := range [][]models.GroupStat{report.Subjects, report.Topics} {
		for _, g := range groups {
			if Weak(g) {
				add(fmt.Sprintf(
					"Strengthen %s: accuracy %.1f%% is below the %.0f%% target.",
					g.Key, g.AccuracyPercent, WeakAccuracyPercent))
			}
		}
	}

	for _, groups := range [][]models.GroupStat{report.Subjects, report.Topics} {
		for _, g := range groups {
			if Slow(g) {
				add(fmt.Sprintf(
					"Speed up on %s: average time is %.1fx the benchmark.",
					g.Key, g.TimeRatio))
			}
		}
	}

	for _, g := range report.Difficulties {
		if g.Key == "Hard" && Weak(g) {
			add(fmt.Sprintf(
				"Revisit fundamentals: Hard questions sit at %.1f%% accuracy.",
				g.AccuracyPercent))
		}
	}

	for _, g := range report.BloomLevels {
		if higherOrderBloomLevels[g.Key] && Weak(g) {
			add(fmt.Sprintf(
				"Practice higher-order (%s) questions: accuracy %.1f%%.",
				g.Key, g.AccuracyPercent))
		}
	}

	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	return out
}

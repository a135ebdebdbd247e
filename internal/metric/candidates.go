package metric

import (
	"sort"
	"strings"

	"github.com/ignite/attribution-gateway/internal/klaviyo"
)

// canonicalNames are the lexically plausible variants of the canonical
// conversion event, in fixed priority order. Lower index wins ties.
var canonicalNames = []string{
	"Placed Order",
	"Placed Order (SMS)",
	"Ordered Product",
	"Checkout Completed",
	"Purchase",
}

// Candidate is one plausible conversion metric for a tenant. Ephemeral:
// produced during auto-detection, never persisted except the winner's ID.
type Candidate struct {
	ID    string
	Label string
	// Score is the "looks relevant" heuristic: higher is more plausible.
	Score int
	// rank is the synonym priority (lower wins) used to order candidates
	// of equal score.
	rank int
}

// RankCandidates scores the account's metrics against the canonical names
// and returns the plausible ones, best first. Pure function; no I/O.
func RankCandidates(metrics []klaviyo.Metric) []Candidate {
	var out []Candidate
	for _, m := range metrics {
		score, rank := relevance(m.Name)
		if score == 0 {
			continue
		}
		out = append(out, Candidate{ID: m.ID, Label: m.Name, Score: score, rank: rank})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].rank < out[j].rank
	})
	return out
}

// relevance scores a metric name: exact canonical match beats a
// case-insensitive one, which beats a name that merely mentions ordering.
func relevance(name string) (score, rank int) {
	for i, canon := range canonicalNames {
		if name == canon {
			return 3, i
		}
		if strings.EqualFold(name, canon) {
			return 2, i
		}
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "placed order") || strings.Contains(lower, "order completed") {
		return 1, len(canonicalNames)
	}
	return 0, 0
}

// PickWinner selects the detected metric from ranked candidates and their
// probe outcomes: the first candidate with recorded activity, or, when
// nothing shows activity over the probe window, the highest-priority
// candidate as a best-effort default. A metric with genuinely zero volume
// is plausible and must not block the request, so this never fails for a
// non-empty candidate list. Pure function; no I/O.
func PickWinner(candidates []Candidate, active map[string]bool) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	for _, c := range candidates {
		if active[c.ID] {
			return c, true
		}
	}
	return candidates[0], true
}

package progression

import (
	"math"
	"slices"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

const topWeaknessCount = 3

// DomainMastery aggregates progress for one curriculum domain
type DomainMastery struct {
	Domain           string   `json:"domain"`
	TopicsPassed     int      `json:"topics_passed"`
	TopicsTotal      int      `json:"topics_total"`
	AverageBestScore float64  `json:"average_best_score"`
	TopWeaknesses    []string `json:"top_weaknesses"`
}

// Percent returns the passed share of the domain in [0,100]
func (d DomainMastery) Percent() int {
	if d.TopicsTotal == 0 {
		return 0
	}
	return int(math.Round(100 * float64(d.TopicsPassed) / float64(d.TopicsTotal)))
}

type weaknessTally struct {
	counts map[string]int
	order  []string
}

func (w *weaknessTally) add(dim string) {
	if _, ok := w.counts[dim]; !ok {
		w.order = append(w.order, dim)
	}
	w.counts[dim]++
}

// top returns the n most frequent dimensions; ties keep encounter order
func (w *weaknessTally) top(n int) []string {
	ranked := make([]string, len(w.order))
	copy(ranked, w.order)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return w.counts[b] - w.counts[a]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ComputeDomainMastery aggregates progress per domain, in curriculum order.
// Topics with no attempts count as zero in the average. Progress entries for
// topics no longer in the curriculum are ignored.
func ComputeDomainMastery(state domain.MasteryState, cat Catalog) []DomainMastery {
	var order []string
	byDomain := make(map[string]*DomainMastery)
	tallies := make(map[string]*weaknessTally)
	sums := make(map[string]int)

	for _, t := range cat.Topics() {
		dm, ok := byDomain[t.Domain]
		if !ok {
			dm = &DomainMastery{Domain: t.Domain}
			byDomain[t.Domain] = dm
			tallies[t.Domain] = &weaknessTally{counts: make(map[string]int)}
			order = append(order, t.Domain)
		}
		dm.TopicsTotal++

		p, ok := state.TopicProgress[t.ID]
		if !ok {
			continue
		}
		if p.Status == domain.StatusPassed {
			dm.TopicsPassed++
		}
		sums[t.Domain] += p.BestScore
		for _, a := range p.ChallengeAttempts {
			for _, w := range a.Weaknesses {
				tallies[t.Domain].add(w)
			}
		}
	}

	out := make([]DomainMastery, 0, len(order))
	for _, d := range order {
		dm := byDomain[d]
		dm.AverageBestScore = float64(sums[d]) / float64(dm.TopicsTotal)
		dm.TopWeaknesses = tallies[d].top(topWeaknessCount)
		out = append(out, *dm)
	}
	return out
}

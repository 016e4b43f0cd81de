// Package ranking orders memory candidates by composite relevance to a query.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/moltbook/memory-bridge/internal/model"
)

// Composite score weights. Reproducibility of ranking across deployments
// depends on these exact values.
const (
	keywordWeight    = 0.4
	importanceWeight = 0.3
	recencyWeight    = 0.2
	retrievalWeight  = 0.1

	// recencyDecayDays is the exponential decay constant for the recency
	// component: exp(-ageInDays/30).
	recencyDecayDays = 30.0

	// retrievalSaturation is the retrieval count at which the popularity
	// component maxes out.
	retrievalSaturation = 10.0
)

// RankedMemory is a candidate annotated with its relevance score and the
// query keywords it matched.
type RankedMemory struct {
	model.Memory
	RelevanceScore   float64  `json:"relevanceScore"`
	MatchingKeywords []string `json:"matchingKeywords"`
}

// Rank scores every candidate against the query keywords and returns them
// sorted by descending relevance. Ties keep their input order (the store
// returns candidates newest-first, so equal scores favor recency).
// The caller truncates to its limit after ranking.
func Rank(candidates []model.Memory, queryKeywords []string, now time.Time) []RankedMemory {
	ranked := make([]RankedMemory, 0, len(candidates))
	for _, m := range candidates {
		matching := matchKeywords(queryKeywords, m.Metadata.Keywords)
		keywordScore := float64(len(matching)) / math.Max(float64(len(queryKeywords)), 1)

		importanceScore := float64(m.Metadata.Importance) / 10

		ageInDays := now.Sub(m.CreatedAt).Hours() / 24
		recencyScore := math.Exp(-ageInDays / recencyDecayDays)

		retrievalScore := math.Min(float64(m.RetrievalCount)/retrievalSaturation, 1)

		score := keywordScore*keywordWeight +
			importanceScore*importanceWeight +
			recencyScore*recencyWeight +
			retrievalScore*retrievalWeight

		ranked = append(ranked, RankedMemory{
			Memory:           m,
			RelevanceScore:   math.Round(score*100) / 100,
			MatchingKeywords: matching,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

// matchKeywords returns the query keywords that substring-match (in either
// direction) any of the candidate's stored keywords.
func matchKeywords(queryKeywords, memoryKeywords []string) []string {
	matching := []string{}
	for _, qk := range queryKeywords {
		for _, mk := range memoryKeywords {
			if strings.Contains(mk, qk) || strings.Contains(qk, mk) {
				matching = append(matching, qk)
				break
			}
		}
	}
	return matching
}

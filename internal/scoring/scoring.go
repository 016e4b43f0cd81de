// Package scoring assigns the 1-10 importance heuristic to memory content.
package scoring

import (
	"strings"

	"github.com/moltbook/memory-bridge/internal/keywords"
	"github.com/moltbook/memory-bridge/internal/model"
)

const (
	// MinImportance and MaxImportance bound every score.
	MinImportance = 1
	MaxImportance = 10

	baseScore = 5
)

// typeWeights maps content types to their additive weight.
var typeWeights = map[model.ContentType]int{
	model.ContentTypeInsight:      2,
	model.ContentTypeAction:       1,
	model.ContentTypeError:        1,
	model.ContentTypeConversation: 0,
}

// Score computes the importance of a memory from its content, type, and
// caller-supplied people/project hints. It is a pure function: identical
// inputs always produce identical scores.
//
// The heuristic is additive from a base of 5: longer content, denser
// keywords, weightier content types, and social/project context each add a
// point, then the result is clamped to [1,10].
func Score(content string, contentType model.ContentType, people, projects []string) int {
	score := baseScore

	wordCount := len(strings.Fields(content))
	if wordCount > 100 {
		score++
	}
	if wordCount > 200 {
		score++
	}

	if len(keywords.Extract(content)) > 10 {
		score++
	}

	score += typeWeights[contentType]

	if len(people) > 0 {
		score++
	}
	if len(projects) > 0 {
		score++
	}

	return Clamp(score)
}

// Clamp forces a raw importance value into [MinImportance, MaxImportance].
// Caller-supplied importance hints pass through here too.
func Clamp(score int) int {
	if score < MinImportance {
		return MinImportance
	}
	if score > MaxImportance {
		return MaxImportance
	}
	return score
}

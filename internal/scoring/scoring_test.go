package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moltbook/memory-bridge/internal/model"
)

func TestScore_BaseConversation(t *testing.T) {
	score := Score("short note", model.ContentTypeConversation, nil, nil)
	require.Equal(t, 5, score)
}

func TestScore_InsightWithContext(t *testing.T) {
	score := Score(
		"realized the cache invalidation bug only triggers under load",
		model.ContentTypeInsight,
		[]string{"sarah"},
		[]string{"phoenix"},
	)
	// base 5 + insight 2 + people 1 + projects 1
	require.Equal(t, 9, score)
}

func TestScore_InsightAlwaysAtLeastSeven(t *testing.T) {
	score := Score("noticed something", model.ContentTypeInsight, nil, nil)
	require.GreaterOrEqual(t, score, 7)
}

func TestScore_LongContentAddsPoints(t *testing.T) {
	content := strings.Repeat("word ", 150)
	require.Equal(t, 6, Score(content, model.ContentTypeConversation, nil, nil))

	content = strings.Repeat("word ", 250)
	require.Equal(t, 7, Score(content, model.ContentTypeConversation, nil, nil))
}

func TestScore_ClampsAtMax(t *testing.T) {
	words := []string{
		"alpha", "bravo", "charlie", "delta", "echoes", "foxtrot",
		"golfing", "hotels", "india", "juliet", "kilos", "limas",
	}
	content := strings.Repeat(strings.Join(words, " ")+" ", 20)
	score := Score(content, model.ContentTypeInsight, []string{"sarah"}, []string{"phoenix"})
	require.Equal(t, MaxImportance, score)
}

func TestClamp(t *testing.T) {
	require.Equal(t, MinImportance, Clamp(0))
	require.Equal(t, MinImportance, Clamp(-3))
	require.Equal(t, 7, Clamp(7))
	require.Equal(t, MaxImportance, Clamp(15))
}

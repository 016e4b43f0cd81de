package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract_SingleWord(t *testing.T) {
	require.Equal(t, []string{"roadmap"}, Extract("roadmap"))
}

func TestExtract_Properties(t *testing.T) {
	text := "Discussed the Q3 roadmap with Sarah. She wants the migration finished before the planning offsite."
	terms := Extract(text)

	require.NotEmpty(t, terms)
	require.LessOrEqual(t, len(terms), MaxKeywords)
	seen := map[string]bool{}
	for _, term := range terms {
		require.Equal(t, strings.ToLower(term), term)
		require.Greater(t, len(term), minTermLength)
		require.NotContains(t, stopWords, term)
		require.False(t, seen[term], "duplicate term %q", term)
		seen[term] = true
	}
}

func TestTokenize_DropsStopWordsAndShortTerms(t *testing.T) {
	terms := Tokenize("They said that the new cache layer would help with latency")
	require.Equal(t, []string{"said", "cache", "layer", "help", "latency"}, terms)
}

func TestTokenize_StripsPunctuationAndDeduplicates(t *testing.T) {
	terms := Tokenize("Deploy, deploy, DEPLOY! (again)")
	require.Equal(t, []string{"deploy", "again"}, terms)
}

func TestExtractN_CapsResult(t *testing.T) {
	text := "alpha bravo charlie delta echoes foxtrot golfing hotels india juliet kilos limas mikes november oscars papas quebec romeos sierra tango"
	terms := ExtractN(text, 5)
	require.Len(t, terms, 5)
}

func TestExtractFastN_CapsResult(t *testing.T) {
	text := "alpha bravo charlie delta echoes foxtrot golfing hotels"
	terms := ExtractFastN(text, 3)
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, terms)
}

func TestExtract_EmptyText(t *testing.T) {
	require.Empty(t, Extract(""))
}

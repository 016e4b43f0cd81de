// Package keywords turns free text into a bounded, ordered list of salient
// lowercase terms. Extraction is pure and deterministic: the same text always
// yields the same keywords.
package keywords

import (
	"fmt"
	"regexp"
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// MaxKeywords bounds the number of terms returned by Extract.
const MaxKeywords = 15

// minTermLength excludes short tokens; only terms longer than this are kept.
const minTermLength = 3

// stopWords is the canonical closed stop-word set, shared by the NLP and
// fallback paths.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"were": {}, "they": {}, "their": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "about": {}, "would": {}, "could": {},
	"should": {}, "will": {}, "there": {}, "here": {}, "then": {},
	"than": {}, "them": {}, "these": {}, "those": {}, "very": {},
	"just": {}, "also": {}, "back": {}, "after": {},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// OnFallback, when set, is invoked every time extraction degrades to naive
// tokenization. Used to feed a metrics counter.
var OnFallback func()

// Extract returns up to MaxKeywords salient terms from text.
// The primary path runs a part-of-speech pass keeping nouns, verbs, and
// recognized entity phrases. When that pass fails it silently degrades to
// naive tokenization; no error ever escapes.
func Extract(text string) []string {
	return ExtractN(text, MaxKeywords)
}

// ExtractN is Extract with an explicit keyword cap.
func ExtractN(text string, max int) []string {
	terms, err := nlpExtract(text)
	if err != nil || len(terms) == 0 {
		if OnFallback != nil {
			OnFallback()
		}
		terms = Tokenize(text)
	}
	return truncate(terms, max)
}

// ExtractFastN is the naive path with a cap: no part-of-speech pass, just
// tokenization. Cheap enough for request handling; the NLP pass can follow
// asynchronously.
func ExtractFastN(text string, max int) []string {
	return truncate(Tokenize(text), max)
}

// nlpExtract keeps noun and verb tokens plus multi-word entity phrases,
// in document order. Panics from the NLP pass are converted to errors so
// the caller can fall back.
func nlpExtract(text string) (terms []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			terms = nil
			err = fmt.Errorf("nlp pass panicked: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	var raw []string
	for _, tok := range doc.Tokens() {
		if strings.HasPrefix(tok.Tag, "NN") || strings.HasPrefix(tok.Tag, "VB") {
			raw = append(raw, tok.Text)
		}
	}
	// Entity phrases act as topics: kept whole so multi-word names like
	// "project phoenix" survive as one term.
	for _, ent := range doc.Entities() {
		raw = append(raw, ent.Text)
	}

	return normalize(raw), nil
}

// Tokenize is the naive path: lowercase, strip non-alphanumerics, split
// on whitespace.
func Tokenize(text string) []string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(text), " ")
	return normalize(strings.Fields(cleaned))
}

// normalize lowercases and trims terms, drops short terms and stop words,
// and deduplicates in first-seen order.
func normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, term := range raw {
		term = strings.TrimSpace(strings.ToLower(term))
		if len(term) <= minTermLength {
			continue
		}
		if _, stop := stopWords[term]; stop {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

func truncate(terms []string, max int) []string {
	if max > 0 && len(terms) > max {
		return terms[:max]
	}
	return terms
}

// Package normalize canonicalizes raw post text into a token stream
// suitable for similarity comparison.
package normalize

import (
	"html"
	"regexp"
	"strings"
)

// Token length and suffix-stripping thresholds.
const (
	minTokenLen     = 3 // tokens shorter than this are dropped
	ingSuffixMinLen = 6 // "ing" is stripped only from longer tokens
	sSuffixMinLen   = 4 // "s" is stripped only from longer tokens
)

var (
	urlRE      = regexp.MustCompile(`https?://\S+`)
	mentionRE  = regexp.MustCompile(`@\w+`)
	nonTokenRE = regexp.MustCompile(`[^a-z0-9#\s]`)
)

// stopwords is the fixed closed list of tokens dropped during
// normalization.
var stopwords = func() map[string]struct{} {
	const list = "a an the and or but if then else when where while with " +
		"without to from by for of on at into over under again further do " +
		"does did doing have has had having be is are was were been being " +
		"this that these those it its itself i me my we our you your he " +
		"she they them his her their what which who whom why how not no " +
		"nor very can will just"
	set := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		set[w] = struct{}{}
	}
	return set
}()

// Text canonicalizes raw post text: HTML entities are decoded, the text
// is lowercased, URLs and @mentions are stripped entirely, everything
// outside [a-z0-9#] becomes whitespace, stop-words and tokens shorter
// than three characters are dropped, and a light suffix strip removes a
// trailing "ing" (tokens longer than five characters) or otherwise a
// trailing "s" (tokens longer than three characters), never both.
//
// Empty input yields an empty string; Text never fails.
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	s := html.UnescapeString(raw)
	s = strings.ToLower(s)
	s = urlRE.ReplaceAllString(s, " ")
	s = mentionRE.ReplaceAllString(s, " ")
	s = nonTokenRE.ReplaceAllString(s, " ")

	var out []string
	for _, tok := range strings.Fields(s) {
		if _, stop := stopwords[tok]; stop || len(tok) < minTokenLen {
			continue
		}
		out = append(out, stripSuffix(tok))
	}
	return strings.Join(out, " ")
}

// Tokens returns the normalized token stream for raw text.
func Tokens(raw string) []string {
	norm := Text(raw)
	if norm == "" {
		return nil
	}
	return strings.Fields(norm)
}

// stripSuffix applies the lexical suffix rules in priority order. This is
// not stemming; it only folds trivial plural/gerund variants together.
func stripSuffix(tok string) string {
	switch {
	case strings.HasSuffix(tok, "ing") && len(tok) >= ingSuffixMinLen:
		return tok[:len(tok)-3]
	case strings.HasSuffix(tok, "s") && len(tok) >= sSuffixMinLen:
		return tok[:len(tok)-1]
	default:
		return tok
	}
}

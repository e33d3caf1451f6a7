// Package textnorm turns free-form questions into search keywords.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinKeywordLength is the minimum rune length of a keyword.
const MinKeywordLength = 3

// Tokenize lowercases text and splits it into word tokens. Letters, combining
// marks, digits and underscores are word characters, so Thai words keep their
// vowel and tone marks.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(norm.NFC.String(text)) {
		if isWordRune(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Keywords extracts the distinct content words of question in order of first
// appearance, dropping stop words and tokens shorter than MinKeywordLength.
func Keywords(question string) []string {
	tokens := Tokenize(question)
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) < MinKeywordLength || IsStopword(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	if len(keywords) == 0 {
		return nil
	}
	return keywords
}

// IsStopword reports whether the lowercased token is an English or Thai function word.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || r == '_'
}

package lexicon

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one word of input text.
type Token struct {
	// Text is the word as written.
	Text string
	// Lower is Text lowercased.
	Lower string
	// Start and End are byte offsets into the source text.
	Start int
	End   int
}

// Tokenize splits text into words. A word is a maximal run of letters,
// digits and underscores; everything else separates words.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, newToken(text, start, i))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, newToken(text, start, len(text)))
	}
	return tokens
}

func newToken(text string, start, end int) Token {
	w := text[start:end]
	return Token{Text: w, Lower: strings.ToLower(w), Start: start, End: end}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// PhraseIndex returns the index of the first token where the phrase starts
// as a run of whole words, or -1. The phrase must already be lowercase.
func PhraseIndex(tokens []Token, phrase string) int {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(words) <= len(tokens); i++ {
		for j, w := range words {
			if tokens[i+j].Lower != w {
				continue outer
			}
		}
		return i
	}
	return -1
}

// HasPhrase reports whether the phrase occurs as whole words.
func HasPhrase(tokens []Token, phrase string) bool {
	return PhraseIndex(tokens, phrase) >= 0
}

// IsCapitalized reports whether the word starts with an upper-case letter.
func IsCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

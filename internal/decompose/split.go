package decompose

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ShayCichocki/parley/internal/lexicon"
)

var (
	numberedRe = regexp.MustCompile(`\b(\d+)[.)]\s+`)
	bulletRe   = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
)

// minCommaWords is the fewest words every comma piece needs before a
// fragment is split on commas.
const minCommaWords = 3

// splitter turns text into trimmed, non-empty fragments. It caches the
// connective pattern for the last table set it saw.
type splitter struct {
	tables      *lexicon.Tables
	connectives *regexp.Regexp
}

// split applies the first rule that yields at least two fragments: numbered
// list, bulleted lines, then connective phrases with an optional comma split.
// Text with no separators comes back as a single fragment. When trimming
// leaves nothing, that fragment is the text as given.
func (s *splitter) split(tables *lexicon.Tables, text string) []string {
	if parts := splitNumbered(text); len(parts) >= 2 {
		return parts
	}
	if parts := splitBullets(text); len(parts) >= 2 {
		return parts
	}

	var fragments []string
	for _, frag := range s.connectiveRe(tables).Split(text, -1) {
		frag = trimFragment(frag)
		if frag == "" {
			continue
		}
		fragments = append(fragments, splitCommas(frag)...)
	}
	if len(fragments) == 0 {
		return []string{text}
	}
	return fragments
}

// splitNumbered splits a numbered list. Item 1 must open the text or a line
// and later items must count up from it; other "N." markers are plain text.
func splitNumbered(text string) []string {
	matches := numberedRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return nil
	}

	var cuts [][2]int
	next := 1
	for _, m := range matches {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n != next {
			continue
		}
		if n == 1 && !atLineStart(text, m[2]) {
			continue
		}
		cuts = append(cuts, [2]int{m[0], m[1]})
		next++
	}
	if len(cuts) < 2 {
		return nil
	}

	parts := []string{text[:cuts[0][0]]}
	for i, c := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1][0]
		}
		parts = append(parts, text[c[1]:end])
	}
	return nonEmpty(parts)
}

// atLineStart reports whether only whitespace precedes pos on its line.
func atLineStart(text string, pos int) bool {
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	return strings.TrimSpace(text[lineStart:pos]) == ""
}

func splitBullets(text string) []string {
	if len(bulletRe.FindAllStringIndex(text, -1)) < 2 {
		return nil
	}
	return nonEmpty(bulletRe.Split(text, -1))
}

// splitCommas splits on commas only when every piece has enough words to be
// a clause of its own.
func splitCommas(frag string) []string {
	if !strings.Contains(frag, ",") {
		return []string{frag}
	}
	pieces := strings.Split(frag, ",")
	for _, p := range pieces {
		if len(strings.Fields(p)) < minCommaWords {
			return []string{frag}
		}
	}
	return nonEmpty(pieces)
}

func (s *splitter) connectiveRe(tables *lexicon.Tables) *regexp.Regexp {
	if s.tables == tables && s.connectives != nil {
		return s.connectives
	}

	words := append([]string(nil), tables.Connectives...)
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	alts := make([]string, len(words))
	for i, w := range words {
		alts[i] = strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s+`)
	}

	s.connectives = regexp.MustCompile(`(?i)\s+(?:` + strings.Join(alts, "|") + `)\s+`)
	s.tables = tables
	return s.connectives
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = trimFragment(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fragmentCutset is whitespace plus the punctuation that separates clauses.
const fragmentCutset = " \t\r\n,;.:"

// trimFragment strips surrounding whitespace and separator punctuation.
func trimFragment(s string) string {
	return strings.Trim(s, fragmentCutset)
}

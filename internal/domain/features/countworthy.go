package features

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

var junkSubstrings = []string{"--", "~", "$", "..", "(", ")", "|", "%", `\`, "/", "^", "@", "#", "!", "+", ",", ";", ":", "{", "}"}

var junkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z|a-z]+[0-9]{2,}`),
	regexp.MustCompile(`-`),
	regexp.MustCompile(`\s`),
	regexp.MustCompile(`\..*\.`),
	regexp.MustCompile(`^\d*\.`),
	regexp.MustCompile(`^\d`),
}

// CountWorthy reports whether a token should be counted in frequency tables and vocabularies.
func CountWorthy(t docgroup.Token) bool {
	if t.IsPunct || t.IsStop || t.LikeNum || t.LikeURL || t.LikeEmail {
		return false
	}
	text := t.Text
	if text == "" {
		return false
	}
	for _, junk := range junkSubstrings {
		if strings.Contains(text, junk) {
			return false
		}
	}
	for _, re := range junkPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	return !hasTripledWordChar(text)
}

// hasTripledWordChar reports a word character repeated three or more times in a row.
func hasTripledWordChar(text string) bool {
	var (
		prev rune
		run  int
	)
	for _, r := range text {
		if !isWordChar(r) {
			run = 0
			prev = 0
			continue
		}
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= 3 {
			return true
		}
	}
	return false
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Terms returns the lower-cased count-worthy tokens of a sentence in order.
func Terms(s *docgroup.Sentence) []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		if CountWorthy(t) {
			out = append(out, t.Norm())
		}
	}
	return out
}

// TermCounts counts count-worthy terms across sentences.
func TermCounts(sentences ...*docgroup.Sentence) map[string]int {
	counts := make(map[string]int)
	for _, s := range sentences {
		for _, term := range Terms(s) {
			counts[term]++
		}
	}
	return counts
}

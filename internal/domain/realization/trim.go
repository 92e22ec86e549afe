package realization

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

// Sentence-initial words that carry meaning of their own and are never stripped.
var keepInitial = map[string]bool{
	"when": true, "where": true, "how": true, "why": true, "not": true, "only": true,
	"never": true, "now": true, "soon": true, "most": true, "nearly": true, "almost": true,
}

var (
	dashRun        = regexp.MustCompile(`\s*(?:-{2,}|—|–)\s*`)
	danglingDash   = regexp.MustCompile(`\s+-\s*([.,;:!?]|$)`)
	leadingJunk    = regexp.MustCompile(`^[\s,;:.\-]+`)
	repeatedCommas = regexp.MustCompile(`,(?:\s*,)+`)
	commaBeforeEnd = regexp.MustCompile(`,\s*([.!?;])\s*$`)
	spaceBeforeEnd = regexp.MustCompile(`\s+([.,;:!?])`)
)

// Attribution clauses, replaced by the capture-free text in the second column.
var attributions = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`,\s*according to\s+[^,.;]+\.\s*$`), "."},
	{regexp.MustCompile(`,\s*(?:[\w.'’-]+\s+){1,4}(?:said|says|reported|added|stated|announced)\s*\.\s*$`), "."},
	{regexp.MustCompile(`,\s*(?:said|says|reported|added)\s+(?:[\w.'’-]+\s*){1,6}\.\s*$`), "."},
	{regexp.MustCompile(`,\s*(?:[\w.'’-]+\s+){1,3}(?:said|says),\s*`), " "},
	{regexp.MustCompile(`^According to\s+[^,]+,\s*`), ""},
}

// trim removes sentence-initial connectives and appositives, then normalizes punctuation.
// Token-level trimming only applies while the text still matches the annotated sentence.
func trim(it *content.Item) string {
	text := it.RealizedText
	if it.Untouched() {
		text = trimTokens(it.Sentence)
	}
	return normalize(text)
}

func trimTokens(s *docgroup.Sentence) string {
	tokens := s.Tokens
	if len(tokens) == 0 {
		return s.Text
	}
	drop := make([]bool, len(tokens))

	i := 0
	for i < len(tokens) && isConnective(tokens[i]) {
		drop[i] = true
		i++
	}
	if i > 0 && i < len(tokens) && tokens[i].Text == "," {
		drop[i] = true
	}

	for j, t := range tokens {
		if t.Dep != "appos" || drop[j] {
			continue
		}
		span := s.Subtree(j)
		lo, hi := span[0], span[len(span)-1]
		if lo > 0 && isSeparator(tokens[lo-1]) {
			lo--
		}
		if hi+1 < len(tokens) && isSeparator(tokens[hi+1]) {
			hi++
		}
		for k := lo; k <= hi; k++ {
			drop[k] = true
		}
	}

	var b strings.Builder
	prev := -1
	for j, t := range tokens {
		if drop[j] {
			continue
		}
		if prev >= 0 && (tokens[prev].Whitespace || (prev+1 != j && !t.IsPunct)) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
		prev = j
	}
	if prev < 0 || !hasWord(tokens, drop) {
		return s.Text
	}
	return b.String()
}

func isConnective(t docgroup.Token) bool {
	return (t.POS == "CCONJ" || t.POS == "ADV") && !keepInitial[t.Norm()]
}

func isSeparator(t docgroup.Token) bool {
	switch t.Text {
	case ",", "-", "--", "—", "–":
		return true
	}
	return false
}

func hasWord(tokens []docgroup.Token, drop []bool) bool {
	for j, t := range tokens {
		if !drop[j] && !t.IsPunct {
			return true
		}
	}
	return false
}

// normalize repairs punctuation left behind by excisions.
func normalize(text string) string {
	text = dashRun.ReplaceAllString(text, " - ")
	text = danglingDash.ReplaceAllString(text, "$1")
	text = repeatedCommas.ReplaceAllString(text, ",")
	text = commaBeforeEnd.ReplaceAllString(text, "$1")
	text = leadingJunk.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func stripAttribution(text string) string {
	for _, a := range attributions {
		text = a.re.ReplaceAllString(text, a.with)
	}
	return normalize(text)
}

func stripSubspans(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		text = re.ReplaceAllString(text, " ")
	}
	return normalize(text)
}

// cleanup collapses whitespace, removes spaces before punctuation and capitalizes the first letter.
func cleanup(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = spaceBeforeEnd.ReplaceAllString(text, "$1")
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

package docgroup

import "strings"

var quoteMarks = []string{`"`, "``", "''", "“", "”"}

// HasQuote reports whether text contains a quotation mark.
func HasQuote(text string) bool {
	for _, q := range quoteMarks {
		if strings.Contains(text, q) {
			return true
		}
	}
	return false
}

// IsQuestion reports whether text contains a question mark.
func IsQuestion(text string) bool {
	return strings.ContainsRune(text, '?')
}

// IsFragment reports whether text does not end like a full sentence.
func IsFragment(text string) bool {
	text = strings.TrimSpace(text)
	return !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, ";")
}

// HasTerminalPunct reports whether text ends with sentence-final punctuation.
func HasTerminalPunct(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WordCount returns the number of whitespace-separated words.
func (s *Sentence) WordCount() int { return WordCount(s.Text) }

// HasVector reports whether any token carries an embedding.
func (s *Sentence) HasVector() bool {
	for _, t := range s.Tokens {
		if t.HasVector() {
			return true
		}
	}
	return false
}

// MeanVector averages token embeddings, skipping tokens without one. It returns nil when none exist.
func (s *Sentence) MeanVector() []float64 {
	var (
		sum   []float64
		count int
	)
	for _, t := range s.Tokens {
		if !t.HasVector() {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(t.Vector))
		}
		if len(t.Vector) != len(sum) {
			continue
		}
		for i, v := range t.Vector {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float64(count)
	}
	return sum
}

// Children returns the indices of tokens whose head is i.
func (s *Sentence) Children(i int) []int {
	var out []int
	for j, t := range s.Tokens {
		if j != i && t.Head == i {
			out = append(out, j)
		}
	}
	return out
}

// Subtree returns the sorted token indices dominated by i, i included.
func (s *Sentence) Subtree(i int) []int {
	seen := map[int]bool{i: true}
	queue := []int{i}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range s.Children(cur) {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for j := range s.Tokens {
		if seen[j] {
			out = append(out, j)
		}
	}
	return out
}

// JoinTokens rebuilds text from tokens honoring their trailing whitespace.
func JoinTokens(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		b.WriteString(t.Text)
		if t.Whitespace && i < len(tokens)-1 {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

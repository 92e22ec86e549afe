package realization

import (
	"strings"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

var (
	hasQuote   = docgroup.HasQuote
	isQuestion = docgroup.IsQuestion
	isFragment = docgroup.IsFragment
)

var articles = map[string]bool{"a": true, "an": true, "the": true}

// Adverbs that open a sentence without pointing back to earlier context.
var freeAdverbs = map[string]bool{"now": true, "soon": true, "most": true}

var existentialVerbs = map[string]map[string]bool{
	"there": {"is": true, "are": true, "was": true, "were": true},
	"it":    {"is": true, "has": true, "was": true},
}

var subjectDeps = map[string]bool{
	"nsubj": true, "nsubjpass": true, "csubj": true, "csubjpass": true, "expl": true,
}

// danglingStart reports a sentence whose first two tokens suggest a reference to a previous sentence.
func danglingStart(tokens []docgroup.Token) bool {
	if len(tokens) < 2 {
		return false
	}
	first, second := tokens[0], tokens[1]
	lower := first.Norm()
	if verbs, ok := existentialVerbs[lower]; ok && verbs[second.Norm()] {
		return false
	}

	switch first.POS {
	case "PRON":
		return true
	case "DET":
		return !articles[lower] && isNominalSubject(second)
	case "ADV":
		if freeAdverbs[lower] {
			return false
		}
		return isNominalSubject(second) || second.Tag == "VBZ" || second.Tag == "VBP"
	}
	return false
}

func isNominalSubject(t docgroup.Token) bool {
	return strings.HasPrefix(t.Dep, "nsubj")
}

// lacksSubject reports a parsed sentence with no subject dependency. Unparsed sentences pass.
func lacksSubject(tokens []docgroup.Token) bool {
	parsed := false
	for _, t := range tokens {
		if t.Dep == "" {
			continue
		}
		parsed = true
		if subjectDeps[t.Dep] {
			return false
		}
	}
	return parsed
}

package search

import (
	"regexp"
	"strings"
)

// BooleanOp joins one parsed term's results into the combined result set.
type BooleanOp string

const (
	BoolAnd BooleanOp = "AND"
	BoolOr  BooleanOp = "OR"
	BoolNot BooleanOp = "NOT"
)

// BooleanBranch pairs one parsed term with the operator that folds its
// results into the running set: OR unions, AND intersects, NOT subtracts.
type BooleanBranch struct {
	Term string
	Op   BooleanOp
}

// BooleanQuery is the flat decomposition of a term containing boolean
// operators. Terms and operators keep their original order; parenthesis
// grouping is tolerated in the input but carries no evaluation semantics.
type BooleanQuery struct {
	Raw       string          `json:"raw"`
	Terms     []string        `json:"terms"`
	Operators []string        `json:"operators"`
	Branches  []BooleanBranch `json:"-"`
}

var (
	booleanWordRe   = regexp.MustCompile(`(?i)(^|[\s(])(AND|OR|NOT)([\s)]|$)`)
	bangOperatorRe  = regexp.MustCompile(`(^|\s)!\S`)
	bangRewriteRe   = regexp.MustCompile(`(^|\s)!(\S)`)
	parenthesisRe   = regexp.MustCompile(`[()]`)
	symbolOperators = strings.NewReplacer("&&", " AND ", "||", " OR ")
)

// ContainsBooleanOperators reports whether the term uses boolean search
// syntax: the word operators AND, OR, NOT (any case, word-boundary) or the
// symbol forms &&, || and ! prefixed to a term.
func ContainsBooleanOperators(term string) bool {
	if strings.Contains(term, "&&") || strings.Contains(term, "||") {
		return true
	}
	if bangOperatorRe.MatchString(term) {
		return true
	}
	return booleanWordRe.MatchString(term)
}

// ParseBooleanQuery splits a term into its search terms and the operators
// between them, normalized to AND/OR/NOT, preserving original order.
// Adjacent non-operator words collapse into a single term. The first
// branch carries OR so folding it into an empty set is the identity; a
// NOT directly annotates the branch it precedes.
func ParseBooleanQuery(term string) BooleanQuery {
	out := BooleanQuery{Raw: term}

	normalized := symbolOperators.Replace(term)
	normalized = bangRewriteRe.ReplaceAllString(normalized, "${1}NOT $2")
	normalized = parenthesisRe.ReplaceAllString(normalized, " ")

	var buffer []string
	pending := BoolOr
	negated := false

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		op := pending
		if negated {
			op = BoolNot
		}
		text := strings.Join(buffer, " ")
		out.Terms = append(out.Terms, text)
		out.Branches = append(out.Branches, BooleanBranch{Term: text, Op: op})
		buffer = buffer[:0]
		pending = BoolAnd
		negated = false
	}

	for _, token := range strings.Fields(normalized) {
		switch strings.ToUpper(token) {
		case string(BoolAnd):
			flush()
			out.Operators = append(out.Operators, string(BoolAnd))
			pending = BoolAnd
		case string(BoolOr):
			flush()
			out.Operators = append(out.Operators, string(BoolOr))
			pending = BoolOr
		case string(BoolNot):
			flush()
			out.Operators = append(out.Operators, string(BoolNot))
			negated = true
		default:
			buffer = append(buffer, token)
		}
	}
	flush()
	return out
}

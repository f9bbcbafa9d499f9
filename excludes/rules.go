package excludes

// kindMatcher selects the operand kinds a rule handles.
type kindMatcher func(Kind) bool

func is(k Kind) kindMatcher {
	return func(other Kind) bool { return other == k }
}

func isNot(k Kind) kindMatcher {
	return func(other Kind) bool { return other != k }
}

// rule simplifies a pair of specs of two kinds. apply may return nil when no
// simplification exists for the given operands.
type rule struct {
	name        string
	left, right kindMatcher
	apply       func(left, right Spec) Spec
}

// ruleTable is an ordered list of pair rules. The first rule that handles
// the operand kinds, in either order, decides the result.
type ruleTable []rule

func (t ruleTable) try(a, b Spec) Spec {
	for _, r := range t {
		if r.left(a.Kind()) && r.right(b.Kind()) {
			return r.apply(a, b)
		}
		if r.left(b.Kind()) && r.right(a.Kind()) {
			return r.apply(b, a)
		}
	}
	return nil
}

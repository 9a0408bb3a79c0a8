package action

// Matcher selects actions. A Matcher is usable anywhere an
// omnibus.Match[Action] is expected.
type Matcher = func(Action) bool

// MatchType matches actions whose type is any of types.
func MatchType(types ...string) Matcher {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(a Action) bool {
		_, ok := set[a.Type]
		return ok
	}
}

// MatchAny matches actions that any of matchers match.
//
//	omnibus.Listen(ch, action.MatchAny(Search.Complete.Match, Search.Error.Match), handler)
func MatchAny(matchers ...Matcher) Matcher {
	return func(a Action) bool {
		for _, m := range matchers {
			if m(a) {
				return true
			}
		}
		return false
	}
}

// MatchNamespace matches actions whose type is ns followed by a slash and
// anything else.
func MatchNamespace(ns string) Matcher {
	return func(a Action) bool {
		return a.Namespace() == ns
	}
}

// MatchErrors matches actions with Error set.
func MatchErrors(a Action) bool {
	return a.Error
}

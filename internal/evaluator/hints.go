package evaluator

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const minHintLen = 3

// closestName picks the candidate most likely meant by a misspelled name,
// or "" when nothing is close. Names shorter than minHintLen get no hint.
func closestName(name string, candidates []string) string {
	if len(name) < minHintLen || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Stable(ranks)
	for _, r := range ranks {
		if r.Target != name && r.Distance <= len(name) {
			return r.Target
		}
	}
	limit := len(name)/3 + 1
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// withHint attaches a "Did you mean" suggestion to exc. The hint is shown
// when the exception is reported and never becomes part of its args.
func withHint(exc *Exception, name string, candidates []string) *Exception {
	exc.Hint = closestName(name, candidates)
	return exc
}

func nameError(name string, env *Environment) *Exception {
	return withHint(newException(NameErrorClass, "name '%s' is not defined", name), name, env.Names())
}

package quiz

import "math/rand/v2"

// ShuffleOptions returns a copy of qs with every question's options in a new
// random order. The answer and the selection are relabeled so that they keep
// pointing at the same option text. A nil r uses the global source.
func ShuffleOptions(qs []Question, r *rand.Rand) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = shuffleQuestion(q, r)
	}
	return out
}

// RestoreOptions returns a copy of qs with options back in their original
// order. The answer and the selection follow their options.
func RestoreOptions(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		r := q.clone()
		r.Answer = q.CanonicalLabel(q.Answer)
		if q.Selected != "" {
			r.Selected = q.CanonicalLabel(q.Selected)
		}
		r.Options = append([]string(nil), q.OriginalOptions...)
		r.Permutation = identity(len(r.Options))
		out[i] = r
	}
	return out
}

func shuffleQuestion(q Question, r *rand.Rand) Question {
	s := q.clone()
	if len(s.Permutation) != len(s.Options) {
		s.Permutation = identity(len(s.Options))
	}

	// from[i] is the displayed position that moves to position i.
	from := identity(len(s.Options))
	fisherYates(from, r)

	options := make([]string, len(from))
	perm := make([]int, len(from))
	for i, j := range from {
		options[i] = s.Options[j]
		perm[i] = s.Permutation[j]
	}

	s.Answer = relabel(q.Answer, from)
	if q.Selected != "" {
		s.Selected = relabel(q.Selected, from)
	}
	s.Options = options
	s.Permutation = perm
	return s
}

// relabel moves a displayed label to wherever its option landed.
func relabel(label string, from []int) string {
	old, ok := LabelIndex(label)
	if !ok {
		return label
	}
	for i, j := range from {
		if j == old {
			return Label(i)
		}
	}
	return label
}

// fisherYates shuffles s in place, walking backwards from the last element.
func fisherYates[T any](s []T, r *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		var j int
		if r != nil {
			j = r.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		s[i], s[j] = s[j], s[i]
	}
}

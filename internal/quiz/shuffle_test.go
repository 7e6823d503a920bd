package quiz

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/pavelanni/quizmode/internal/model"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func animals() Question {
	return FromRecord(model.QuestionRecord{
		ID:      1,
		Order:   1,
		Text:    "Which one barks?",
		Options: []string{"Cat", "Dog", "Fox"},
		Answer:  "Option B",
	})
}

func TestLabel(t *testing.T) {
	if got := Label(0); got != "Option A" {
		t.Errorf("Label(0) = %q", got)
	}
	if got := Label(3); got != "Option D" {
		t.Errorf("Label(3) = %q", got)
	}
	for _, bad := range []string{"", "Option", "Option AB", "option A", "Choice A", "Option a"} {
		if _, ok := LabelIndex(bad); ok {
			t.Errorf("LabelIndex(%q) should fail", bad)
		}
	}
	if i, ok := LabelIndex("Option C"); !ok || i != 2 {
		t.Errorf("LabelIndex(Option C) = %d, %v", i, ok)
	}
}

func TestShuffleTracksAnswerContent(t *testing.T) {
	r := newRand()
	q := animals()
	for range 50 {
		s := ShuffleOptions([]Question{q}, r)[0]
		if got := s.AnswerText(); got != "Dog" {
			t.Fatalf("answer %q points at %q, want Dog (options %v)", s.Answer, got, s.Options)
		}
		matches := 0
		for i, opt := range s.Options {
			if opt == "Dog" && Label(i) == s.Answer {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("expected exactly one option matching answer, got %d", matches)
		}
	}
}

func TestShufflePreservesOptionSet(t *testing.T) {
	q := animals()
	s := ShuffleOptions([]Question{q}, newRand())[0]

	got := slices.Clone(s.Options)
	slices.Sort(got)
	if !slices.Equal(got, []string{"Cat", "Dog", "Fox"}) {
		t.Errorf("shuffled options %v lost content", s.Options)
	}
	for i, p := range s.Permutation {
		if s.Options[i] != s.OriginalOptions[p] {
			t.Errorf("permutation broken at %d: %q vs %q", i, s.Options[i], s.OriginalOptions[p])
		}
	}
	if !slices.Equal(q.Options, []string{"Cat", "Dog", "Fox"}) {
		t.Error("ShuffleOptions modified its input")
	}
}

func TestRestoreAfterShuffle(t *testing.T) {
	q := animals()
	q.Selected = "Option C"
	r := newRand()

	shuffled := ShuffleOptions(ShuffleOptions([]Question{q}, r), r)
	restored := RestoreOptions(shuffled)[0]

	if !slices.Equal(restored.Options, restored.OriginalOptions) {
		t.Errorf("options %v, want %v", restored.Options, restored.OriginalOptions)
	}
	if restored.Answer != "Option B" {
		t.Errorf("answer = %q, want Option B", restored.Answer)
	}
	if restored.Selected != "Option C" {
		t.Errorf("selected = %q, want Option C", restored.Selected)
	}
}

func TestShuffleKeepsSelectionOnSameOption(t *testing.T) {
	q := animals()
	q.Selected = "Option A" // Cat
	s := ShuffleOptions([]Question{q}, newRand())[0]
	i, ok := LabelIndex(s.Selected)
	if !ok || s.Options[i] != "Cat" {
		t.Errorf("selection %q points at %v", s.Selected, s.Options)
	}
	if s.Correct() {
		t.Error("wrong selection became correct after shuffle")
	}
}

func TestCanonicalAndDisplayLabels(t *testing.T) {
	q := animals()
	q.Options = []string{"Fox", "Dog", "Cat"}
	q.Permutation = []int{2, 1, 0}

	if got := q.CanonicalLabel("Option A"); got != "Option C" {
		t.Errorf("CanonicalLabel(A) = %q, want Option C", got)
	}
	if got := q.DisplayLabel("Option C"); got != "Option A" {
		t.Errorf("DisplayLabel(C) = %q, want Option A", got)
	}
	if got := q.CanonicalLabel("garbage"); got != "garbage" {
		t.Errorf("CanonicalLabel(garbage) = %q", got)
	}
}

func TestShuffleWithoutPermutation(t *testing.T) {
	q := Question{ID: 1, Options: []string{"x", "y"}, OriginalOptions: []string{"x", "y"}, Answer: "Option A"}
	s := ShuffleOptions([]Question{q}, newRand())[0]
	if s.AnswerText() != "x" {
		t.Errorf("answer text = %q, want x", s.AnswerText())
	}
}

func TestFisherYatesUniformish(t *testing.T) {
	r := newRand()
	counts := map[string]int{}
	for range 6000 {
		s := []string{"a", "b", "c"}
		fisherYates(s, r)
		counts[s[0]+s[1]+s[2]]++
	}
	if len(counts) != 6 {
		t.Fatalf("expected 6 permutations, got %d", len(counts))
	}
	for perm, n := range counts {
		if n < 800 || n > 1200 {
			t.Errorf("permutation %s seen %d times", perm, n)
		}
	}
}

package quiz

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Filter names a view predicate over the question list.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterFavorites  Filter = "favorites"
	FilterAnswered   Filter = "answered"
	FilterUnanswered Filter = "unanswered"
	FilterIncorrect  Filter = "incorrect"
)

// Filters lists every filter in toolbar order.
var Filters = []Filter{FilterAll, FilterFavorites, FilterAnswered, FilterUnanswered, FilterIncorrect}

// ParseFilter validates a filter name.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Filters, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Next returns the filter after f in toolbar order, wrapping around.
func (f Filter) Next() Filter {
	i := slices.Index(Filters, f)
	return Filters[(i+1)%len(Filters)]
}

// Match reports whether q belongs to the view named by f.
// Unknown filters match everything.
func (f Filter) Match(q Question, favs Favorites) bool {
	switch f {
	case FilterFavorites:
		return favs.Has(q.ID)
	case FilterAnswered:
		return q.Answered()
	case FilterUnanswered:
		return !q.Answered()
	case FilterIncorrect:
		return q.Selected != q.Answer
	default:
		return true
	}
}

// Favorites is the set of favorited question ids.
type Favorites map[int64]struct{}

// NewFavorites builds a set from ids.
func NewFavorites(ids ...int64) Favorites {
	favs := make(Favorites, len(ids))
	for _, id := range ids {
		favs[id] = struct{}{}
	}
	return favs
}

// Has reports membership.
func (f Favorites) Has(id int64) bool {
	_, ok := f[id]
	return ok
}

// Toggle flips membership of id and reports whether it is now a favorite.
func (f Favorites) Toggle(id int64) bool {
	if f.Has(id) {
		delete(f, id)
		return false
	}
	f[id] = struct{}{}
	return true
}

// Clone returns an independent copy.
func (f Favorites) Clone() Favorites {
	c := make(Favorites, len(f))
	for id := range f {
		c[id] = struct{}{}
	}
	return c
}

// Apply derives the view named by f. The result is a new slice sorted by
// Order ascending; questions with equal Order keep their relative position.
func Apply(qs []Question, favs Favorites, f Filter) []Question {
	view := make([]Question, 0, len(qs))
	for _, q := range qs {
		if f.Match(q, favs) {
			view = append(view, q)
		}
	}
	sortByOrder(view)
	return view
}

// IndexOf returns the position of question id within the view named by f,
// or -1 if the question is not part of it.
func IndexOf(qs []Question, favs Favorites, f Filter, id int64) int {
	return slices.IndexFunc(Apply(qs, favs, f), func(q Question) bool { return q.ID == id })
}

// Search returns the questions whose text or options contain keyword,
// ignoring case, sorted by Order. An empty keyword matches every question.
func Search(qs []Question, keyword string) []Question {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	var hits []Question
	for _, q := range qs {
		if kw == "" || containsFold(q, kw) {
			hits = append(hits, q)
		}
	}
	sortByOrder(hits)
	return hits
}

func containsFold(q Question, kw string) bool {
	if strings.Contains(strings.ToLower(q.Text), kw) {
		return true
	}
	for _, opt := range q.Options {
		if strings.Contains(strings.ToLower(opt), kw) {
			return true
		}
	}
	return false
}

func sortByOrder(qs []Question) {
	slices.SortStableFunc(qs, func(a, b Question) int { return cmp.Compare(a.Order, b.Order) })
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/pavelanni/quizmode/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestQuizSet(t *testing.T, s *Store, name string, n int) int64 {
	t.Helper()
	imp := model.QuizSetImport{Name: name}
	for i := range n {
		imp.Questions = append(imp.Questions, model.QuestionImport{
			Order:   n - i,
			Text:    name + " question",
			Options: []string{"Cat", "Dog", "Fox"},
			Answer:  "Option B",
			URL:     "https://example.com",
		})
	}
	id, err := s.CreateQuizSet(context.Background(), imp)
	if err != nil {
		t.Fatalf("insertTestQuizSet: %v", err)
	}
	return id
}

func TestQuizSetCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.QuestionCount(ctx)
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 questions, got %d", count)
	}

	id := insertTestQuizSet(t, s, "Animals", 3)
	set, err := s.GetQuizSet(ctx, id)
	if err != nil {
		t.Fatalf("GetQuizSet: %v", err)
	}
	if set.Name != "Animals" {
		t.Errorf("expected name Animals, got %q", set.Name)
	}
	if set.Status != model.StatusNotAttempted {
		t.Errorf("expected status %q, got %q", model.StatusNotAttempted, set.Status)
	}
	if set.QuestionCount != 3 {
		t.Errorf("expected 3 questions, got %d", set.QuestionCount)
	}
	if !set.EyeIconState {
		t.Error("expected eye icon shown by default")
	}

	_, err = s.GetQuizSet(ctx, 9999)
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	insertTestQuizSet(t, s, "Planets", 2)
	sets, err := s.ListQuizSets(ctx)
	if err != nil {
		t.Fatalf("ListQuizSets: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 quiz sets, got %d", len(sets))
	}
}

func TestListQuestionsOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertTestQuizSet(t, s, "Animals", 4)

	qs, err := s.ListQuestions(ctx, id)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(qs) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(qs))
	}
	for i, q := range qs {
		if q.Order != i+1 {
			t.Errorf("question %d has order %d", i, q.Order)
		}
		if !slices.Equal(q.Options, []string{"Cat", "Dog", "Fox"}) {
			t.Errorf("options = %v", q.Options)
		}
	}

	got, err := s.GetQuestion(ctx, qs[0].ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Answer != "Option B" || got.QuizSetID != id {
		t.Errorf("GetQuestion = %+v", got)
	}

	if _, err := s.ListQuestions(ctx, 9999); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows for unknown quiz set, got %v", err)
	}
}

func TestSelectionsAndFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertTestQuizSet(t, s, "Animals", 3)
	qs, _ := s.ListQuestions(ctx, id)

	opt := "Option A"
	if err := s.UpdateUserSelection(ctx, qs[0].ID, &opt); err != nil {
		t.Fatalf("UpdateUserSelection: %v", err)
	}
	opt2 := "Option B"
	if err := s.UpdateUserSelection(ctx, qs[1].ID, &opt2); err != nil {
		t.Fatalf("UpdateUserSelection: %v", err)
	}
	if err := s.UpdateUserSelection(ctx, qs[1].ID, nil); err != nil {
		t.Fatalf("clear selection: %v", err)
	}
	if err := s.UpdateUserSelection(ctx, 9999, &opt); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	sel, err := s.UserSelections(ctx, id)
	if err != nil {
		t.Fatalf("UserSelections: %v", err)
	}
	if len(sel) != 1 || sel[qs[0].ID] != "Option A" {
		t.Errorf("selections = %v", sel)
	}

	fav, err := s.ToggleFavorite(ctx, qs[2].ID)
	if err != nil || !fav {
		t.Fatalf("ToggleFavorite = %v, %v", fav, err)
	}
	ids, err := s.Favorites(ctx, id)
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if !slices.Equal(ids, []int64{qs[2].ID}) {
		t.Errorf("favorites = %v", ids)
	}
	fav, _ = s.ToggleFavorite(ctx, qs[2].ID)
	if fav {
		t.Error("second toggle should unfavorite")
	}
}

func TestScoreStatusAndEyeIcon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertTestQuizSet(t, s, "Animals", 2)

	for _, inc := range []int{1, 1, -1} {
		if err := s.AddProgressScore(ctx, id, inc); err != nil {
			t.Fatalf("AddProgressScore: %v", err)
		}
	}
	if err := s.SetQuizSetScore(ctx, id, 2); err != nil {
		t.Fatalf("SetQuizSetScore: %v", err)
	}
	if err := s.SetQuizSetStatus(ctx, id, model.StatusPassed); err != nil {
		t.Fatalf("SetQuizSetStatus: %v", err)
	}
	if err := s.SetEyeIconState(ctx, id, false); err != nil {
		t.Fatalf("SetEyeIconState: %v", err)
	}

	set, _ := s.GetQuizSet(ctx, id)
	if set.ProgressScore != 1 || set.Score != 2 || set.Status != model.StatusPassed || set.EyeIconState {
		t.Errorf("quiz set = %+v", set)
	}
	state, err := s.EyeIconState(ctx, id)
	if err != nil || state {
		t.Errorf("EyeIconState = %v, %v", state, err)
	}

	if err := s.AddProgressScore(ctx, 9999, 1); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestShuffleAndReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertTestQuizSet(t, s, "Animals", 6)
	before, _ := s.ListQuestions(ctx, id)

	opt := "Option B"
	_ = s.UpdateUserSelection(ctx, before[0].ID, &opt)
	_, _ = s.ToggleFavorite(ctx, before[1].ID)
	_ = s.AddProgressScore(ctx, id, 1)

	shuffled, err := s.ShuffleQuestions(ctx, id)
	if err != nil {
		t.Fatalf("ShuffleQuestions: %v", err)
	}
	if len(shuffled) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(shuffled))
	}
	var seen []int64
	for i, q := range shuffled {
		if q.Order != i+1 {
			t.Errorf("shuffled question %d has order %d", i, q.Order)
		}
		seen = append(seen, q.ID)
	}
	after, _ := s.ListQuestions(ctx, id)
	for i := range after {
		if after[i].ID != shuffled[i].ID {
			t.Fatalf("stored order differs from returned order")
		}
	}
	slices.Sort(seen)
	var want []int64
	for _, q := range before {
		want = append(want, q.ID)
	}
	slices.Sort(want)
	if !slices.Equal(seen, want) {
		t.Errorf("shuffle changed question set: %v vs %v", seen, want)
	}

	if err := s.ResetQuestions(ctx, id); err != nil {
		t.Fatalf("ResetQuestions: %v", err)
	}
	reset, _ := s.ListQuestions(ctx, id)
	for i := range reset {
		if reset[i].ID != before[i].ID {
			t.Fatalf("reset did not restore order")
		}
	}
	sel, _ := s.UserSelections(ctx, id)
	if len(sel) != 0 {
		t.Errorf("reset kept selections: %v", sel)
	}
	favs, _ := s.Favorites(ctx, id)
	if len(favs) != 1 {
		t.Errorf("reset dropped favorites: %v", favs)
	}
	set, _ := s.GetQuizSet(ctx, id)
	if set.ProgressScore != 0 || set.Status != model.StatusNotAttempted {
		t.Errorf("quiz set after reset = %+v", set)
	}

	if err := s.ResetQuestions(ctx, 9999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestImportedFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := s.GetImportedFile(ctx, "quiz.json")
	if err != nil || f != nil {
		t.Fatalf("GetImportedFile = %v, %v", f, err)
	}
	if err := s.SetImportedFile(ctx, ImportedFile{Path: "quiz.json", Hash: "abc", QuizSetID: 1}); err != nil {
		t.Fatalf("SetImportedFile: %v", err)
	}
	if err := s.SetImportedFile(ctx, ImportedFile{Path: "quiz.json", Hash: "def", QuizSetID: 2}); err != nil {
		t.Fatalf("SetImportedFile upsert: %v", err)
	}
	f, err = s.GetImportedFile(ctx, "quiz.json")
	if err != nil || f == nil || f.Hash != "def" || f.QuizSetID != 2 {
		t.Errorf("GetImportedFile = %+v, %v", f, err)
	}
}

func TestImportQuizSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	imp := model.QuizSetImport{Name: "Animals", Questions: []model.QuestionImport{
		{Order: 1, Text: "Which one barks?", Options: []string{"Cat", "Dog"}, Answer: "Option B"},
	}}
	hash := FileHash([]byte("v1"))

	id, created, err := s.ImportQuizSet(ctx, "animals.json", hash, imp)
	if err != nil || !created {
		t.Fatalf("ImportQuizSet = %d, %v, %v", id, created, err)
	}

	again, created, err := s.ImportQuizSet(ctx, "animals.json", hash, imp)
	if err != nil || created || again != id {
		t.Errorf("unchanged import = %d, %v, %v; want %d, false, nil", again, created, err, id)
	}

	_, _, err = s.ImportQuizSet(ctx, "animals.json", FileHash([]byte("v2")), imp)
	if !errors.Is(err, ErrFileChanged) {
		t.Errorf("expected ErrFileChanged, got %v", err)
	}

	sets, _ := s.ListQuizSets(ctx)
	if len(sets) != 1 {
		t.Errorf("expected 1 quiz set, got %d", len(sets))
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, model.User{
		Username: "admin", DisplayName: "Administrator", PasswordHash: "x", Role: model.UserRoleAdmin, Active: true,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	n, _ := s.UserCount(ctx)
	if n != 1 {
		t.Errorf("UserCount = %d", n)
	}
	u, err := s.GetUserByUsername(ctx, "admin")
	if err != nil || u == nil || u.Role != model.UserRoleAdmin || !u.Active {
		t.Errorf("GetUserByUsername = %+v, %v", u, err)
	}
	u, err = s.GetUserByUsername(ctx, "nobody")
	if err != nil || u != nil {
		t.Errorf("missing user = %+v, %v", u, err)
	}
}

func TestExportResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := insertTestQuizSet(t, s, "Animals", 2)
	qs, _ := s.ListQuestions(ctx, id)
	right, wrong := "Option B", "Option C"
	_ = s.UpdateUserSelection(ctx, qs[0].ID, &right)
	_ = s.UpdateUserSelection(ctx, qs[1].ID, &wrong)

	export, err := s.ExportResults(ctx)
	if err != nil {
		t.Fatalf("ExportResults: %v", err)
	}
	if len(export.QuizSets) != 1 {
		t.Fatalf("expected 1 quiz set, got %d", len(export.QuizSets))
	}
	r := export.QuizSets[0]
	if r.NumQuestions != 2 || r.NumAnswered != 2 {
		t.Errorf("result = %+v", r)
	}
	if !r.Questions[0].Correct || r.Questions[1].Correct {
		t.Errorf("correctness = %v, %v", r.Questions[0].Correct, r.Questions[1].Correct)
	}
}

func TestRebind(t *testing.T) {
	s := &Store{driver: DriverPostgres}
	if got := s.rebind(`UPDATE t SET a = ? WHERE id = ?`); got != `UPDATE t SET a = $1 WHERE id = $2` {
		t.Errorf("rebind = %q", got)
	}
	s.driver = DriverSQLite
	if got := s.rebind(`SELECT ?`); got != `SELECT ?` {
		t.Errorf("sqlite rebind = %q", got)
	}
}

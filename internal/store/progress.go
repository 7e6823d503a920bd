package store

import (
	"context"
	"database/sql"
	"math/rand/v2"

	"github.com/pavelanni/quizmode/internal/model"
)

// UserSelections returns the selected option label per question of a quiz set.
// Unanswered questions are absent from the map.
func (s *Store) UserSelections(ctx context.Context, quizSetID int64) (map[int64]string, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, selected_option FROM questions WHERE quiz_set_id = ? AND selected_option IS NOT NULL`, quizSetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sel := make(map[int64]string)
	for rows.Next() {
		var (
			id  int64
			opt string
		)
		if err := rows.Scan(&id, &opt); err != nil {
			return nil, err
		}
		sel[id] = opt
	}
	return sel, rows.Err()
}

// UpdateUserSelection records the selected option for a question.
// A nil option clears the selection.
func (s *Store) UpdateUserSelection(ctx context.Context, questionID int64, option *string) error {
	var v sql.NullString
	if option != nil {
		v = sql.NullString{String: *option, Valid: true}
	}
	return s.execOne(ctx, `UPDATE questions SET selected_option = ? WHERE id = ?`, v, questionID)
}

// Favorites returns the ids of favorited questions in a quiz set.
func (s *Store) Favorites(ctx context.Context, quizSetID int64) ([]int64, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id FROM questions WHERE quiz_set_id = ? AND is_favorite ORDER BY position, id`, quizSetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ToggleFavorite flips the favorite flag and returns its new value.
func (s *Store) ToggleFavorite(ctx context.Context, questionID int64) (bool, error) {
	var fav bool
	err := s.queryRow(ctx, s.db,
		`UPDATE questions SET is_favorite = NOT is_favorite WHERE id = ? RETURNING is_favorite`, questionID,
	).Scan(&fav)
	return fav, err
}

// AddProgressScore applies a score increment from a single answer change.
func (s *Store) AddProgressScore(ctx context.Context, quizSetID int64, increment int) error {
	return s.execOne(ctx, `UPDATE quiz_sets SET progress_score = progress_score + ? WHERE id = ?`, increment, quizSetID)
}

// SetQuizSetScore stores the final score of a submission.
func (s *Store) SetQuizSetScore(ctx context.Context, quizSetID int64, score int) error {
	return s.execOne(ctx, `UPDATE quiz_sets SET score = ? WHERE id = ?`, score, quizSetID)
}

// SetQuizSetStatus stores the pass/fail outcome of a submission.
func (s *Store) SetQuizSetStatus(ctx context.Context, quizSetID int64, status model.QuizStatus) error {
	return s.execOne(ctx, `UPDATE quiz_sets SET status = ? WHERE id = ?`, status, quizSetID)
}

// EyeIconState reports whether the flip card is shown for a quiz set.
func (s *Store) EyeIconState(ctx context.Context, quizSetID int64) (bool, error) {
	var state bool
	err := s.queryRow(ctx, s.db, `SELECT eye_icon_state FROM quiz_sets WHERE id = ?`, quizSetID).Scan(&state)
	return state, err
}

// SetEyeIconState stores the flip card visibility for a quiz set.
func (s *Store) SetEyeIconState(ctx context.Context, quizSetID int64, state bool) error {
	return s.execOne(ctx, `UPDATE quiz_sets SET eye_icon_state = ? WHERE id = ?`, state, quizSetID)
}

// ShuffleQuestions assigns a new random order to the questions of a quiz set
// and returns them in that order.
func (s *Store) ShuffleQuestions(ctx context.Context, quizSetID int64) ([]model.QuestionRecord, error) {
	if _, err := s.GetQuizSet(ctx, quizSetID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := s.questionRows(ctx, tx, quizSetID)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})

	for i := range rows {
		rows[i].Order = i + 1
		if _, err := s.exec(ctx, tx, `UPDATE questions SET position = ? WHERE id = ?`, rows[i].Order, rows[i].ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return records(rows), nil
}

// ResetQuestions clears every selection of a quiz set, restores the
// original question order and resets the quiz set's progress and outcome.
// Favorites are kept.
func (s *Store) ResetQuestions(ctx context.Context, quizSetID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := s.exec(ctx, tx,
		`UPDATE quiz_sets SET progress_score = 0, score = 0, status = ? WHERE id = ?`,
		model.StatusNotAttempted, quizSetID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}

	_, err = s.exec(ctx, tx,
		`UPDATE questions SET selected_option = NULL, position = original_position WHERE quiz_set_id = ?`, quizSetID,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

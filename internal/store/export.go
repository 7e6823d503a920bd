package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/quizmode/internal/model"
)

// ExportResults builds export-ready progress for every quiz set.
func (s *Store) ExportResults(ctx context.Context) (model.ResultsExport, error) {
	export := model.ResultsExport{ExportedAt: time.Now().UTC()}

	sets, err := s.ListQuizSets(ctx)
	if err != nil {
		return export, fmt.Errorf("list quiz sets: %w", err)
	}

	for _, set := range sets {
		rows, err := s.questionRows(ctx, s.db, set.ID)
		if err != nil {
			return export, fmt.Errorf("list questions of quiz set %d: %w", set.ID, err)
		}

		result := model.QuizSetResult{
			ID:            set.ID,
			Name:          set.Name,
			Status:        set.Status,
			Score:         set.Score,
			ProgressScore: set.ProgressScore,
			NumQuestions:  len(rows),
		}
		for _, r := range rows {
			qr := model.QuestionResult{
				ID:       r.ID,
				Order:    r.Order,
				Text:     r.Text,
				Options:  r.Options,
				Answer:   r.Answer,
				Favorite: r.Favorite,
			}
			if r.Selected.Valid {
				sel := r.Selected.String
				qr.SelectedOption = &sel
				qr.Correct = sel == r.Answer
				result.NumAnswered++
			}
			result.Questions = append(result.Questions, qr)
		}
		export.QuizSets = append(export.QuizSets, result)
	}

	return export, nil
}

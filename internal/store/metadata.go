package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/quizmode/internal/model"
)

// ErrFileChanged is returned when a quiz file was imported before with
// different content.
var ErrFileChanged = errors.New("quiz file changed since last import")

// ImportedFile is the import record of a quiz file.
type ImportedFile struct {
	Path      string
	Hash      string
	QuizSetID int64
}

// GetImportedFile returns the import record for path, or nil if the file was
// never imported.
func (s *Store) GetImportedFile(ctx context.Context, path string) (*ImportedFile, error) {
	f := ImportedFile{Path: path}
	err := s.queryRow(ctx, s.db,
		`SELECT hash, quiz_set_id FROM imported_files WHERE path = ?`, path,
	).Scan(&f.Hash, &f.QuizSetID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SetImportedFile records that path with the given hash produced a quiz set.
func (s *Store) SetImportedFile(ctx context.Context, f ImportedFile) error {
	_, err := s.exec(ctx, s.db,
		`INSERT INTO imported_files (path, hash, quiz_set_id, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, quiz_set_id = excluded.quiz_set_id,
		 imported_at = excluded.imported_at`,
		f.Path, f.Hash, f.QuizSetID, time.Now(),
	)
	return err
}

// FileHash returns the hex SHA-256 digest of a quiz file.
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImportQuizSet creates a quiz set from imp and records the file it came
// from. A file imported before with the same hash returns the existing quiz
// set id and created=false; one with a different hash returns ErrFileChanged.
func (s *Store) ImportQuizSet(ctx context.Context, path, hash string, imp model.QuizSetImport) (id int64, created bool, err error) {
	prev, err := s.GetImportedFile(ctx, path)
	if err != nil {
		return 0, false, fmt.Errorf("check import status: %w", err)
	}
	if prev != nil {
		if prev.Hash == hash {
			return prev.QuizSetID, false, nil
		}
		return 0, false, fmt.Errorf("%s: %w", path, ErrFileChanged)
	}

	id, err = s.CreateQuizSet(ctx, imp)
	if err != nil {
		return 0, false, err
	}
	if err := s.SetImportedFile(ctx, ImportedFile{Path: path, Hash: hash, QuizSetID: id}); err != nil {
		slog.Error("failed to record import", "path", path, "error", err)
	}
	return id, true, nil
}

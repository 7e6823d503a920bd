package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/quizmode/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Store struct {
	db     *sql.DB
	driver Driver
}

// New opens a SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	return Open(context.Background(), DriverSQLite, dbPath)
}

// Open connects to the given backend and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps :memory: databases alive and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS quiz_sets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Not Attempted',
	score INTEGER NOT NULL DEFAULT 0,
	progress_score INTEGER NOT NULL DEFAULT 0,
	eye_icon_state BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	quiz_set_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	original_position INTEGER NOT NULL,
	text TEXT NOT NULL,
	options TEXT NOT NULL,
	answer TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	explanation TEXT NOT NULL DEFAULT '',
	discussion_link TEXT NOT NULL DEFAULT '',
	has_math_content BOOLEAN NOT NULL DEFAULT FALSE,
	selected_option TEXT,
	is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
	FOREIGN KEY (quiz_set_id) REFERENCES quiz_sets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_questions_quiz_set ON questions(quiz_set_id, position);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	quiz_set_id INTEGER NOT NULL,
	imported_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS quiz_sets (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Not Attempted',
	score INTEGER NOT NULL DEFAULT 0,
	progress_score INTEGER NOT NULL DEFAULT 0,
	eye_icon_state BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	quiz_set_id BIGINT NOT NULL REFERENCES quiz_sets(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	original_position INTEGER NOT NULL,
	text TEXT NOT NULL,
	options TEXT NOT NULL,
	answer TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	explanation TEXT NOT NULL DEFAULT '',
	discussion_link TEXT NOT NULL DEFAULT '',
	has_math_content BOOLEAN NOT NULL DEFAULT FALSE,
	selected_option TEXT,
	is_favorite BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_questions_quiz_set ON questions(quiz_set_id, position);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	quiz_set_id BIGINT NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);
`

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context, q queryer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q queryer, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q queryer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.rebind(query), args...)
}

// execOne runs an update that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, s.db, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateQuizSet stores a quiz set and its questions in one transaction.
// Questions without an explicit order are numbered by file position.
func (s *Store) CreateQuizSet(ctx context.Context, imp model.QuizSetImport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = s.queryRow(ctx, tx,
		`INSERT INTO quiz_sets (name, status, created_at) VALUES (?, ?, ?) RETURNING id`,
		imp.Name, model.StatusNotAttempted, time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quiz set: %w", err)
	}

	for i, q := range imp.Questions {
		order := q.Order
		if order == 0 {
			order = i + 1
		}
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return 0, err
		}
		_, err = s.exec(ctx, tx,
			`INSERT INTO questions (quiz_set_id, position, original_position, text, options, answer,
			 url, explanation, discussion_link, has_math_content)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, order, order, q.Text, string(opts), q.Answer,
			q.URL, q.Explanation, q.DiscussionLink, q.HasMathContent,
		)
		if err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}

	return id, tx.Commit()
}

const quizSetColumns = `q.id, q.name, q.status, q.score, q.progress_score, q.eye_icon_state, q.created_at,
	(SELECT COUNT(*) FROM questions WHERE quiz_set_id = q.id)`

func scanQuizSet(sc interface{ Scan(...any) error }) (model.QuizSet, error) {
	var qs model.QuizSet
	err := sc.Scan(&qs.ID, &qs.Name, &qs.Status, &qs.Score, &qs.ProgressScore, &qs.EyeIconState, &qs.CreatedAt, &qs.QuestionCount)
	return qs, err
}

// GetQuizSet returns a quiz set by ID.
func (s *Store) GetQuizSet(ctx context.Context, id int64) (model.QuizSet, error) {
	return scanQuizSet(s.queryRow(ctx, s.db, `SELECT `+quizSetColumns+` FROM quiz_sets q WHERE q.id = ?`, id))
}

// ListQuizSets returns all quiz sets, oldest first.
func (s *Store) ListQuizSets(ctx context.Context) ([]model.QuizSet, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+quizSetColumns+` FROM quiz_sets q ORDER BY q.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sets []model.QuizSet
	for rows.Next() {
		qs, err := scanQuizSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, qs)
	}
	return sets, rows.Err()
}

// questionRow is a stored question with its per-user state.
type questionRow struct {
	model.QuestionRecord
	Selected sql.NullString
	Favorite bool
}

const questionColumns = `id, quiz_set_id, position, text, options, answer, url, explanation,
	discussion_link, has_math_content, selected_option, is_favorite`

func scanQuestion(sc interface{ Scan(...any) error }) (questionRow, error) {
	var (
		r    questionRow
		opts string
	)
	err := sc.Scan(&r.ID, &r.QuizSetID, &r.Order, &r.Text, &opts, &r.Answer, &r.URL, &r.Explanation,
		&r.DiscussionLink, &r.HasMathContent, &r.Selected, &r.Favorite)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(opts), &r.Options); err != nil {
		return r, fmt.Errorf("decode options of question %d: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) questionRows(ctx context.Context, q queryer, quizSetID int64) ([]questionRow, error) {
	rows, err := s.query(ctx, q,
		`SELECT `+questionColumns+` FROM questions WHERE quiz_set_id = ? ORDER BY position, id`, quizSetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []questionRow
	for rows.Next() {
		r, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListQuestions returns the questions of a quiz set in their current order.
func (s *Store) ListQuestions(ctx context.Context, quizSetID int64) ([]model.QuestionRecord, error) {
	if _, err := s.GetQuizSet(ctx, quizSetID); err != nil {
		return nil, err
	}
	rows, err := s.questionRows(ctx, s.db, quizSetID)
	if err != nil {
		return nil, err
	}
	return records(rows), nil
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(ctx context.Context, id int64) (model.QuestionRecord, error) {
	r, err := scanQuestion(s.queryRow(ctx, s.db, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
	return r.QuestionRecord, err
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount(ctx context.Context) (int, error) {
	var count int
	err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

func records(rows []questionRow) []model.QuestionRecord {
	out := make([]model.QuestionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.QuestionRecord)
	}
	return out
}

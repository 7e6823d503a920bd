// Package quizfile parses quiz set files. JSON files hold a QuizSetImport
// document; spreadsheets hold one question per row under a header row.
package quizfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/quiz"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported quiz file format")

// Parse decodes a quiz set file. The format is chosen by extension. A quiz
// set without a name is named after the file.
func Parse(name string, data []byte) (model.QuizSetImport, error) {
	var (
		imp model.QuizSetImport
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = json.Unmarshal(data, &imp)
	case ".xlsx":
		imp, err = parseXLSX(data)
	default:
		return imp, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return imp, fmt.Errorf("parse %s: %w", name, err)
	}
	if imp.Name == "" {
		imp.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if err := Validate(imp); err != nil {
		return imp, fmt.Errorf("validate %s: %w", name, err)
	}
	return imp, nil
}

// Validate checks that every question has text, at least two options and an
// answer label pointing at one of them.
func Validate(imp model.QuizSetImport) error {
	if len(imp.Questions) == 0 {
		return errors.New("quiz set has no questions")
	}
	var errs []error
	for i, q := range imp.Questions {
		n := i + 1
		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, fmt.Errorf("question %d: empty text", n))
		}
		if len(q.Options) < 2 || len(q.Options) > 26 {
			errs = append(errs, fmt.Errorf("question %d: need 2 to 26 options, got %d", n, len(q.Options)))
			continue
		}
		idx, ok := quiz.LabelIndex(q.Answer)
		if !ok || idx >= len(q.Options) {
			errs = append(errs, fmt.Errorf("question %d: answer %q is not one of %s..%s",
				n, q.Answer, quiz.Label(0), quiz.Label(len(q.Options)-1)))
		}
	}
	return errors.Join(errs...)
}

// parseXLSX reads the first sheet. Recognized headers are order, text,
// answer, url, explanation, discussion_link and has_math_content; every
// header starting with "option" adds an option column, in column order.
// The answer cell may be a label ("Option B") or a bare letter ("B").
func parseXLSX(data []byte) (model.QuizSetImport, error) {
	var imp model.QuizSetImport

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return imp, fmt.Errorf("open excel: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return imp, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return imp, errors.New("sheet has no question rows")
	}

	cols := map[string]int{}
	var optionCols []int
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if strings.HasPrefix(h, "option") {
			optionCols = append(optionCols, i)
			continue
		}
		cols[h] = i
	}
	if _, ok := cols["text"]; !ok {
		return imp, errors.New(`missing "text" column`)
	}
	if _, ok := cols["answer"]; !ok {
		return imp, errors.New(`missing "answer" column`)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for r, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		q := model.QuestionImport{
			Text:           cell(row, "text"),
			Answer:         normalizeAnswer(cell(row, "answer")),
			URL:            cell(row, "url"),
			Explanation:    cell(row, "explanation"),
			DiscussionLink: cell(row, "discussion_link"),
		}
		if v := cell(row, "order"); v != "" {
			q.Order, err = strconv.Atoi(v)
			if err != nil {
				return imp, fmt.Errorf("row %d: invalid order %q", r+2, v)
			}
		}
		if v := cell(row, "has_math_content"); v != "" {
			q.HasMathContent, err = strconv.ParseBool(strings.ToLower(v))
			if err != nil {
				return imp, fmt.Errorf("row %d: invalid has_math_content %q", r+2, v)
			}
		}
		for _, c := range optionCols {
			if c < len(row) && strings.TrimSpace(row[c]) != "" {
				q.Options = append(q.Options, strings.TrimSpace(row[c]))
			}
		}
		imp.Questions = append(imp.Questions, q)
	}
	return imp, nil
}

func normalizeAnswer(v string) string {
	if len(v) == 1 {
		c := strings.ToUpper(v)[0]
		if c >= 'A' && c <= 'Z' {
			return quiz.Label(int(c - 'A'))
		}
	}
	return v
}

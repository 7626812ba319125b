// Package export renders record sets as downloadable CSV and PDF reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/mdpsurvey/internal/domain/model"
)

// FilePrefix is the default download name prefix.
const FilePrefix = "mdp-evaluations"

// CSVHeader is the fixed column order of the CSV export.
func CSVHeader() []string {
	return []string{
		"MDP Name",
		"Function",
		"Manager",
		"Rotation",
		"Composite Score",
		"Band",
		"Job Knowledge",
		"Quality of Work",
		"Communication",
		"Initiative",
		"Function Specific 1 Question",
		"Function Specific 1",
		"Function Specific 2 Question",
		"Function Specific 2",
		"Submitted At",
	}
}

// WriteCSV writes the header and one row per record to w.
func WriteCSV(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader()); err != nil {
		return fmt.Errorf("%w: header: %w", ErrWrite, err)
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("%w: record %s: %w", ErrWrite, r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func csvRow(r model.Record) []string {
	// unknown legacy functions leave the question cells empty
	questions, _ := model.FunctionQuestions(r.Function)
	return []string{
		r.MDPName,
		string(r.Function),
		r.ManagerName,
		r.Rotation,
		FormatScore(r.CompositeScore),
		r.Band(),
		strconv.Itoa(r.JobKnowledge),
		strconv.Itoa(r.QualityOfWork),
		strconv.Itoa(r.Communication),
		strconv.Itoa(r.Initiative),
		questions[0],
		optional(r.FunctionSpecific1),
		questions[1],
		optional(r.FunctionSpecific2),
		submitted(r),
	}
}

// FormatScore renders a score with two decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Filename builds the attachment name, e.g. mdp-evaluations-2026-03-01.csv.
func Filename(prefix, ext string, now time.Time) string {
	if prefix == "" {
		prefix = FilePrefix
	}
	return prefix + "-" + now.Format("2006-01-02") + "." + ext
}

func optional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func submitted(r model.Record) string {
	if r.SubmittedAt != "" {
		return r.SubmittedAt
	}
	if r.Timestamp.IsZero() {
		return ""
	}
	return r.Timestamp.UTC().Format(time.RFC3339)
}

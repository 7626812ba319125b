package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/internal/domain/stats"
)

// Report column widths in millimetres, landscape A4.
var tableColumns = []struct { //nolint:gochecknoglobals // fixed layout
	title string
	width float64
}{
	{"MDP Name", 50},
	{"Function", 36},
	{"Manager", 30},
	{"Rotation", 20},
	{"Composite", 24},
	{"Band", 16},
	{"JK", 14},
	{"QW", 14},
	{"CM", 14},
	{"IN", 14},
	{"Submitted", 45},
}

// WritePDF renders a printable report of summary and records to w.
func WritePDF(w io.Writer, title string, summary stats.Summary, records []model.Record, now time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+now.UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	writeTiles(pdf, tr, summary)
	writeAreas(pdf, summary)
	writeFunctions(pdf, tr, summary)
	writeTable(pdf, tr, records)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: pdf: %w", ErrWrite, err)
	}
	return nil
}

func writeTiles(pdf *gofpdf.Fpdf, tr func(string) string, s stats.Summary) {
	tiles := [][2]string{
		{"Total Responses", strconv.Itoa(s.TotalResponses)},
		{"Unique MDPs", strconv.Itoa(s.UniqueMDPs)},
		{"Average Score", FormatScore(s.AverageScore)},
		{"Top Performer", s.TopPerformer},
	}
	pdf.SetFillColor(235, 241, 250)
	pdf.SetFont("Helvetica", "B", 9)
	for _, t := range tiles {
		pdf.CellFormat(68, 7, t[0], "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	for _, t := range tiles {
		pdf.CellFormat(68, 9, tr(t[1]), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(12)
}

func writeAreas(pdf *gofpdf.Fpdf, s stats.Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Assessment Area Averages")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	names := model.AreaNames()
	for k, name := range names {
		pdf.CellFormat(80, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, FormatScore(s.AssessmentAreaAverages[k]), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func writeFunctions(pdf *gofpdf.Fpdf, tr func(string) string, s stats.Summary) {
	if len(s.FunctionBreakdown) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Function Breakdown")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	functions := make([]string, 0, len(s.FunctionBreakdown))
	for fn := range s.FunctionBreakdown {
		functions = append(functions, fn)
	}
	sort.Strings(functions)
	for _, fn := range functions {
		pdf.CellFormat(80, 6, tr(fn), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(s.FunctionBreakdown[fn]), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, "avg "+FormatScore(s.FunctionAverages[fn]), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, records []model.Record) {
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		for _, c := range tableColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range records {
		if pdf.GetY()+6 > pageHeight-bottom-12 {
			pdf.AddPage()
			header()
		}
		cells := []string{
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
			submitted(r),
		}
		for i, c := range tableColumns {
			pdf.CellFormat(c.width, 6, tr(cells[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

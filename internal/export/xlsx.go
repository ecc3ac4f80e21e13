// Package export writes graded results to XLSX spreadsheets.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

var resultHeaders = []string{
	"O'quvchi ismi",
	"Sinf",
	"Jami savollar",
	"To'g'ri javoblar",
	"Noto'g'ri javoblar",
	"Ball",
	"Foiz",
	"Baho",
	"Sana",
}

// Exporter renders results workbooks into a target directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Export writes one row per result plus a summary sheet with true
// aggregates, and returns the written file path.
func (e *Exporter) Export(test *model.Test, results []*model.GradedResult, filename string) (string, error) {
	if len(results) == 0 {
		return "", eris.New("export: no results to export")
	}

	f := xlsx.NewFile()

	if err := e.addResultsSheet(f, results); err != nil {
		return "", err
	}
	if err := e.addSummarySheet(f, test, results); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "export: create dir %s", e.dir)
	}
	path := filepath.Join(e.dir, filename)
	if err := f.Save(path); err != nil {
		return "", eris.Wrapf(err, "export: save %s", path)
	}
	return path, nil
}

func (e *Exporter) addResultsSheet(f *xlsx.File, results []*model.GradedResult) error {
	sheet, err := f.AddSheet("Test natijalari")
	if err != nil {
		return eris.Wrap(err, "export: add results sheet")
	}

	header := sheet.AddRow()
	for _, h := range resultHeaders {
		header.AddCell().SetString(h)
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.StudentName)
		row.AddCell().SetString(r.StudentClass)
		row.AddCell().SetInt(r.TotalQuestions)
		row.AddCell().SetInt(r.CorrectAnswers)
		row.AddCell().SetInt(r.WrongAnswers)
		row.AddCell().SetInt(r.Score)
		row.AddCell().SetString(formatPercent(r.Percentage))
		row.AddCell().SetString(r.GradeBand.Label())
		row.AddCell().SetString(r.ProcessedAt.Format(timeLayout))
	}
	return nil
}

func (e *Exporter) addSummarySheet(f *xlsx.File, test *model.Test, results []*model.GradedResult) error {
	sheet, err := f.AddSheet("Umumiy ma'lumot")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addPair := func(label, value string) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetString(value)
	}

	addPair("Test nomi", test.Title)
	addPair("Fan", test.Subject)
	addPair("Sinf darajasi", test.GradeLevel)

	row := sheet.AddRow()
	row.AddCell().SetString("O'quvchilar soni")
	row.AddCell().SetInt(len(results))

	addPair("O'rtacha foiz", formatPercent(averagePercentage(results)))
	return nil
}

func averagePercentage(results []*model.GradedResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Percentage
	}
	return sum / float64(len(results))
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

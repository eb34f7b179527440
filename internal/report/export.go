// Package report exports run reports as spreadsheets for the district
// committees.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/pipeline"
)

// outcomeColumns defines the ordered outcome sheet columns.
var outcomeColumns = []string{
	"Type",
	"Number",
	"Locality",
	"District",
	"Outcome",
	"Roster Location",
	"Listing Location",
	"Issues",
}

var scoreColumns = []string{"Type", "Number", "Locality", "Score", "Grade", "Issues"}

var rejectionColumns = []string{"Source", "Batch", "Type", "Number", "Locality", "Organization", "Reason"}

// WriteXLSX writes the report as a plain workbook with Outcomes, Scores and
// Rejections sheets.
func WriteXLSX(r *pipeline.Report, outputPath string) error {
	f := xlsx.NewFile()

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"Outcomes", outcomeColumns, outcomeRows(r)},
		{"Scores", scoreColumns, scoreRows(r)},
		{"Rejections", rejectionColumns, rejectionRows(r)},
	}
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", s.name)
		}
		addRow(sheet, s.header)
		for _, row := range s.rows {
			addRow(sheet, row)
		}
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	return nil
}

// WriteOutcomesCSV writes the outcome sheet alone as CSV.
func WriteOutcomesCSV(r *pipeline.Report, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "report: create file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(outcomeColumns); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, row := range outcomeRows(r) {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func outcomeRows(r *pipeline.Report) [][]string {
	rows := make([][]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		var district, rosterLoc, listingLoc string
		if o.Authoritative != nil {
			district = o.Authoritative.District
			rosterLoc = o.Authoritative.Location
		}
		if o.Collected != nil {
			if district == "" {
				district = o.Collected.District
			}
			listingLoc = o.Collected.Location
		}
		rows = append(rows, []string{
			string(o.Key.Type),
			o.Key.Number,
			o.Key.Locality,
			district,
			string(o.Kind),
			rosterLoc,
			listingLoc,
			strings.Join(o.Issues, "; "),
		})
	}
	return rows
}

func scoreRows(r *pipeline.Report) [][]string {
	rows := make([][]string, 0, len(r.Scores))
	for _, s := range r.Scores {
		rows = append(rows, []string{
			string(s.Key.Type),
			s.Key.Number,
			s.Key.Locality,
			fmt.Sprintf("%.2f", s.Score),
			string(s.Grade),
			strings.Join(s.Issues, "; "),
		})
	}
	return rows
}

func rejectionRows(r *pipeline.Report) [][]string {
	rows := make([][]string, 0, len(r.Rejections))
	for _, rej := range r.Rejections {
		rows = append(rows, rejectionRow(rej))
	}
	return rows
}

func rejectionRow(rej model.Rejection) []string {
	return []string{
		string(rej.Source),
		rej.Batch,
		rej.Type,
		rej.Number,
		rej.Locality,
		rej.Organization,
		rej.Reason,
	}
}

package render

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/levelworks/rlistic/internal/model"
)

// XLSX writes the run's ranked results to a spreadsheet at path, one sheet
// per run with a header row.
func XLSX(path string, run *model.SearchRun) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "render: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"rank", "groups", "grade", "scenario", "run_id", "created_at"} {
		header.AddCell().Value = h
	}

	for _, r := range run.Results {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		row.AddCell().Value = FormatGroups(r.Groups)
		row.AddCell().Value = r.Grade
		row.AddCell().Value = run.Scenario
		row.AddCell().Value = run.ID
		row.AddCell().Value = run.CreatedAt.Format("2006-01-02 15:04:05")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}
	return nil
}

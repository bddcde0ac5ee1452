package leadstore

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/divisual/leadgen-cli/internal/model"
)

// ExportXLSX writes the lead tab of a store to an XLSX workbook with the
// standard lead columns as header.
func ExportXLSX(ctx context.Context, s Store, tab, path string) (int, error) {
	rows, err := s.ReadRows(ctx, tab)
	if err != nil {
		return 0, eris.Wrap(err, "export: read rows")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(tab)
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.LeadColumns {
		header.AddCell().SetString(col)
	}
	for _, r := range rows {
		out := sheet.AddRow()
		for _, col := range model.LeadColumns {
			out.AddCell().SetString(r[col])
		}
	}

	if err := f.Save(path); err != nil {
		return 0, eris.Wrap(err, "export: save file")
	}
	return len(rows), nil
}

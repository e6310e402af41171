package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/izv-data/internal/accident"
)

// maxSheetRows is the Excel row limit, header included.
const maxSheetRows = 1 << 20

// WriteXLSX writes ds to a single-sheet workbook with typed cells.
func WriteXLSX(path string, ds *accident.Dataset) (int, error) {
	n := ds.Len()
	if n+1 > maxSheetRows {
		return 0, eris.Errorf("export: %d rows exceed the xlsx sheet limit; export fewer regions", n)
	}

	names, cols := columns(ds)

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("accidents")
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range names {
		header.AddCell().SetString(name)
	}

	for i := range n {
		row := sheet.AddRow()
		for _, c := range cols {
			setCell(row.AddCell(), c, i)
		}
	}

	if err := file.Save(path); err != nil {
		return 0, eris.Wrap(err, "export: save xlsx")
	}
	return n, nil
}

func setCell(cell *xlsx.Cell, c accident.Column, i int) {
	switch col := c.(type) {
	case accident.Int32Column:
		cell.SetInt(int(col[i]))
	case accident.Float32Column:
		cell.SetFloat(float64(col[i]))
	case accident.DateColumn:
		cell.SetDate(col[i])
	case accident.TextColumn:
		cell.SetString(col[i])
	default:
		cell.SetValue(c.Value(i))
	}
}

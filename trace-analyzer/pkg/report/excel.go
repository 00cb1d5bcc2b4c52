package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/stats"
)

// DefaultWorkbookPath is where --excel writes when no path is given.
const DefaultWorkbookPath = "oplog_stats.xlsx"

// maxSheetName is the xlsx limit on sheet name length.
const maxSheetName = 31

// sheetNameSanitizer strips the characters xlsx forbids in sheet names.
var sheetNameSanitizer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

var statsSheetHeader = []interface{}{
	"op", "bytes_bucket", "bucket_#", "mean_lat_us", "med._lat_us", "90%_lat_us",
	"95%_lat_us", "99%_lat_us", "max_lat_us", "avg_obj_KB", "ops_/_sec", "xput_MBps", "count",
}

// Workbook collects report sheets and writes them out as one xlsx file.
//
// USAGE:
//
//	wb, err := report.NewWorkbook(runID)
//	if err != nil { ... }
//	defer wb.Close()
//	wb.AddStatsSheet("warp-get.tsv", rows, categories)
//	wb.AddStatsSheet("Consolidated", consolidated.Rows, consolidated.Categories)
//	err = wb.Save(path)
//
// THREAD SAFETY: not safe for concurrent use.
type Workbook struct {
	f           *excelize.File
	headerStyle int
	floatStyle  int
	intStyle    int
	sheets      int
	used        map[string]bool
}

// NewWorkbook prepares an empty workbook. The run id lands in the document
// properties so a saved report can be traced back to the run that made it.
func NewWorkbook(runID string) (*Workbook, error) {
	f := excelize.NewFile()
	wb := &Workbook{f: f, used: make(map[string]bool)}

	var err error
	if wb.headerStyle, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		floatFmt := "#,##0.00"
		wb.floatStyle, err = f.NewStyle(&excelize.Style{CustomNumFmt: &floatFmt})
		if err == nil {
			intFmt := "#,##0"
			wb.intStyle, err = f.NewStyle(&excelize.Style{CustomNumFmt: &intFmt})
		}
	}
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "workbook styles")
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:     "trace-analyzer (oplog-analysis)",
		Title:       "Operation trace statistics",
		Description: "run " + runID,
	}); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "workbook properties")
	}
	return wb, nil
}

// AddStatsSheet writes one statistics table as a sheet: the 13-column
// header, the op-bucket rows, then the category summary rows after one
// blank row, mirroring the console layout.
func (wb *Workbook) AddStatsSheet(name string, rows, categories []stats.StatRow) error {
	sheet, err := wb.addSheet(name)
	if err != nil {
		return err
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &statsSheetHeader); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}

	row := 2
	for i := range rows {
		cells := statCells(&rows[i])
		if err := wb.f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return errors.Wrapf(err, "sheet %s row %d", sheet, row)
		}
		row++
	}
	if len(categories) > 0 {
		row++ // blank separator row
		for i := range categories {
			cells := statCells(&categories[i])
			if err := wb.f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
				return errors.Wrapf(err, "sheet %s row %d", sheet, row)
			}
			row++
		}
	}

	last := row - 1
	if last >= 2 {
		if err := wb.f.SetCellStyle(sheet, "C2", fmt.Sprintf("C%d", last), wb.intStyle); err != nil {
			return errors.Wrapf(err, "sheet %s", sheet)
		}
		if err := wb.f.SetCellStyle(sheet, "D2", fmt.Sprintf("L%d", last), wb.floatStyle); err != nil {
			return errors.Wrapf(err, "sheet %s", sheet)
		}
		if err := wb.f.SetCellStyle(sheet, "M2", fmt.Sprintf("M%d", last), wb.intStyle); err != nil {
			return errors.Wrapf(err, "sheet %s", sheet)
		}
	}
	if err := wb.f.SetColWidth(sheet, "A", "M", 12); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}
	if err := wb.f.SetColWidth(sheet, "B", "B", 14); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}
	return wb.finishSheet(sheet)
}

// AddBreakdownSheet writes a per-client or per-endpoint table as a sheet.
func (wb *Workbook) AddBreakdownSheet(name, keyHeader string, rows []stats.StatRow) error {
	sheet, err := wb.addSheet(name)
	if err != nil {
		return err
	}
	header := []interface{}{
		keyHeader, "count", "mean_lat_us", "med._lat_us", "90%_lat_us",
		"95%_lat_us", "99%_lat_us", "max_lat_us", "ops_/_sec", "xput_MBps", "threads",
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}

	row := 2
	for i := range rows {
		r := &rows[i]
		cells := []interface{}{
			r.Key, r.Count, r.MeanLatUS, r.MedianLatUS, r.P90LatUS,
			r.P95LatUS, r.P99LatUS, r.MaxLatUS, r.OpsPerSec, r.ThroughputMiBps, r.DistinctThreads,
		}
		if err := wb.f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return errors.Wrapf(err, "sheet %s row %d", sheet, row)
		}
		row++
	}

	last := row - 1
	if last >= 2 {
		if err := wb.f.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", last), wb.intStyle); err != nil {
			return errors.Wrapf(err, "sheet %s", sheet)
		}
		if err := wb.f.SetCellStyle(sheet, "C2", fmt.Sprintf("J%d", last), wb.floatStyle); err != nil {
			return errors.Wrapf(err, "sheet %s", sheet)
		}
		if err := wb.f.SetCellStyle(sheet, "K2", fmt.Sprintf("K%d", last), wb.intStyle); err != nil {
			return errors.Wrapf(err, "sheet %s", sheet)
		}
	}
	if err := wb.f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}
	if err := wb.f.SetColWidth(sheet, "B", "K", 12); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}
	return wb.finishSheet(sheet)
}

// Save writes the workbook to path.
func (wb *Workbook) Save(path string) error {
	if err := wb.f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "write workbook %s", path)
	}
	return nil
}

// Close releases the in-memory workbook.
func (wb *Workbook) Close() error {
	return wb.f.Close()
}

// addSheet registers a new sheet under a sanitized, deduplicated name. The
// first sheet renames the workbook's default sheet instead of adding one.
func (wb *Workbook) addSheet(name string) (string, error) {
	sheet := wb.sheetName(name)
	if wb.sheets == 0 {
		if err := wb.f.SetSheetName(wb.f.GetSheetName(0), sheet); err != nil {
			return "", errors.Wrapf(err, "sheet %s", sheet)
		}
	} else {
		if _, err := wb.f.NewSheet(sheet); err != nil {
			return "", errors.Wrapf(err, "sheet %s", sheet)
		}
	}
	wb.sheets++
	return sheet, nil
}

// sheetName derives a valid xlsx sheet name from an input file path: base
// name, forbidden characters replaced, clipped to 31 chars, "~2"-style
// suffixes on collision.
func (wb *Workbook) sheetName(name string) string {
	name = sheetNameSanitizer.Replace(filepath.Base(name))
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if name == "" {
		name = "sheet"
	}
	out := name
	for n := 2; wb.used[out]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		out = name
		if len(out)+len(suffix) > maxSheetName {
			out = out[:maxSheetName-len(suffix)]
		}
		out += suffix
	}
	wb.used[out] = true
	return out
}

// finishSheet applies the shared cosmetics: bold frozen header row.
func (wb *Workbook) finishSheet(sheet string) error {
	if err := wb.f.SetCellStyle(sheet, "A1", "M1", wb.headerStyle); err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}
	err := wb.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return errors.Wrapf(err, "sheet %s", sheet)
	}
	return nil
}

func statCells(r *stats.StatRow) []interface{} {
	return []interface{}{
		r.Key, r.Bucket, r.Rank, r.MeanLatUS, r.MedianLatUS, r.P90LatUS,
		r.P95LatUS, r.P99LatUS, r.MaxLatUS, r.AvgObjKiB, r.OpsPerSec, r.ThroughputMiBps, r.Count,
	}
}

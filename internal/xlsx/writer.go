package xlsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
)

const (
	DefaultSheetName = "Sheet1"
	DefaultMaxWidth  = 90
	jiraColumn       = "Jira URL"
)

// matches Unicode spaces as separators, like the Jira column parser
var linkRe = regexp.MustCompile(`https?://[^\s\p{Z}\x85\v\x1c-\x1f]+atlassian\.net[^\s\p{Z}\x85\v\x1c-\x1f]*`)

type Options struct {
	Path      string
	SheetName string
	Append    bool    // add rows after the existing ones instead of replacing the file
	MaxWidth  float64 // column width cap, 0 = DefaultMaxWidth
}

// Write stores rows in the workbook at opts.Path, turns the first issue URL of
// each Jira cell into a hyperlink, and sizes every column to its content.
func Write(rows []report.Row, opts Options) error {
	if opts.Path == "" {
		return errors.New("output path is required")
	}
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}
	maxWidth := opts.MaxWidth
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, next, err := openSheet(opts.Path, sheet, opts.Append)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	if next == 1 {
		if err := writeRow(file, sheet, 1, report.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		next = 2
	}
	for i, row := range rows {
		if err := writeRow(file, sheet, next+i, row.Values()); err != nil {
			return fmt.Errorf("write row for change %s: %w", row.Change, err)
		}
	}

	if err := linkIssues(file, sheet); err != nil {
		return err
	}
	if err := fitColumns(file, sheet, maxWidth); err != nil {
		return err
	}

	if err := file.SaveAs(opts.Path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// openSheet returns the workbook and the first free row of sheet.
func openSheet(path, sheet string, appendRows bool) (*excelize.File, int, error) {
	if appendRows {
		if _, err := os.Stat(path); err == nil {
			file, err := excelize.OpenFile(path)
			if err != nil {
				return nil, 0, fmt.Errorf("open %s: %w", path, err)
			}
			idx, err := file.GetSheetIndex(sheet)
			if err != nil {
				_ = file.Close()
				return nil, 0, fmt.Errorf("look up sheet %s: %w", sheet, err)
			}
			if idx == -1 {
				if _, err := file.NewSheet(sheet); err != nil {
					_ = file.Close()
					return nil, 0, fmt.Errorf("create sheet %s: %w", sheet, err)
				}
				return file, 1, nil
			}
			existing, err := file.GetRows(sheet)
			if err != nil {
				_ = file.Close()
				return nil, 0, fmt.Errorf("read sheet %s: %w", sheet, err)
			}
			return file, len(existing) + 1, nil
		}
	}

	file := excelize.NewFile()
	if original := file.GetSheetName(0); original != sheet {
		if err := file.SetSheetName(original, sheet); err != nil {
			_ = file.Close()
			return nil, 0, fmt.Errorf("rename sheet: %w", err)
		}
	}
	return file, 1, nil
}

func writeRow(file *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return file.SetSheetRow(sheet, cell, &cells)
}

func linkIssues(file *excelize.File, sheet string) error {
	rows, err := file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}

	col := -1
	for i, title := range rows[0] {
		if title == jiraColumn {
			col = i + 1
			break
		}
	}
	if col == -1 {
		return nil
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0000FF", Underline: "single"},
	})
	if err != nil {
		return fmt.Errorf("create link style: %w", err)
	}

	for r := 2; r <= len(rows); r++ {
		if len(rows[r-1]) < col {
			continue
		}
		// the cell joins URLs with ", " so the first match may carry the separator
		url := strings.TrimRight(linkRe.FindString(rows[r-1][col-1]), ",")
		if url == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col, r)
		if err != nil {
			return err
		}
		if err := file.SetCellHyperLink(sheet, cell, url, "External"); err != nil {
			return fmt.Errorf("link %s: %w", cell, err)
		}
		if err := file.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
	}
	return nil
}

func fitColumns(file *excelize.File, sheet string, maxWidth float64) error {
	rows, err := file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	var widths []int
	for _, row := range rows {
		for i, value := range row {
			for len(widths) <= i {
				widths = append(widths, 0)
			}
			if w := displayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(w + 2)
		if width > maxWidth {
			width = maxWidth
		}
		if err := file.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("set width for %s: %w", name, err)
		}
	}
	return nil
}

// displayWidth is the widest line of a cell in terminal columns, so CJK text
// gets room for double-width characters.
func displayWidth(value string) int {
	widest := 0
	for _, line := range strings.Split(value, "\n") {
		if w := runewidth.StringWidth(line); w > widest {
			widest = w
		}
	}
	return widest
}

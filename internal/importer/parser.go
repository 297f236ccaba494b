package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/spendly/internal/encoding"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

var ErrUnknownFormat = errors.New("no matching CSV format found")

// Result is the outcome of parsing one file.
type Result struct {
	Format  string
	Charset string
	Params  []expense.CreateParams
	Skipped int // credits and zero-amount rows
}

// Parse decodes r to UTF-8, detects its layout and converts every spending
// row into expense params. Rows without a parseable date (banners, footers)
// are ignored.
func Parse(r io.Reader) (*Result, error) {
	utf8r, charset, err := enc.Detect(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for _, comma := range delimiters() {
		rows, err := readRows(data, comma)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(rows, comma)
		if profile == nil {
			continue
		}

		result, err := parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
		if err != nil {
			return nil, err
		}

		result.Charset = charset

		return result, nil
	}

	return nil, ErrUnknownFormat
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func (c colIndex) lookup(name string) int {
	if name == "" {
		return -1
	}

	idx, ok := c[strings.ToLower(name)]
	if !ok {
		return -1
	}

	return idx
}

// detectProfile scans rows for a header that matches a profile using comma.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string, comma rune) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if profiles[i].Comma == comma && matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if cols.lookup(name) < 0 {
			return false
		}
	}

	return true
}

// headerRowNum is the 0-based index of the first data row in the file.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) (*Result, error) {
	result := &Result{Format: p.Name}

	dateIdx := cols.lookup(p.DateCol)
	labelIdx := cols.lookup(p.LabelCol)
	categoryIdx := cols.lookup(p.CategoryCol)
	noteIdx := cols.lookup(p.NoteCol)

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		date, ok := parseDate(row, dateIdx, p.DateLayout)
		if !ok {
			continue
		}

		label := cellValue(row, labelIdx)
		if label == "" {
			return nil, fmt.Errorf("row %d: missing label", rowNum)
		}

		amount, isExpense, err := parseAmount(p, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		if !isExpense {
			result.Skipped++
			continue
		}

		category := expense.CategoryOther
		if s := cellValue(row, categoryIdx); s != "" {
			category, err = expense.ParseCategory(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
		}

		result.Params = append(result.Params, expense.CreateParams{
			Amount:   amount,
			Category: category,
			Label:    label,
			Note:     cellValue(row, noteIdx),
			Date:     date,
		})
	}

	return result, nil
}

// parseDate returns false for empty or unparseable cells (banner and footer rows).
func parseDate(row []string, idx int, layout string) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// parseAmount returns the expense amount in cents. isExpense is false for
// credits and empty amounts, which are not spending.
func parseAmount(p *Profile, cols colIndex, row []string) (int64, bool, error) {
	switch p.AmountMode {
	case amountPositive:
		cents, err := money.ParseAmount(cellValue(row, cols.lookup(p.AmountCol)))
		if err != nil {
			return 0, false, err
		}

		return cents, true, nil
	case amountSigned:
		return parseSignedAmount(cellValue(row, cols.lookup(p.AmountCol)))
	case amountSplit:
		return parseSplitAmount(cellValue(row, cols.lookup(p.DebitCol)))
	}

	return 0, false, nil
}

func parseSignedAmount(s string) (int64, bool, error) {
	if s == "" {
		return 0, false, nil
	}

	cents, err := money.ParseEuropeanAmount(s)
	if err != nil {
		return 0, false, err
	}

	if cents >= 0 {
		return 0, false, nil
	}

	return -cents, true, nil
}

// parseSplitAmount reads the debit column; a row with only a credit is not spending.
func parseSplitAmount(debit string) (int64, bool, error) {
	if debit == "" {
		return 0, false, nil
	}

	cents, err := money.ParseEuropeanAmount(debit)
	if err != nil {
		return 0, false, err
	}

	if cents == 0 {
		return 0, false, nil
	}

	return max(cents, -cents), true, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

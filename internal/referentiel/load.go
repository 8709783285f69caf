package referentiel

import (
	"bytes"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/literie/internal/model"
	"github.com/xuri/excelize/v2"
)

//go:embed data/*.csv
var embedded embed.FS

// File stems of the two cover tables, with .csv or .xlsx extension.
const (
	WidthTableName  = "housse_largeur"
	LengthTableName = "housse_longueur"
)

// Catalog groups the tables used by the measurement calculator.
type Catalog struct {
	Width  *Table
	Length *Table
}

// Embedded returns the tables shipped with the binary.
func Embedded() (Catalog, error) {
	width, err := loadEmbedded(WidthTableName)
	if err != nil {
		return Catalog{}, err
	}
	length, err := loadEmbedded(LengthTableName)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Width: width, Length: length}, nil
}

func loadEmbedded(name string) (*Table, error) {
	data, err := embedded.ReadFile("data/" + name + ".csv")
	if err != nil {
		return nil, fmt.Errorf("embedded referential %s: %w", name, err)
	}
	return LoadCSV(bytes.NewReader(data), name)
}

// LoadDir loads both tables from dir, preferring .xlsx over .csv when both exist.
func LoadDir(dir string) (Catalog, error) {
	width, err := loadFile(dir, WidthTableName)
	if err != nil {
		return Catalog{}, err
	}
	length, err := loadFile(dir, LengthTableName)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Width: width, Length: length}, nil
}

func loadFile(dir, name string) (*Table, error) {
	xlsxPath := filepath.Join(dir, name+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return LoadXLSX(xlsxPath, name)
	}
	csvPath := filepath.Join(dir, name+".csv")
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("referential %s: %w", name, err)
	}
	defer f.Close()
	return LoadCSV(f, name)
}

// LoadCSV reads a table whose header is "dimension;<material>;<material>…".
// Semicolon and comma separators are both accepted.
func LoadCSV(r io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("referential %s: %w", name, err)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("referential %s: %w", name, err)
	}
	return fromRows(rows, name)
}

// LoadXLSX reads a table from the first sheet of a workbook.
func LoadXLSX(path, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("referential %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("referential %s: workbook has no sheets", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("referential %s: %w", name, err)
	}
	return fromRows(rows, name)
}

// detectDelimiter looks at the header line only; values may contain decimal commas.
func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > 0 {
		return ';'
	}
	if bytes.Count(header, []byte("\t")) > 0 {
		return '\t'
	}
	return ','
}

func fromRows(rows [][]string, name string) (*Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("referential %s: expected a header and at least one row", name)
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("referential %s: header has no material columns", name)
	}
	materials := make([]model.CoverMaterial, 0, len(header)-1)
	for _, h := range header[1:] {
		m := model.ParseCoverMaterial(h)
		if m == model.CoverNone || m == model.CoverUnknown {
			return nil, fmt.Errorf("referential %s: unknown material column %q", name, h)
		}
		materials = append(materials, m)
	}

	var errs []error
	table := make(map[int]map[model.CoverMaterial]Cell, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		key, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: invalid dimension %q", line, row[0]))
			continue
		}
		if _, dup := table[key]; dup {
			errs = append(errs, fmt.Errorf("line %d: duplicate dimension %d", line, key))
			continue
		}
		values := make(map[model.CoverMaterial]Cell, len(materials))
		for j, m := range materials {
			if j+1 >= len(row) || strings.TrimSpace(row[j+1]) == "" {
				continue
			}
			c, err := ParseCell(row[j+1])
			if err != nil {
				errs = append(errs, fmt.Errorf("line %d: %w", line, err))
				continue
			}
			values[m] = c
		}
		table[key] = values
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("referential %s: %w", name, err)
	}
	return NewTable(name, materials, table)
}

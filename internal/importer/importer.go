// Package importer reads order lines from CSV, Excel and JSON files. It
// supports automatic delimiter detection, flexible column mapping, and
// case-insensitive French or English header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/literie/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Records  []model.OrderLineRecord
	Errors   []string
	Warnings []string
}

// Role is the meaning of an input column.
type Role string

const (
	RoleKind       Role = "kind"
	RoleType       Role = "type"
	RoleQuantity   Role = "quantity"
	RoleWidth      Role = "width"
	RoleLength     Role = "length"
	RoleDimensions Role = "dimensions"
	RoleHeight     Role = "height"
	RoleFirmness   Role = "firmness"
	RoleCover      Role = "cover"
	RoleWeek       Role = "week"
	RoleOrder      Role = "order"
	RoleMonday     Role = "monday"
	RoleFriday     Role = "friday"
	RoleClient     Role = "client"
	RoleAddress    Role = "address"
	RoleHandles    Role = "handles"
	RoleDelivery   Role = "delivery"
	RoleNotes      Role = "notes"
)

// ColumnMapping maps roles to column indices. Absent roles are missing.
type ColumnMapping map[Role]int

// Index returns the column of role, or -1.
func (m ColumnMapping) Index(r Role) int {
	if i, ok := m[r]; ok {
		return i
	}
	return -1
}

// headerAliases maps roles to their accepted header names (lowercase, no accents).
var headerAliases = map[Role][]string{
	RoleKind:       {"kind", "produit", "product", "categorie", "famille"},
	RoleType:       {"type", "noyau", "core", "core type", "type noyau", "type sommier", "frame type", "modele"},
	RoleQuantity:   {"quantite", "quantity", "qty", "qte", "nb", "nombre"},
	RoleWidth:      {"largeur", "width", "l", "w"},
	RoleLength:     {"longueur", "length", "long", "len"},
	RoleDimensions: {"dimensions", "dimension", "dim", "taille", "size"},
	RoleHeight:     {"hauteur", "height", "epaisseur", "h"},
	RoleFirmness:   {"fermete", "firmness", "soutien"},
	RoleCover:      {"housse", "cover", "tissu", "matiere housse", "cover material"},
	RoleWeek:       {"semaine", "week", "week code", "sem"},
	RoleOrder:      {"commande", "order", "order id", "n commande", "numero commande", "client id", "ref", "reference"},
	RoleMonday:     {"lundi", "monday", "date lundi"},
	RoleFriday:     {"vendredi", "friday", "date vendredi"},
	RoleClient:     {"client", "nom", "name", "client name", "nom client"},
	RoleAddress:    {"adresse", "address", "ville"},
	RoleHandles:    {"poignees", "handles", "poignee"},
	RoleDelivery:   {"livraison", "delivery", "transport"},
	RoleNotes:      {"remarques", "notes", "commentaire", "comment", "observations"},
}

// positionalRoles is the column order assumed when the file has no header.
var positionalRoles = []Role{
	RoleKind, RoleType, RoleQuantity, RoleWidth, RoleLength, RoleHeight,
	RoleFirmness, RoleCover, RoleWeek, RoleOrder, RoleClient,
}

var headerReplacer = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "à", "a", "â", "a", "î", "i",
	"ï", "i", "ô", "o", "ù", "u", "û", "u", "ç", "c", "°", "", ".", "",
)

func normalizeHeader(s string) string {
	s = headerReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), " ")
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping. The
// boolean is false when no header cell was recognized; the mapping is then
// positional.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{}
	for i, cell := range row {
		normalized := normalizeHeader(cell)
		if normalized == "" {
			continue
		}
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					if _, taken := mapping[role]; !taken {
						mapping[role] = i
					}
				}
			}
		}
	}

	if len(mapping) == 0 {
		mapping = ColumnMapping{}
		for i, r := range positionalRoles {
			mapping[r] = i
		}
		return mapping, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseNumber accepts both decimal separators and a trailing unit. NaN and
// infinities are rejected.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "cm"))
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

var dimensionsRe = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*[xX×*]\s*(\d+(?:[.,]\d+)?)`)

// ParseDimensions reads "140 x 190" style values.
func ParseDimensions(s string) (width, length float64, err error) {
	m := dimensionsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid dimensions %q", s)
	}
	if width, err = ParseNumber(m[1]); err != nil {
		return 0, 0, err
	}
	if length, err = ParseNumber(m[2]); err != nil {
		return 0, 0, err
	}
	return width, length, nil
}

func parseBool(s string) bool {
	switch normalizeHeader(s) {
	case "oui", "o", "yes", "y", "x", "1", "true", "vrai", "avec":
		return true
	}
	return false
}

// inferKind guesses the kind from the type column when no kind is given.
func inferKind(typeLabel string) model.Kind {
	if model.ParseFrameType(typeLabel) != model.FrameUnknown || strings.HasPrefix(normalizeHeader(typeLabel), "sommier") {
		return model.KindBedFrame
	}
	return model.KindMattress
}

// parseRow extracts a record from a row using the given column mapping.
// Returns the record, any error message, and any warnings.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.OrderLineRecord, string, []string) {
	var warnings []string
	get := func(r Role) string { return getCell(row, mapping.Index(r)) }

	rec := model.OrderLineRecord{
		WeekCode:        get(RoleWeek),
		OrderOrClientID: get(RoleOrder),
		MondayDate:      get(RoleMonday),
		FridayDate:      get(RoleFriday),
		ClientName:      get(RoleClient),
		Address:         get(RoleAddress),
		Handles:         parseBool(get(RoleHandles)),
		Delivery:        get(RoleDelivery),
		Notes:           get(RoleNotes),
	}

	typeLabel := get(RoleType)
	if k := get(RoleKind); k != "" {
		rec.Kind = model.ParseKind(k)
		if rec.Kind == model.KindUnknown {
			return rec, fmt.Sprintf("%s: Unknown kind '%s'", rowLabel, k), nil
		}
	} else {
		rec.Kind = inferKind(typeLabel)
	}

	if dims := get(RoleDimensions); dims != "" && (get(RoleWidth) == "" || get(RoleLength) == "") {
		w, l, err := ParseDimensions(dims)
		if err != nil {
			return rec, fmt.Sprintf("%s: Invalid dimensions '%s'", rowLabel, dims), nil
		}
		rec.Width, rec.Length = w, l
	} else {
		for _, f := range []struct {
			role  Role
			name  string
			value *float64
		}{{RoleWidth, "width", &rec.Width}, {RoleLength, "length", &rec.Length}} {
			s := get(f.role)
			if s == "" {
				return rec, fmt.Sprintf("%s: Missing %s value", rowLabel, f.name), nil
			}
			v, err := ParseNumber(s)
			if err != nil {
				return rec, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, f.name, s), nil
			}
			*f.value = v
		}
	}

	if s := get(RoleHeight); s != "" {
		h, err := ParseNumber(s)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid height '%s', left blank", rowLabel, s))
		} else {
			rec.Height = h
		}
	}

	rec.Quantity = 1
	if s := get(RoleQuantity); s != "" {
		q, err := strconv.Atoi(s)
		if err != nil {
			return rec, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, s), nil
		}
		rec.Quantity = q
	}

	if rec.Width <= 0 || rec.Length <= 0 || rec.Quantity <= 0 {
		return rec, fmt.Sprintf("%s: Width, length, and quantity must be positive", rowLabel), nil
	}
	if rec.WeekCode == "" || rec.OrderOrClientID == "" {
		return rec, fmt.Sprintf("%s: Missing week code or order id", rowLabel), nil
	}

	switch rec.Kind {
	case model.KindBedFrame:
		rec.FrameType = model.ParseFrameType(typeLabel)
		if rec.FrameType == model.FrameUnknown && typeLabel != "" {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown frame type '%s'", rowLabel, typeLabel))
		}
	default:
		rec.CoreType = model.ParseCoreType(typeLabel)
		if rec.CoreType == model.CoreUnknown && typeLabel != "" {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown core type '%s', core cut left blank", rowLabel, typeLabel))
		}
		rec.Firmness = model.ParseFirmness(get(RoleFirmness))
		if rec.Firmness == model.FirmnessUnknown {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown firmness '%s'", rowLabel, get(RoleFirmness)))
		}
		rec.CoverMaterial = model.ParseCoverMaterial(get(RoleCover))
		if rec.CoverMaterial == model.CoverUnknown {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown cover material '%s'", rowLabel, get(RoleCover)))
		}
	}

	return rec, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports order lines from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports order lines from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports order lines from the first sheet of an Excel file.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1

		var missing []string
		hasDims := mapping.Index(RoleDimensions) >= 0
		if !hasDims && mapping.Index(RoleWidth) < 0 {
			missing = append(missing, "Width")
		}
		if !hasDims && mapping.Index(RoleLength) < 0 {
			missing = append(missing, "Length")
		}
		if mapping.Index(RoleWeek) < 0 {
			missing = append(missing, "Week")
		}
		if mapping.Index(RoleOrder) < 0 {
			missing = append(missing, "Order")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) > 3 {
		if _, err := ParseNumber(rows[0][mapping.Index(RoleWidth)]); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Unrecognized header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		rec, errMsg, warnings := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

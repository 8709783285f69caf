package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/literie/internal/model"
)

// jsonBatch is the object form of a JSON input file.
type jsonBatch struct {
	Records []model.OrderLineRecord `json:"records"`
}

// ImportJSON imports order lines produced by the upstream extraction stage.
// The file holds either an array of records or an object with a "records"
// array. Enum labels are normalized the same way as in CSV input.
func ImportJSON(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	var records []model.OrderLineRecord
	if data[0] == '[' {
		err = json.Unmarshal(data, &records)
	} else {
		var batch jsonBatch
		err = json.Unmarshal(data, &batch)
		records = batch.Records
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse JSON: %v", err))
		return result
	}

	for i, rec := range records {
		label := fmt.Sprintf("Record %d", i+1)
		rec, warnings := normalizeRecord(rec, label)
		if rec.Quantity == 0 {
			rec.Quantity = 1
		}
		if err := rec.Validate(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Records = append(result.Records, rec)
	}
	if len(result.Records) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No records found")
	}
	return result
}

func normalizeRecord(rec model.OrderLineRecord, label string) (model.OrderLineRecord, []string) {
	var warnings []string
	if raw := string(rec.CoreType); raw != "" {
		if rec.CoreType = model.ParseCoreType(raw); rec.CoreType == model.CoreUnknown {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown core type '%s', core cut left blank", label, raw))
		}
	}
	if raw := string(rec.FrameType); raw != "" {
		if rec.FrameType = model.ParseFrameType(raw); rec.FrameType == model.FrameUnknown {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown frame type '%s'", label, raw))
		}
	}
	if raw := string(rec.Firmness); raw != "" {
		if rec.Firmness = model.ParseFirmness(raw); rec.Firmness == model.FirmnessUnknown {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown firmness '%s'", label, raw))
		}
	}
	if raw := string(rec.CoverMaterial); raw != "" {
		if rec.CoverMaterial = model.ParseCoverMaterial(raw); rec.CoverMaterial == model.CoverUnknown {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown cover material '%s'", label, raw))
		}
	}
	return rec, warnings
}

// ImportFile dispatches on the file extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ImportJSON(path)
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type: %s", filepath.Ext(path))}}
	}
}

// ExpandUnits turns each order line into one record per physical unit.
// Records already carrying a UnitIndex are kept as they are. The source
// quantity stays on every unit so pairs remain recognizable.
func ExpandUnits(records []model.OrderLineRecord) []model.OrderLineRecord {
	out := make([]model.OrderLineRecord, 0, len(records))
	for _, rec := range records {
		if rec.UnitIndex > 0 || rec.Quantity <= 1 {
			if rec.UnitIndex == 0 {
				rec.UnitIndex = 1
			}
			out = append(out, rec)
			continue
		}
		for i := 1; i <= rec.Quantity; i++ {
			unit := rec
			unit.UnitIndex = i
			out = append(out, unit)
		}
	}
	return out
}

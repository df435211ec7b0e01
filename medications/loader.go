// Package medications loads the medication catalog from disk and provides search helpers over it.
package medications

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/giygas/pediatric-dosing-api/validation"
	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyCatalog is returned when a catalog file holds no valid medication
var ErrEmptyCatalog = errors.New("catalog contains no valid medication")

// Compile-time check to ensure FileLoader implements CatalogLoader
var _ interfaces.CatalogLoader = (*FileLoader)(nil)

// FileLoader reads the catalog from a JSON file
type FileLoader struct {
	path      string
	validator interfaces.CatalogValidator
}

// NewFileLoader creates a loader for the given catalog file.
// A nil validator falls back to the default catalog validator.
func NewFileLoader(path string, validator interfaces.CatalogValidator) *FileLoader {
	if validator == nil {
		validator = validation.NewCatalogValidator()
	}
	return &FileLoader{path: path, validator: validator}
}

// LoadCatalog implements the CatalogLoader interface
func (l *FileLoader) LoadCatalog() ([]entities.Medication, *interfaces.CatalogQualityReport, error) {
	return LoadCatalog(l.path, l.validator)
}

// catalogDocument is the object form of a catalog file
type catalogDocument struct {
	Medications []json.RawMessage `json:"medications"`
}

// LoadCatalog reads, decodes and validates a catalog file.
// Invalid records are dropped and listed in the returned report.
func LoadCatalog(path string, validator interfaces.CatalogValidator) ([]entities.Medication, *interfaces.CatalogQualityReport, error) {
	cleanPath := filepath.Clean(path)

	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog %s: %w", cleanPath, err)
	}

	records, err := splitRecords(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode catalog %s: %w", cleanPath, err)
	}

	return buildCatalog(records, validator)
}

// ParseCatalog decodes and validates catalog bytes already in memory
func ParseCatalog(raw []byte, validator interfaces.CatalogValidator) ([]entities.Medication, *interfaces.CatalogQualityReport, error) {
	records, err := splitRecords(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return buildCatalog(records, validator)
}

// splitRecords converts the file to UTF-8 and returns one raw message per medication
func splitRecords(raw []byte) ([]json.RawMessage, error) {
	// Some catalog exports are still produced in iso-8859-1
	if !utf8.Valid(raw) {
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode iso-8859-1 content: %w", err)
		}
		raw = decoded
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrEmptyCatalog
	}

	var records []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
	case '{':
		var doc catalogDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		records = doc.Medications
	default:
		return nil, fmt.Errorf("expected a JSON array or object, got %q", trimmed[0])
	}

	return records, nil
}

func buildCatalog(records []json.RawMessage, validator interfaces.CatalogValidator) ([]entities.Medication, *interfaces.CatalogQualityReport, error) {
	if validator == nil {
		validator = validation.NewCatalogValidator()
	}

	medications := make([]entities.Medication, 0, len(records))
	seen := make(map[string]bool, len(records))
	var rejected []string
	var duplicates []string

	for i, record := range records {
		// Records without an explicit flag are enabled
		med := entities.Medication{Enabled: true}
		if err := json.Unmarshal(record, &med); err != nil {
			logging.Warn("Skipping undecodable catalog record", "index", i, "error", err)
			rejected = append(rejected, fmt.Sprintf("#%d", i))
			continue
		}

		if err := validator.ValidateMedication(&med); err != nil {
			logging.Warn("Skipping invalid medication", "id", med.ID, "index", i, "error", err)
			rejected = append(rejected, recordLabel(med.ID, i))
			continue
		}

		if seen[med.ID] {
			logging.Warn("Skipping duplicate medication id", "id", med.ID, "index", i)
			duplicates = append(duplicates, med.ID)
			continue
		}
		seen[med.ID] = true

		med.SearchTerms = searchTerms(&med)
		medications = append(medications, med)
	}

	if len(medications) == 0 {
		return nil, nil, ErrEmptyCatalog
	}

	if err := validator.ValidateCatalog(medications); err != nil {
		return nil, nil, fmt.Errorf("catalog failed validation: %w", err)
	}

	report := validator.ReportCatalogQuality(medications)
	report.TotalRecords = len(records)
	report.RejectedMedications = len(rejected)
	if rejected != nil {
		report.RejectedMedicationIDs = rejected
	}
	if duplicates != nil {
		report.DuplicateIDs = duplicates
	}

	logging.Info("Catalog loaded",
		"records", len(records),
		"medications", len(medications),
		"rejected", len(rejected),
		"duplicates", len(duplicates))

	return medications, report, nil
}

func recordLabel(id string, index int) string {
	if id == "" {
		return fmt.Sprintf("#%d", index)
	}
	return id
}

// IndexByID builds the id lookup map used by the catalog store
func IndexByID(medications []entities.Medication) map[string]entities.Medication {
	index := make(map[string]entities.Medication, len(medications))
	for _, med := range medications {
		index[med.ID] = med
	}
	return index
}

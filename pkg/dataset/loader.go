package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"onco-advisor-be/internal/apperrors"
)

// TextColumns is the fixed, ordered field list every Document is built from.
// Order matters: document text is deterministic for a given record.
var TextColumns = []string{
	"Drug Name",
	"Cancer Type",
	"Number of Patients",
	"OS_Improvement (%)",
	"PFS_Improvement (%)",
	"Other Outcome Measures",
	"Brief Study Summary",
	"Formatted Study Results",
}

// MissingValue substitutes absent or blank fields
const MissingValue = "N/A"

// Record is one row of the knowledge base, immutable once loaded
type Record struct {
	Fields map[string]string
}

// DocumentText flattens the record into "<field>: <value>" lines in
// TextColumns order
func (r Record) DocumentText() string {
	lines := make([]string, len(TextColumns))
	for i, col := range TextColumns {
		lines[i] = fmt.Sprintf("%s: %s", col, r.field(col))
	}
	return strings.Join(lines, "\n")
}

// CancerType returns the record's cancer type field (or N/A)
func (r Record) CancerType() string {
	return r.field("Cancer Type")
}

// DrugName returns the record's drug name field (or N/A)
func (r Record) DrugName() string {
	return r.field("Drug Name")
}

func (r Record) field(col string) string {
	v := strings.TrimSpace(r.Fields[col])
	if v == "" {
		return MissingValue
	}
	return v
}

// Loader reads the delimited knowledge-base table into Records
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads all rows. An unreadable file is a DataAccessError; a missing
// column is not an error, the loader substitutes MissingValue instead. Rows
// with partially missing data are kept.
func (l *Loader) Load() ([]Record, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, apperrors.NewDataAccessError(l.filePath, err)
	}
	defer file.Close()

	return l.read(file)
}

func (l *Loader) read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are filled with N/A

	header, err := reader.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, apperrors.NewDataAccessError(l.filePath, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewDataAccessError(l.filePath, err)
		}

		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				fields[col] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, Record{Fields: fields})
	}

	return records, nil
}

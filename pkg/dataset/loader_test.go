package dataset

import (
	"strings"
	"testing"

	"onco-advisor-be/internal/apperrors"
)

const sampleCSV = `Drug Name,Cancer Type,Number of Patients,OS_Improvement (%),PFS_Improvement (%),Other Outcome Measures,Brief Study Summary,Formatted Study Results
Pembrolizumab,Melanoma,834,27,38,ORR 33%,Checkpoint inhibitor trial,OS HR 0.73
Olaparib,Ovarian cancer,295,,28,,,PFS HR 0.30
`

func TestLoaderRead(t *testing.T) {
	l := NewLoader("test.csv")
	records, err := l.read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if got := records[0].DrugName(); got != "Pembrolizumab" {
		t.Errorf("DrugName = %q, want Pembrolizumab", got)
	}
	if got := records[0].CancerType(); got != "Melanoma" {
		t.Errorf("CancerType = %q, want Melanoma", got)
	}

	// Blank cells resolve to the missing-value sentinel
	if got := records[1].field("OS_Improvement (%)"); got != MissingValue {
		t.Errorf("blank OS field = %q, want %q", got, MissingValue)
	}
}

func TestDocumentTextOrder(t *testing.T) {
	l := NewLoader("test.csv")
	records, err := l.read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	text := records[0].DocumentText()
	lines := strings.Split(text, "\n")
	if len(lines) != len(TextColumns) {
		t.Fatalf("expected %d lines, got %d", len(TextColumns), len(lines))
	}
	for i, col := range TextColumns {
		if !strings.HasPrefix(lines[i], col+": ") {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], col+": ")
		}
	}
	if lines[0] != "Drug Name: Pembrolizumab" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestDocumentTextMissingColumns(t *testing.T) {
	csv := "Drug Name,Cancer Type\nImatinib,CML\n"
	l := NewLoader("test.csv")
	records, err := l.read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	text := records[0].DocumentText()
	if !strings.Contains(text, "Number of Patients: "+MissingValue) {
		t.Errorf("missing column should render as %s, got:\n%s", MissingValue, text)
	}
	if !strings.Contains(text, "Drug Name: Imatinib") {
		t.Errorf("present column lost, got:\n%s", text)
	}
}

func TestLoadRaggedRows(t *testing.T) {
	csv := "Drug Name,Cancer Type,Number of Patients\nSunitinib,RCC\n"
	l := NewLoader("test.csv")
	records, err := l.read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ragged row should not fail: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].field("Number of Patients"); got != MissingValue {
		t.Errorf("short row trailing field = %q, want %q", got, MissingValue)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	l := NewLoader("test.csv")
	records, err := l.read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty input should not fail: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader("does/not/exist.csv")
	_, err := l.Load()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !apperrors.IsDataAccess(err) {
		t.Errorf("expected DataAccessError, got %T: %v", err, err)
	}
}

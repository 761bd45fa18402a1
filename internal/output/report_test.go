package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTextReport(&buf, sampleResults(), sampleMetrics()); err != nil {
		t.Fatalf("WriteTextReport() error = %v", err)
	}

	out := buf.String()

	for _, want := range []string{
		"VM Power Operation Report",
		"Total:      2",
		"Successful: 1",
		"Failed:     1",
		"[FAIL] db-01",
		"[OK  ] web-01",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextReport_FailuresFirst(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTextReport(&buf, sampleResults(), sampleMetrics()); err != nil {
		t.Fatalf("WriteTextReport() error = %v", err)
	}

	out := buf.String()
	if strings.Index(out, "[FAIL]") > strings.Index(out, "[OK  ]") {
		t.Errorf("expected failures listed first:\n%s", out)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, sampleResults()); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}

	header := records[0]
	want := []string{"vm_name", "action", "success", "message", "duration_s", "timestamp"}
	for i, col := range want {
		if header[i] != col {
			t.Errorf("header[%d] = %q, want %q", i, header[i], col)
		}
	}

	// Failures sort first
	if records[1][0] != "db-01" || records[1][2] != "false" {
		t.Errorf("expected db-01 failure first, got %v", records[1])
	}
	if records[2][0] != "web-01" || records[2][2] != "true" {
		t.Errorf("expected web-01 success second, got %v", records[2])
	}
	if records[2][4] != "0.100" {
		t.Errorf("duration_s = %q, want 0.100", records[2][4])
	}
}

func TestExportCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, nil); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d records", len(records))
	}
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")

	if err := SaveReport(path, sampleResults(), sampleMetrics()); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "VM Power Operation Report") {
		t.Errorf("report file missing header:\n%s", data)
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	if err := SaveCSV(path, sampleResults()); err != nil {
		t.Fatalf("SaveCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if !strings.Contains(string(data), "vm_name,action") {
		t.Errorf("CSV file missing header:\n%s", data)
	}
}

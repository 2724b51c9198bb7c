package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0ritam/studentlens/internal/student"
)

func writeRecords(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func exampleJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(student.Example())
	if err != nil {
		t.Fatalf("marshal example: %v", err)
	}
	return string(data)
}

func TestReadRecordsArray(t *testing.T) {
	one := exampleJSON(t)
	path := writeRecords(t, "cohort.json", "["+one+","+one+"]")

	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].IDStudent != 11391 {
		t.Errorf("expected student 11391, got %d", records[0].IDStudent)
	}
}

func TestReadRecordsSingleObject(t *testing.T) {
	path := writeRecords(t, "student.json", exampleJSON(t))

	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0] != student.Example() {
		t.Errorf("record round trip lost fields: %+v", records[0])
	}
}

func TestReadRecordsStream(t *testing.T) {
	one := exampleJSON(t)
	path := writeRecords(t, "stream.json", one+"\n"+one+"\n"+one+"\n")

	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestReadRecordsEmptyFile(t *testing.T) {
	path := writeRecords(t, "empty.json", "  \n\t\n")

	if _, err := readRecords(path); err == nil {
		t.Fatal("expected error for empty input")
	} else if !strings.Contains(err.Error(), "no input") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReadRecordsEmptyArray(t *testing.T) {
	path := writeRecords(t, "empty.json", "[]")

	if _, err := readRecords(path); err == nil {
		t.Fatal("expected error for empty array")
	} else if !strings.Contains(err.Error(), "empty record array") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReadRecordsBadJSON(t *testing.T) {
	path := writeRecords(t, "bad.json", "{not json")

	if _, err := readRecords(path); err == nil {
		t.Fatal("expected parse error")
	} else if !strings.Contains(err.Error(), "parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	if _, err := readRecords(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadRecordOne(t *testing.T) {
	path := writeRecords(t, "student.json", exampleJSON(t))

	rec, err := readRecord(path)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if rec != student.Example() {
		t.Errorf("record round trip lost fields: %+v", rec)
	}
}

func TestReadRecordRejectsMany(t *testing.T) {
	one := exampleJSON(t)
	path := writeRecords(t, "cohort.json", "["+one+","+one+"]")

	if _, err := readRecord(path); err == nil {
		t.Fatal("expected error for multiple records")
	} else if !strings.Contains(err.Error(), "use the batch command") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRecordsReportsIndexes(t *testing.T) {
	good := student.Example()
	bad := student.Example()
	bad.Gender = "X"

	err := validateRecords([]student.Record{good, bad})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "record 2:") {
		t.Errorf("expected index of bad record, got: %v", err)
	}
	if !strings.Contains(err.Error(), "gender") {
		t.Errorf("expected field name in error, got: %v", err)
	}
	if strings.Contains(err.Error(), "record 1:") {
		t.Errorf("valid record flagged: %v", err)
	}
}

func TestValidateRecordsAllValid(t *testing.T) {
	if err := validateRecords([]student.Record{student.Example(), student.Example()}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("-"); got != "stdin" {
		t.Errorf("displayName(-) = %q", got)
	}
	if got := displayName(""); got != "stdin" {
		t.Errorf("displayName() = %q", got)
	}
	if got := displayName("cohort.json"); got != "cohort.json" {
		t.Errorf("displayName(cohort.json) = %q", got)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0ritam/studentlens/internal/student"
)

// readRecords loads student records from path, or stdin when path is
// "-". Accepted shapes: a JSON array, a single object, or a stream of
// objects (one per line or concatenated).
func readRecords(path string) ([]student.Record, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: no input", displayName(path))
	}

	if trimmed[0] == '[' {
		var records []student.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parse %s: %w", displayName(path), err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("%s: empty record array", displayName(path))
		}
		return records, nil
	}

	var records []student.Record
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var rec student.Record
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parse %s: %w", displayName(path), err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no records", displayName(path))
	}
	return records, nil
}

// readRecord loads exactly one record.
func readRecord(path string) (student.Record, error) {
	records, err := readRecords(path)
	if err != nil {
		return student.Record{}, err
	}
	if len(records) != 1 {
		return student.Record{}, fmt.Errorf("%s holds %d records; use the batch command",
			displayName(path), len(records))
	}
	return records[0], nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// validateRecords checks every record before anything goes on the wire
// and reports all problems at once, indexed from 1 so the offending
// entry is easy to find in the file.
func validateRecords(records []student.Record) error {
	var msgs []string
	for i, rec := range records {
		if errs := rec.CheckFields(); len(errs) > 0 {
			msgs = append(msgs, fmt.Sprintf("record %d: %s", i+1, errs.Error()))
		}
	}
	if len(msgs) > 0 {
		return errors.New(strings.Join(msgs, "\n"))
	}
	return nil
}

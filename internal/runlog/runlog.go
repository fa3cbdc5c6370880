package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Status values recorded for a conversion.
const (
	StatusOK               = "ok"
	StatusValidationFailed = "validation_failed"
	StatusError            = "error"
)

// Entry is one conversion in the run log.
type Entry struct {
	Timestamp  time.Time
	Input      string
	Status     string
	Accounts   int // rows exported
	Unmapped   int // type codes that used the default rule
	Collapsed  int
	Violations int
	Output     string // exported CSV, or the error message
}

// Header is the CSV header for conversion-log.csv.
const Header = "timestamp,input,status,accounts,unmapped,collapsed,violations,output"

// FileName is the run log created in the output directory.
const FileName = "conversion-log.csv"

const (
	numFields     = 8
	colTimestamp  = 0
	colInput      = 1
	colStatus     = 2
	colAccounts   = 3
	colUnmapped   = 4
	colCollapsed  = 5
	colViolations = 6
	colOutput     = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colInput] = e.Input
	row[colStatus] = e.Status
	row[colAccounts] = strconv.Itoa(e.Accounts)
	row[colUnmapped] = strconv.Itoa(e.Unmapped)
	row[colCollapsed] = strconv.Itoa(e.Collapsed)
	row[colViolations] = strconv.Itoa(e.Violations)
	row[colOutput] = e.Output
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	e := Entry{
		Timestamp: ts,
		Input:     record[colInput],
		Status:    record[colStatus],
		Output:    record[colOutput],
	}
	counts := []struct {
		name string
		col  int
		dst  *int
	}{
		{"accounts", colAccounts, &e.Accounts},
		{"unmapped", colUnmapped, &e.Unmapped},
		{"collapsed", colCollapsed, &e.Collapsed},
		{"violations", colViolations, &e.Violations},
	}
	for _, c := range counts {
		n, err := strconv.Atoi(record[c.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", c.name, record[c.col], err)
		}
		*c.dst = n
	}
	return e, nil
}

// Append writes entries to <dir>/conversion-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/conversion-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

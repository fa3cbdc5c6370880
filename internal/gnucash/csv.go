package gnucash

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/natefinch/atomic"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Defaults for the commodity columns.
const (
	DefaultCommodity = "USD"
	DefaultNamespace = "CURRENCY"
)

const (
	numFields      = 12
	colType        = 0
	colFullName    = 1
	colName        = 2
	colCode        = 3
	colDescription = 4
	colColor       = 5
	colNotes       = 6
	colSymbol      = 7
	colNamespace   = 8
	colHidden      = 9
	colTaxInfo     = 10
	colPlaceholder = 11
)

// Header is the column row GnuCash's account importer expects.
var Header = []string{
	"Type", "Full Account Name", "Account Name", "Account Code", "Description", "Account Color",
	"Notes", "Symbol", "Namespace", "Hidden", "Tax Info", "Placeholder",
}

// Writer writes the account import CSV.
type Writer struct {
	Commodity string
	Namespace string
}

// Marshal converts a record to a CSV row.
func (w Writer) Marshal(r model.FlattenedAccountRecord) []string {
	row := make([]string, numFields)
	row[colType] = string(r.Type)
	row[colFullName] = r.FullName
	row[colName] = r.Name
	row[colCode] = r.Code
	row[colDescription] = r.Description
	row[colColor] = r.Color
	row[colNotes] = r.Notes
	row[colSymbol] = orDefault(w.Commodity, DefaultCommodity)
	row[colNamespace] = orDefault(w.Namespace, DefaultNamespace)
	row[colHidden] = formatBool(r.Hidden)
	row[colTaxInfo] = r.TaxInfo
	row[colPlaceholder] = formatBool(r.Placeholder)
	return row
}

// Write writes the header and one row per record.
func (w Writer) Write(out io.Writer, records []model.FlattenedAccountRecord) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(w.Marshal(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV to path atomically.
func (w Writer) WriteFile(path string, records []model.FlattenedAccountRecord) error {
	var buf bytes.Buffer
	if err := w.Write(&buf, records); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadAccounts reads an account import CSV. The commodity columns are
// not part of the record and are dropped.
func ReadAccounts(r io.Reader) ([]model.FlattenedAccountRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []model.FlattenedAccountRecord
	for i, row := range rows[1:] {
		rec, err := Unmarshal(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Unmarshal converts a CSV row to a record.
func Unmarshal(row []string) (model.FlattenedAccountRecord, error) {
	if len(row) != numFields {
		return model.FlattenedAccountRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}
	t, ok := model.ParseAccountType(row[colType])
	if !ok {
		return model.FlattenedAccountRecord{}, fmt.Errorf("unknown account type %q", row[colType])
	}
	hidden, err := parseBool(row[colHidden])
	if err != nil {
		return model.FlattenedAccountRecord{}, fmt.Errorf("parsing Hidden: %w", err)
	}
	placeholder, err := parseBool(row[colPlaceholder])
	if err != nil {
		return model.FlattenedAccountRecord{}, fmt.Errorf("parsing Placeholder: %w", err)
	}
	return model.FlattenedAccountRecord{
		Type:        t,
		FullName:    row[colFullName],
		Name:        row[colName],
		Code:        row[colCode],
		Description: row[colDescription],
		Color:       row[colColor],
		Notes:       row[colNotes],
		Hidden:      hidden,
		TaxInfo:     row[colTaxInfo],
		Placeholder: placeholder,
	}, nil
}

func formatBool(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

func parseBool(s string) (bool, error) {
	switch s {
	case "T":
		return true, nil
	case "F", "":
		return false, nil
	}
	return false, fmt.Errorf("expected T or F, got %q", s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

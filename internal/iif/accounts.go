package iif

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Chart-of-accounts section and the columns with a dedicated record field.
const (
	SectionAccounts = "ACCNT"

	colName        = "NAME"
	colType        = "ACCNTTYPE"
	colNumber      = "ACCNUM"
	colDescription = "DESC"
	colHidden      = "HIDDEN"
	colOpening     = "OBAMOUNT"
)

// ErrNoAccounts is returned when a file has no ACCNT section.
var ErrNoAccounts = errors.New("iif file has no ACCNT section")

// Accounts converts the ACCNT section into source records. Columns
// without a dedicated field are kept in Extra when non-empty.
func Accounts(f *File) ([]model.SourceAccountRecord, error) {
	s := f.Section(SectionAccounts)
	if s == nil {
		return nil, ErrNoAccounts
	}

	records := make([]model.SourceAccountRecord, 0, len(s.Rows))
	for _, row := range s.Rows {
		rec := model.SourceAccountRecord{
			Name:        row.Get(colName),
			Type:        strings.ToUpper(row.Get(colType)),
			Code:        row.Get(colNumber),
			Description: row.Get(colDescription),
			Hidden:      strings.EqualFold(row.Get(colHidden), "Y"),
			Line:        row.Line,
		}

		rec.OpeningBalance = decimal.Zero
		if v := strings.ReplaceAll(row.Get(colOpening), ",", ""); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, &ParseError{Line: row.Line, Msg: fmt.Sprintf("invalid %s %q", colOpening, v)}
			}
			rec.OpeningBalance = d
		}

		for _, col := range s.Columns[1:] {
			switch col {
			case colName, colType, colNumber, colDescription, colHidden, colOpening, "":
				continue
			}
			if v := row.Get(col); v != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[strings.ToUpper(col)] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadAccounts parses the file at path and returns its accounts.
func ReadAccounts(path string) ([]model.SourceAccountRecord, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return Accounts(f)
}

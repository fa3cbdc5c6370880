package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Extra keys read from the IIF ACCNT section.
const (
	ExtraNotes   = "NOTES"
	ExtraColor   = "COLOR"
	ExtraTaxInfo = "TAXINFO"
)

// SourceAccountRecord is one QuickBooks account as read from an IIF file.
type SourceAccountRecord struct {
	Name           string // may contain ":"-separated sub-account segments
	Type           string // QuickBooks type code (BANK, AR, EXP, ...)
	Code           string
	Description    string
	Hidden         bool
	OpeningBalance decimal.Decimal
	Extra          map[string]string
	Line           int // 0 if not read from a file
}

// Segments splits the QuickBooks name into its sub-account segments.
func (r SourceAccountRecord) Segments() []string {
	return strings.Split(r.Name, ":")
}

// Metadata returns the fields preserved on the converted account.
func (r SourceAccountRecord) Metadata() Metadata {
	return Metadata{
		Description: r.Description,
		Notes:       r.Extra[ExtraNotes],
		Color:       r.Extra[ExtraColor],
		TaxInfo:     r.Extra[ExtraTaxInfo],
		Hidden:      r.Hidden,
	}
}

// FlattenedAccountRecord is one row of the GnuCash account import.
type FlattenedAccountRecord struct {
	Type        AccountType
	FullName    string
	Name        string
	Code        string
	Description string
	Color       string
	Notes       string
	Hidden      bool
	TaxInfo     string
	Placeholder bool
}

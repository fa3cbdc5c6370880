package model

import "strings"

// AccountType is a GnuCash account type.
type AccountType string

const (
	AccountTypeAsset      AccountType = "ASSET"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeStock      AccountType = "STOCK"
	AccountTypeMutual     AccountType = "MUTUAL"
	AccountTypeReceivable AccountType = "RECEIVABLE"
	AccountTypeLiability  AccountType = "LIABILITY"
	AccountTypeCredit     AccountType = "CREDIT"
	AccountTypePayable    AccountType = "PAYABLE"
	AccountTypeEquity     AccountType = "EQUITY"
	AccountTypeIncome     AccountType = "INCOME"
	AccountTypeExpense    AccountType = "EXPENSE"
	AccountTypeTrading    AccountType = "TRADING"
	AccountTypeRoot       AccountType = "ROOT"
)

// AccountTypes lists every type GnuCash accepts in an account import.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeBank,
	AccountTypeCash,
	AccountTypeStock,
	AccountTypeMutual,
	AccountTypeReceivable,
	AccountTypeLiability,
	AccountTypeCredit,
	AccountTypePayable,
	AccountTypeEquity,
	AccountTypeIncome,
	AccountTypeExpense,
	AccountTypeTrading,
	AccountTypeRoot,
}

// ParseAccountType parses a type name in any case.
func ParseAccountType(s string) (AccountType, bool) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AccountTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Category is one of the five fundamental accounting categories.
type Category string

const (
	CategoryAssets      Category = "Assets"
	CategoryLiabilities Category = "Liabilities"
	CategoryEquity      Category = "Equity"
	CategoryIncome      Category = "Income"
	CategoryExpenses    Category = "Expenses"
)

// Categories is the canonical order of the fundamental categories.
var Categories = []Category{
	CategoryAssets,
	CategoryLiabilities,
	CategoryEquity,
	CategoryIncome,
	CategoryExpenses,
}

// ParseCategory matches the first segment of an account path.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// BaseType returns the type given to the category node itself.
func (c Category) BaseType() AccountType {
	switch c {
	case CategoryAssets:
		return AccountTypeAsset
	case CategoryLiabilities:
		return AccountTypeLiability
	case CategoryEquity:
		return AccountTypeEquity
	case CategoryIncome:
		return AccountTypeIncome
	case CategoryExpenses:
		return AccountTypeExpense
	}
	return ""
}

// Group returns the family a type belongs to, or "" for ROOT, TRADING
// and unknown types.
func Group(t AccountType) Category {
	switch t {
	case AccountTypeAsset, AccountTypeBank, AccountTypeCash, AccountTypeStock, AccountTypeMutual, AccountTypeReceivable:
		return CategoryAssets
	case AccountTypeLiability, AccountTypeCredit, AccountTypePayable:
		return CategoryLiabilities
	case AccountTypeEquity:
		return CategoryEquity
	case AccountTypeIncome:
		return CategoryIncome
	case AccountTypeExpense:
		return CategoryExpenses
	}
	return ""
}

// Compatible reports whether a and b belong to the same type family.
func Compatible(a, b AccountType) bool {
	g := Group(a)
	return g != "" && g == Group(b)
}

// Metadata holds the source fields preserved on an account.
type Metadata struct {
	Description string
	Notes       string
	Color       string
	TaxInfo     string
	Hidden      bool
}

// Absorb fills empty fields of m from other.
func (m *Metadata) Absorb(other Metadata) {
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.Notes == "" {
		m.Notes = other.Notes
	}
	if m.Color == "" {
		m.Color = other.Color
	}
	if m.TaxInfo == "" {
		m.TaxInfo = other.TaxInfo
	}
	m.Hidden = m.Hidden || other.Hidden
}

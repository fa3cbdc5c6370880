package mapping

import "github.com/cleared-dev/qbd2gnc/internal/model"

// DefaultCommodity is the currency written when a mapping names none.
const DefaultCommodity = "USD"

// Baseline returns the built-in mapping of QuickBooks Desktop account types.
func Baseline() *File {
	return &File{
		AccountTypes: map[string]Entry{
			"BANK":     {Type: model.AccountTypeBank, Destination: "Assets:Current Assets"},
			"AR":       {Type: model.AccountTypeReceivable, Destination: "Assets:Accounts Receivable"},
			"OCASSET":  {Type: model.AccountTypeAsset, Destination: "Assets:Current Assets"},
			"FIXASSET": {Type: model.AccountTypeAsset, Destination: "Assets:Fixed Assets"},
			"OASSET":   {Type: model.AccountTypeAsset, Destination: "Assets:Other Assets"},
			"AP":       {Type: model.AccountTypePayable, Destination: "Liabilities:Accounts Payable"},
			"CCARD":    {Type: model.AccountTypeCredit, Destination: "Liabilities:Credit Cards"},
			"OCLIAB":   {Type: model.AccountTypeLiability, Destination: "Liabilities:Current Liabilities"},
			"LTLIAB":   {Type: model.AccountTypeLiability, Destination: "Liabilities:Long Term Liabilities"},
			"EQUITY":   {Type: model.AccountTypeEquity, Destination: "Equity"},
			"INC":      {Type: model.AccountTypeIncome, Destination: "Income"},
			"EXINC":    {Type: model.AccountTypeIncome, Destination: "Income:Other Income"},
			"COGS":     {Type: model.AccountTypeExpense, Destination: "Expenses:Cost of Goods Sold"},
			"EXP":      {Type: model.AccountTypeExpense, Destination: "Expenses"},
			"EXEXP":    {Type: model.AccountTypeExpense, Destination: "Expenses:Other Expenses"},
		},
		DefaultRules: DefaultRules{
			Unmapped: &Entry{Type: model.AccountTypeExpense, Destination: "Expenses:Uncategorized"},
		},
		DefaultCommodity: DefaultCommodity,
	}
}

package hierarchy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/mapping"
	"github.com/cleared-dev/qbd2gnc/internal/model"
)

func newResolver(t *testing.T, strict bool, entries map[string]mapping.Entry) *mapping.Resolver {
	t.Helper()
	f := &mapping.File{
		AccountTypes: entries,
		DefaultRules: mapping.DefaultRules{
			Unmapped: &mapping.Entry{Type: model.AccountTypeExpense, Destination: "Expenses:Uncategorized"},
		},
	}
	table, err := f.Table()
	require.NoError(t, err)
	return mapping.NewResolver(table, strict)
}

var testEntries = map[string]mapping.Entry{
	"BANK":   {Type: model.AccountTypeAsset, Destination: "Assets:Current Assets"},
	"AR":     {Type: model.AccountTypeReceivable, Destination: "Assets"},
	"AP":     {Type: model.AccountTypePayable, Destination: "Liabilities"},
	"OCLIAB": {Type: model.AccountTypeLiability, Destination: "Liabilities:Current Liabilities"},
	"EXP":    {Type: model.AccountTypeExpense, Destination: "Expenses"},
	"INC":    {Type: model.AccountTypeIncome, Destination: "Income"},
	"EQUITY": {Type: model.AccountTypeEquity, Destination: "Equity"},
}

func build(t *testing.T, records ...model.SourceAccountRecord) *BuildResult {
	t.Helper()
	res, err := NewBuilder(newResolver(t, false, testEntries)).Build(records)
	require.NoError(t, err)
	return res
}

func TestBuild_EndToEnd(t *testing.T) {
	res := build(t, model.SourceAccountRecord{Name: "Checking", Type: "BANK"})

	want := []model.FlattenedAccountRecord{
		{Type: model.AccountTypeAsset, FullName: "Assets", Name: "Assets", Placeholder: true},
		{Type: model.AccountTypeAsset, FullName: "Assets:Current Assets", Name: "Current Assets", Placeholder: true},
		{Type: model.AccountTypeAsset, FullName: "Assets:Current Assets:Checking", Name: "Checking"},
	}
	if diff := cmp.Diff(want, Flatten(res.Tree)); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Validate(res.Tree))
}

func TestBuild_Metadata(t *testing.T) {
	res := build(t, model.SourceAccountRecord{
		Name:        "Checking",
		Type:        "BANK",
		Code:        "1000",
		Description: "Operating account",
		Hidden:      true,
		Extra:       map[string]string{model.ExtraNotes: "main", model.ExtraColor: "#00ff00"},
	})

	n := res.Tree.Find("Assets:Current Assets:Checking")
	require.NotNil(t, n)
	assert.Equal(t, "1000", n.Code)
	assert.Equal(t, "Checking", n.Source)
	assert.Equal(t, model.Metadata{Description: "Operating account", Notes: "main", Color: "#00ff00", Hidden: true}, n.Meta)
	assert.False(t, n.Placeholder)
	assert.True(t, res.Tree.Find("Assets:Current Assets").Synthesized())
}

func TestBuild_SubAccounts(t *testing.T) {
	parent := model.SourceAccountRecord{Name: "Utilities", Type: "EXP", Code: "6100"}
	child := model.SourceAccountRecord{Name: "Utilities:Electric", Type: "EXP", Code: "6110"}

	forward := build(t, parent, child)
	backward := build(t, child, parent)

	for name, res := range map[string]*BuildResult{"parent first": forward, "child first": backward} {
		t.Run(name, func(t *testing.T) {
			u := res.Tree.Find("Expenses:Utilities")
			require.NotNil(t, u)
			assert.Equal(t, "6100", u.Code, "intermediate level is the real account")
			assert.Equal(t, "Utilities", u.Source)
			assert.True(t, u.Placeholder)

			e := res.Tree.Find("Expenses:Utilities:Electric")
			require.NotNil(t, e)
			assert.Equal(t, "6110", e.Code)
			assert.False(t, e.Placeholder)
			assert.Empty(t, Validate(res.Tree))
		})
	}
	assert.Equal(t, len(Flatten(forward.Tree)), len(Flatten(backward.Tree)))
}

func TestBuild_SubAccountWithoutParentRecord(t *testing.T) {
	res := build(t, model.SourceAccountRecord{Name: "Travel:Meals:Client", Type: "EXP"})

	for _, p := range []string{"Expenses:Travel", "Expenses:Travel:Meals"} {
		n := res.Tree.Find(p)
		require.NotNil(t, n, p)
		assert.True(t, n.Placeholder, p)
		assert.True(t, n.Synthesized(), p)
		assert.Equal(t, model.AccountTypeExpense, n.Type, p)
	}
	assert.True(t, res.Tree.Find("Expenses:Travel:Meals:Client").IsLeaf())
}

func TestBuild_ParentInOtherCategory(t *testing.T) {
	res := build(t,
		model.SourceAccountRecord{Name: "Payroll", Type: "EXP"},
		model.SourceAccountRecord{Name: "Payroll:Withholding", Type: "OCLIAB"},
	)

	assert.NotNil(t, res.Tree.Find("Expenses:Payroll"))
	n := res.Tree.Find("Liabilities:Current Liabilities:Payroll")
	require.NotNil(t, n)
	assert.True(t, n.Synthesized())
	assert.Equal(t, model.AccountTypeLiability, n.Type)
	assert.NotNil(t, res.Tree.Find("Liabilities:Current Liabilities:Payroll:Withholding"))
}

func TestBuild_PlaceholderUnderReceivable(t *testing.T) {
	res := build(t,
		model.SourceAccountRecord{Name: "Accounts Receivable", Type: "AR"},
		model.SourceAccountRecord{Name: "Accounts Receivable:Retail:Walk-in", Type: "BANK"},
	)

	ar := res.Tree.Find("Assets:Accounts Receivable")
	require.NotNil(t, ar)
	assert.Equal(t, model.AccountTypeReceivable, ar.Type)
	retail := res.Tree.Find("Assets:Accounts Receivable:Retail")
	require.NotNil(t, retail)
	assert.Equal(t, model.AccountTypeAsset, retail.Type, "placeholders never inherit RECEIVABLE")
	assert.NotNil(t, res.Tree.Find("Assets:Accounts Receivable:Retail:Walk-in"))
	assert.Empty(t, Validate(res.Tree))
	assert.Equal(t, []string{"Accounts Receivable"}, res.Receivables)
}

func TestPlaceholderType(t *testing.T) {
	tree := New()
	ar := newNode("AR", model.AccountTypeReceivable)
	require.NoError(t, tree.Category(model.CategoryAssets).attach(ar))
	ap := newNode("AP", model.AccountTypePayable)
	require.NoError(t, tree.Category(model.CategoryLiabilities).attach(ap))
	bank := newNode("Bank", model.AccountTypeBank)
	require.NoError(t, tree.Category(model.CategoryAssets).attach(bank))

	assert.Equal(t, model.AccountTypeAsset, placeholderType(ar))
	assert.Equal(t, model.AccountTypeLiability, placeholderType(ap))
	assert.Equal(t, model.AccountTypeBank, placeholderType(bank))
	assert.Equal(t, model.AccountTypeIncome, placeholderType(tree.Category(model.CategoryIncome)))
}

func TestBuild_TracksSingletons(t *testing.T) {
	res := build(t,
		model.SourceAccountRecord{Name: "Accounts Receivable", Type: "AR"},
		model.SourceAccountRecord{Name: "Accounts Payable", Type: "AP"},
		model.SourceAccountRecord{Name: "Trade Payables", Type: "AP"},
	)
	assert.Equal(t, []string{"Accounts Receivable"}, res.Receivables)
	assert.Equal(t, []string{"Accounts Payable", "Trade Payables"}, res.Payables)

	vs := Validate(res.Tree)
	require.Len(t, vs, 1)
	assert.Equal(t, ViolationAPSingleton, vs[0].Kind)
	assert.Contains(t, vs[0].Description, "Liabilities:Accounts Payable")
	assert.Contains(t, vs[0].Description, "Liabilities:Trade Payables")
}

func TestBuild_Unmapped(t *testing.T) {
	res := build(t,
		model.SourceAccountRecord{Name: "Purchase Orders", Type: "NONPOSTING"},
		model.SourceAccountRecord{Name: "Checking", Type: "BANK"},
	)
	assert.Equal(t, []string{"NONPOSTING"}, res.Unmapped)
	n := res.Tree.Find("Expenses:Uncategorized:Purchase Orders")
	require.NotNil(t, n)
	assert.Equal(t, model.AccountTypeExpense, n.Type)
}

func TestBuild_Strict(t *testing.T) {
	_, err := NewBuilder(newResolver(t, true, testEntries)).Build([]model.SourceAccountRecord{
		{Name: "Purchase Orders", Type: "NONPOSTING"},
	})
	require.Error(t, err)
	var merr *mapping.MappingError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "NONPOSTING", merr.Code)
}

func TestBuild_StrictReportsEveryCode(t *testing.T) {
	_, err := NewBuilder(newResolver(t, true, testEntries)).Build([]model.SourceAccountRecord{
		{Name: "Purchase Orders", Type: "NONPOSTING"},
		{Name: "Checking", Type: "BANK"},
		{Name: "Estimates", Type: "NONPOSTING"},
		{Name: "Suspense", Type: "SUSP"},
	})
	require.Error(t, err)

	var codes []string
	for _, e := range multierr.Errors(err) {
		var merr *mapping.MappingError
		require.True(t, errors.As(e, &merr), e.Error())
		codes = append(codes, merr.Code)
	}
	assert.Equal(t, []string{"NONPOSTING", "SUSP"}, codes)
	assert.Contains(t, err.Error(), `account "Suspense"`)
}

func TestBuild_InvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		record model.SourceAccountRecord
		field  string
		reason string
	}{
		{"missing name", model.SourceAccountRecord{Type: "BANK", Line: 4}, "name", ""},
		{"blank type", model.SourceAccountRecord{Name: "Checking", Type: "  "}, "type", ""},
		{"empty segment", model.SourceAccountRecord{Name: "Travel::Meals", Type: "EXP"}, "", "empty sub-account segment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(newResolver(t, false, testEntries)).Build([]model.SourceAccountRecord{tt.record})
			require.Error(t, err)
			var terr *TreeConstructionError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.field, terr.Field)
			assert.Contains(t, terr.Reason, tt.reason)
		})
	}
}

func TestBuild_DuplicatePath(t *testing.T) {
	records := []model.SourceAccountRecord{
		{Name: "Checking", Type: "BANK"},
		{Name: "Checking", Type: "BANK", Line: 9},
	}
	_, err := NewBuilder(newResolver(t, false, testEntries)).Build(records)
	require.Error(t, err)
	var terr *TreeConstructionError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "line 9")
	assert.Contains(t, err.Error(), "Assets:Current Assets:Checking")
}

func TestBuild_BadDestination(t *testing.T) {
	table := &mapping.Table{
		Entries: map[string]mapping.Entry{"BANK": {Type: model.AccountTypeBank, Destination: "Banks"}},
		Default: mapping.Entry{Type: model.AccountTypeExpense, Destination: "Expenses"},
	}
	_, err := NewBuilder(mapping.NewResolver(table, false)).Build([]model.SourceAccountRecord{{Name: "Checking", Type: "BANK"}})
	var terr *TreeConstructionError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, terr.Reason, "fundamental category")
}

func TestBuild_SkipInvalid(t *testing.T) {
	var logs bytes.Buffer
	b := NewBuilder(newResolver(t, false, testEntries), WithSkipInvalid(), WithLogger(zerolog.New(&logs)))
	res, err := b.Build([]model.SourceAccountRecord{
		{Name: "Checking", Type: "BANK"},
		{Name: "", Type: "BANK", Line: 3},
		{Name: "Checking", Type: "BANK", Line: 5},
		{Name: "Rent", Type: "EXP"},
	})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 3, res.Skipped[0].Record.Line)
	assert.Equal(t, 5, res.Skipped[1].Record.Line)
	assert.NotNil(t, res.Tree.Find("Expenses:Rent"))
	assert.Contains(t, logs.String(), "skipping account")
}

func TestBuild_PlaceholderHintOnLeaf(t *testing.T) {
	entries := map[string]mapping.Entry{
		"OASSET": {Type: model.AccountTypeAsset, Destination: "Assets:Other", Placeholder: true},
	}
	var logs bytes.Buffer
	b := NewBuilder(newResolver(t, false, entries), WithLogger(zerolog.New(&logs)))
	res, err := b.Build([]model.SourceAccountRecord{{Name: "Deposits", Type: "OASSET"}})
	require.NoError(t, err)

	n := res.Tree.Find("Assets:Other:Deposits")
	require.NotNil(t, n)
	assert.False(t, n.Placeholder, "a leaf stays postable")
	assert.Contains(t, logs.String(), "no sub-accounts")
}

func TestBuild_Deterministic(t *testing.T) {
	records := []model.SourceAccountRecord{
		{Name: "Checking", Type: "BANK"},
		{Name: "Savings", Type: "BANK"},
		{Name: "Utilities:Water", Type: "EXP"},
		{Name: "Sales", Type: "INC"},
		{Name: "Opening Balance", Type: "EQUITY"},
	}
	first := Flatten(build(t, records...).Tree)
	second := Flatten(build(t, records...).Tree)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated build differs:\n%s", diff)
	}
}

package hierarchy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	return build(t,
		model.SourceAccountRecord{Name: "Checking", Type: "BANK"},
		model.SourceAccountRecord{Name: "Savings", Type: "BANK"},
		model.SourceAccountRecord{Name: "Accounts Receivable", Type: "AR"},
		model.SourceAccountRecord{Name: "Rent", Type: "EXP"},
	).Tree
}

func kinds(vs Violations) []ViolationKind {
	var res []ViolationKind
	for _, v := range vs {
		res = append(res, v.Kind)
	}
	return res
}

func TestValidate_Clean(t *testing.T) {
	tree := sampleTree(t)
	vs := Validate(tree)
	assert.Empty(t, vs)
	assert.NoError(t, vs.Err())
}

func TestValidate_EmptyTree(t *testing.T) {
	assert.Empty(t, Validate(New()))
}

func TestValidate_ReceivableSingleton(t *testing.T) {
	res := build(t,
		model.SourceAccountRecord{Name: "Accounts Receivable", Type: "AR"},
		model.SourceAccountRecord{Name: "Retainers", Type: "AR"},
	)
	vs := Validate(res.Tree)
	assert.Equal(t, []ViolationKind{ViolationARSingleton}, kinds(vs))
	assert.Equal(t, "Assets:Retainers", vs[0].Path)
	assert.Contains(t, vs.Err().Error(), "ar_singleton")
}

func TestValidate_PlaceholderMismatch(t *testing.T) {
	tree := sampleTree(t)
	tree.Find("Assets:Current Assets:Checking").Placeholder = true
	tree.Find("Assets:Current Assets").Placeholder = false

	vs := Validate(tree)
	assert.Equal(t, []ViolationKind{ViolationPlaceholder, ViolationPlaceholder}, kinds(vs))
}

func TestValidate_CategoryStructure(t *testing.T) {
	tree := sampleTree(t)
	tree.Category(model.CategoryEquity).Placeholder = false
	tree.root.detach(tree.Category(model.CategoryIncome))

	vs := Validate(tree).Filter(ViolationStructure)
	require.Len(t, vs, 3)
	assert.Equal(t, RootName, vs[0].Path)
	assert.Equal(t, "Equity", vs[1].Path)
	assert.Equal(t, "Income", vs[2].Path)
}

func TestValidate_PathMismatch(t *testing.T) {
	tree := sampleTree(t)
	tree.Find("Expenses:Rent").path = "Expenses:Lease"

	vs := Validate(tree)
	require.Len(t, vs, 1)
	assert.Equal(t, ViolationPath, vs[0].Kind)
	assert.Equal(t, "Expenses:Lease", vs[0].Path)
}

func TestValidate_DuplicatePath(t *testing.T) {
	tree := sampleTree(t)
	tree.Find("Assets:Current Assets:Savings").path = "Assets:Current Assets:Checking"

	vs := Validate(tree)
	assert.ElementsMatch(t, []ViolationKind{ViolationPath, ViolationDuplicatePath}, kinds(vs))
	dups := vs.Filter(ViolationDuplicatePath)
	require.Len(t, dups, 1)
	assert.Equal(t, "Assets:Current Assets:Checking", dups[0].Path)
}

func TestValidate_Cycle(t *testing.T) {
	tree := sampleTree(t)
	current := tree.Find("Assets:Current Assets")
	checking := current.Child("Checking")
	current.parent = checking

	vs := Validate(tree).Filter(ViolationCycle)
	require.NotEmpty(t, vs)
	assert.Equal(t, "Assets:Current Assets", vs[0].Path)
}

func TestValidate_SharedChild(t *testing.T) {
	tree := sampleTree(t)
	rent := tree.Find("Expenses:Rent")
	income := tree.Category(model.CategoryIncome)
	income.children = append(income.children, rent)
	income.Placeholder = true

	vs := Validate(tree).Filter(ViolationCycle)
	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Description, "more than once")
}

func TestValidate_ChildLoop(t *testing.T) {
	tree := sampleTree(t)
	checking := tree.Find("Assets:Current Assets:Checking")
	checking.children = append(checking.children, tree.Category(model.CategoryAssets))
	checking.Placeholder = true

	// Must terminate.
	vs := Validate(tree)
	assert.NotEmpty(t, vs.Filter(ViolationCycle))
}

func TestViolations_Filter(t *testing.T) {
	vs := Violations{
		{Kind: ViolationARSingleton, Path: "a"},
		{Kind: ViolationCycle, Path: "b"},
		{Kind: ViolationAPSingleton, Path: "c"},
	}
	got := vs.Filter(ViolationARSingleton, ViolationAPSingleton)
	if diff := cmp.Diff(Violations{vs[0], vs[2]}, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, Violations(nil).Err())
}

func TestParseViolationKinds(t *testing.T) {
	kinds, err := ParseViolationKinds([]string{"ar_singleton", " CYCLE "})
	require.NoError(t, err)
	assert.Equal(t, []ViolationKind{ViolationARSingleton, ViolationCycle}, kinds)

	_, err = ParseViolationKinds([]string{"orphan"})
	assert.Error(t, err)
}

package gnucash

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

var sampleRecords = []model.FlattenedAccountRecord{
	{Type: model.AccountTypeAsset, FullName: "Assets", Name: "Assets", Placeholder: true},
	{Type: model.AccountTypeAsset, FullName: "Assets:Current Assets", Name: "Current Assets", Placeholder: true},
	{Type: model.AccountTypeBank, FullName: "Assets:Current Assets:Checking", Name: "Checking", Code: "1000", Description: "Main, operating", Notes: "branch 12"},
	{Type: model.AccountTypeExpense, FullName: "Expenses", Name: "Expenses", Placeholder: true},
	{Type: model.AccountTypeExpense, FullName: "Expenses:Old", Name: "Old", Hidden: true, TaxInfo: "Line 4", Color: "#ff0000"},
}

func TestWrite_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{}.Write(&buf, sampleRecords))
	goldie.New(t).Assert(t, "accounts", buf.Bytes())
}

func TestWrite_Commodity(t *testing.T) {
	row := Writer{Commodity: "CHF", Namespace: "ISO4217"}.Marshal(sampleRecords[0])
	assert.Equal(t, "CHF", row[colSymbol])
	assert.Equal(t, "ISO4217", row[colNamespace])
	assert.Equal(t, "T", row[colPlaceholder])
	assert.Equal(t, "F", row[colHidden])
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{}.Write(&buf, sampleRecords))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRecords, got); diff != "" {
		t.Errorf("ReadAccounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadAccounts_Errors(t *testing.T) {
	header := strings.Join(Header, ",") + "\n"
	tests := map[string]string{
		"short row":    header + "ASSET,Assets\n",
		"unknown type": header + "VAULT,Assets,Assets,,,,,USD,CURRENCY,F,,T\n",
		"bad bool":     header + "ASSET,Assets,Assets,,,,,USD,CURRENCY,yes,,T\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadAccounts(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, Writer{}.WriteFile(path, sampleRecords[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header, ",")+"\nASSET,Assets,Assets,,,,,USD,CURRENCY,F,,T\n", string(data))
}

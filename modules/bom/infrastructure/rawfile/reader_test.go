package rawfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadJSON(t *testing.T) {
	input := `[
		{"external_id": "root", "description": "Root", "quantity": "1"},
		{"external_id": "p1", "parent_external_id": "root", "part_number": "P001",
		 "quantity": "2.5", "attributes": {"material": "steel"}}
	]`

	items, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "root", items[0].ExternalID)
	require.Nil(t, items[0].ParentExternalID)

	p1 := items[1]
	require.NotNil(t, p1.ParentExternalID)
	require.Equal(t, "root", *p1.ParentExternalID)
	require.Equal(t, "P001", p1.PartNumber)
	require.True(t, p1.QuantityPerParent.Equal(decimal.RequireFromString("2.5")))
	require.Equal(t, "steel", p1.Attributes["material"])
}

func TestReadJSON_MissingExternalID(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`[{"part_number": "P001"}]`))
	require.Error(t, err)
	require.ErrorContains(t, err, "external_id")
}

func TestReadCSV(t *testing.T) {
	input := "external_id,parent_external_id,part_number,description,quantity,material\n" +
		"root,,,Root,1,\n" +
		"p1,root,P001,Widget,2,steel\n"

	items, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "root", items[0].ExternalID)
	require.Nil(t, items[0].ParentExternalID)
	require.Nil(t, items[0].Attributes)

	p1 := items[1]
	require.Equal(t, "root", *p1.ParentExternalID)
	require.True(t, p1.QuantityPerParent.Equal(decimal.NewFromInt(2)))
	require.Equal(t, map[string]string{"material": "steel"}, p1.Attributes)
}

func TestReadCSV_StripsByteOrderMark(t *testing.T) {
	input := "\xEF\xBB\xBFexternal_id,quantity\nroot,1\n"

	items, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, "root", items[0].ExternalID)
}

func TestReadCSV_MissingRequiredColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("part_number,quantity\nP001,1\n"))
	require.Error(t, err)
	require.ErrorContains(t, err, "external_id")
}

func TestReadCSV_InvalidQuantity(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("external_id,quantity\nroot,lots\n"))
	require.Error(t, err)
	require.ErrorContains(t, err, "line 2")
}

func TestReadFile_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "items.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"external_id": "root"}]`), 0o600))
	items, err := ReadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = ReadFile(filepath.Join(dir, "items.parquet"))
	require.Error(t, err)
	require.ErrorContains(t, err, "unsupported file extension")
}

func TestReadFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"external_id", "parent_external_id", "part_number", "quantity", "finish"},
		{"root", "", "", "1", ""},
		{"p1", "root", "P001", "3", "anodized"},
		{"", "", "", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "items.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	items, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2, "trailing empty row is skipped")

	p1 := items[1]
	require.Equal(t, "P001", p1.PartNumber)
	require.True(t, p1.QuantityPerParent.Equal(decimal.NewFromInt(3)))
	require.Equal(t, "anodized", p1.Attributes["finish"])
}

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeInputFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunExtract_FlattenedToFile(t *testing.T) {
	input := writeInputFile(t, "items.json", `[
		{"external_id": "root", "description": "Root", "quantity": "1"},
		{"external_id": "sub-a", "parent_external_id": "root", "description": "Sub A", "quantity": "2"},
		{"external_id": "p1", "parent_external_id": "sub-a", "part_number": "P001", "description": "Widget", "quantity": "2"},
		{"external_id": "sub-b", "parent_external_id": "root", "description": "Sub B", "quantity": "1"},
		{"external_id": "p2", "parent_external_id": "sub-b", "part_number": "P001", "description": "Widget", "quantity": "3"}
	]`)
	output := filepath.Join(t.TempDir(), "flattened.json")

	err := runExtract(extractOptions{
		input:    input,
		output:   output,
		mode:     "flattened",
		strategy: "path",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var items []flattenedItemJSON
	require.NoError(t, json.Unmarshal(data, &items))

	var widgetQty string
	for _, item := range items {
		if item.PartNumber == "P001" {
			widgetQty = item.EffectiveQuantity.String()
		}
	}
	require.Equal(t, "7", widgetQty)
}

func TestRunExtract_CycleExitsWithValidationCode(t *testing.T) {
	input := writeInputFile(t, "items.json", `[
		{"external_id": "a", "parent_external_id": "b"},
		{"external_id": "b", "parent_external_id": "a"}
	]`)

	err := runExtract(extractOptions{input: input, mode: "flattened", strategy: "path"})
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))
}

func TestRunExtract_BadStrategyExitsWithValidationCode(t *testing.T) {
	input := writeInputFile(t, "items.json", `[{"external_id": "a"}]`)

	err := runExtract(extractOptions{input: input, mode: "flattened", strategy: "zigzag"})
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, 1, exitCode(os.ErrNotExist))
	require.Equal(t, exitUsage, exitCode(withCode(exitUsage, os.ErrNotExist)))
}

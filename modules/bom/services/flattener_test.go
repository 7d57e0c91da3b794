package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
)

// buildForest assembles the fixture used across strategy tests:
//
//	bike (root, qty 1)
//	├── frame-asm (qty 1, assembly)
//	│   ├── tube (P-TUBE, qty 4)
//	│   └── weld-asm (qty 1, assembly, significant)
//	│       └── rod (P-ROD, qty 2)
//	└── wheel (P-WHEEL, qty 2)
func buildForest(t *testing.T) *assembly.Forest {
	t.Helper()
	items := []assembly.RawItem{
		{ExternalID: "bike", Description: "Bike", QuantityPerParent: decimal.NewFromInt(1)},
		{ExternalID: "frame-asm", ParentExternalID: strPtr("bike"), Description: "Frame", QuantityPerParent: decimal.NewFromInt(1)},
		{ExternalID: "tube", ParentExternalID: strPtr("frame-asm"), PartNumber: "P-TUBE", Description: "Tube", QuantityPerParent: decimal.NewFromInt(4)},
		{
			ExternalID:        "weld-asm",
			ParentExternalID:  strPtr("frame-asm"),
			Description:       "Weldment",
			QuantityPerParent: decimal.NewFromInt(1),
			Attributes:        map[string]string{assembly.SignificantAttribute: "true"},
		},
		{ExternalID: "rod", ParentExternalID: strPtr("weld-asm"), PartNumber: "P-ROD", Description: "Rod", QuantityPerParent: decimal.NewFromInt(2)},
		{ExternalID: "wheel", ParentExternalID: strPtr("bike"), PartNumber: "P-WHEEL", Description: "Wheel", QuantityPerParent: decimal.NewFromInt(2)},
	}
	forest, _, err := NewGraphBuilder().Build(BuildInput{Items: items})
	require.NoError(t, err)
	return forest
}

func externalIDs(items []assembly.FlattenedItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ExternalID)
	}
	return out
}

func TestFlattener_HierarchicalStrategyRejected(t *testing.T) {
	_, err := NewFlattener("/").Flatten(buildForest(t), assembly.StrategyHierarchical)
	require.Error(t, err)
}

func TestFlattener_UnknownStrategyRejected(t *testing.T) {
	_, err := NewFlattener("/").Flatten(buildForest(t), assembly.Strategy("zigzag"))
	require.Error(t, err)
}

func TestFlattener_PathStrategy(t *testing.T) {
	out, err := NewFlattener("/").Flatten(buildForest(t), assembly.StrategyPath)
	require.NoError(t, err)

	require.Equal(t, []string{"bike", "frame-asm", "tube", "weld-asm", "rod", "wheel"}, externalIDs(out))
	require.Equal(t, "", out[0].Lineage)
	require.Equal(t, "Bike/Frame", out[2].Lineage)
	require.Equal(t, []string{"Bike", "Frame"}, out[2].AncestorNames)
	require.Equal(t, "Bike/Frame/Weldment", out[4].Lineage)
	require.True(t, out[4].EffectiveQuantity.Equal(decimal.NewFromInt(2)))
	require.True(t, out[5].EffectiveQuantity.Equal(decimal.NewFromInt(2)))
}

func TestFlattener_PathStrategyCustomSeparator(t *testing.T) {
	out, err := NewFlattener(" > ").Flatten(buildForest(t), assembly.StrategyPath)
	require.NoError(t, err)
	require.Equal(t, "Bike > Frame", out[2].Lineage)
}

func TestFlattener_InductedStrategyCollapsesPassThroughAssemblies(t *testing.T) {
	out, err := NewFlattener("/").Flatten(buildForest(t), assembly.StrategyInducted)
	require.NoError(t, err)

	// frame-asm is a pass-through container: not a leaf, no part number, not
	// significant. bike survives only because the fixture marks nothing above
	// it; it is an assembly without part number and with children, so it is
	// dropped too. weld-asm survives via the significant attribute.
	require.Equal(t, []string{"tube", "weld-asm", "rod", "wheel"}, externalIDs(out))
	require.Equal(t, "", out[0].Lineage)
	require.Equal(t, "Weldment", out[2].Lineage)
	require.Equal(t, []string{"Weldment"}, out[2].AncestorNames)
}

func TestFlattener_LevelPrefixStrategy(t *testing.T) {
	out, err := NewFlattener("/").Flatten(buildForest(t), assembly.StrategyLevelPrefix)
	require.NoError(t, err)

	lineages := make([]string, 0, len(out))
	for _, item := range out {
		lineages = append(lineages, item.Lineage)
	}
	require.Equal(t, []string{"1", "1.1", "1.1.1", "1.1.2", "1.1.2.1", "1.2"}, lineages)
}

func TestFlattener_ParentReferenceStrategy(t *testing.T) {
	out, err := NewFlattener("/").Flatten(buildForest(t), assembly.StrategyParentReference)
	require.NoError(t, err)

	require.Equal(t, "", out[0].Lineage)
	require.Equal(t, "bike", out[1].Lineage)
	require.Equal(t, "frame-asm", out[2].Lineage)
	require.Equal(t, "weld-asm", out[4].Lineage)
	require.Equal(t, "bike", out[5].Lineage)
}

func TestFlattener_RerunIsDeterministic(t *testing.T) {
	forest := buildForest(t)
	flattener := NewFlattener("/")

	first, err := flattener.Flatten(forest, assembly.StrategyPath)
	require.NoError(t, err)
	second, err := flattener.Flatten(forest, assembly.StrategyPath)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFlattener_AttributesAreCopied(t *testing.T) {
	forest := buildForest(t)

	out, err := NewFlattener("/").Flatten(forest, assembly.StrategyPath)
	require.NoError(t, err)

	weld := out[3]
	require.Equal(t, "true", weld.Attributes[assembly.SignificantAttribute])
	weld.Attributes["mutated"] = "yes"

	again, err := NewFlattener("/").Flatten(forest, assembly.StrategyPath)
	require.NoError(t, err)
	require.NotContains(t, again[3].Attributes, "mutated", "node attributes stay untouched")
}

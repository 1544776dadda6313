package formats

import (
	"encoding/json"
	"testing"

	"archcheck/internal/core/ports"
	"archcheck/internal/engine/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSARIF(t *testing.T, data []byte) sarifReport {
	t.Helper()
	var doc sarifReport
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestGenerateSARIF_Clean(t *testing.T) {
	data, err := GenerateSARIF(ports.CheckReport{})
	require.NoError(t, err)

	doc := decodeSARIF(t, data)
	assert.Equal(t, sarifSchema, doc.Schema)
	assert.Equal(t, sarifVersion, doc.Version)
	require.Len(t, doc.Runs, 1)
	assert.Equal(t, "archcheck", doc.Runs[0].Tool.Driver.Name)
	assert.Empty(t, doc.Runs[0].Results)
	assert.Empty(t, doc.Runs[0].Tool.Driver.Rules)
	assert.Nil(t, doc.Runs[0].AutomationDetails)
}

func TestGenerateSARIF_Findings(t *testing.T) {
	report := ports.CheckReport{
		RunID:   "run-1",
		Project: "demo",
		PackageCycle: &ports.CycleFinding{
			Granularity: ports.GranularityPackage,
			Path:        []string{"a", "b", "a"},
		},
		Inspections: []module.Inspection{
			{Module: "core", Undeclared: []string{"x.Y", "x.Z"}, Unused: []string{"org.never.**"}},
		},
		Uncovered: []string{"misc.M"},
		Violations: []ports.Violation{
			{Kind: ports.KindPackageCycle},
			{Kind: ports.KindModuleBoundary},
			{Kind: ports.KindUncovered},
		},
	}

	data, err := GenerateSARIF(report)
	require.NoError(t, err)
	doc := decodeSARIF(t, data)
	run := doc.Runs[0]

	require.NotNil(t, run.AutomationDetails)
	assert.Equal(t, "demo/run-1", run.AutomationDetails.ID)

	ruleIDs := make([]string, 0, len(run.Tool.Driver.Rules))
	for _, r := range run.Tool.Driver.Rules {
		ruleIDs = append(ruleIDs, r.ID)
	}
	assert.Equal(t, []string{ruleIDPackageCycle, ruleIDModuleBoundary, ruleIDUncovered}, ruleIDs)

	require.Len(t, run.Results, 4, "unused uses were not a reported violation")
	cycle := run.Results[0]
	assert.Equal(t, ruleIDPackageCycle, cycle.RuleID)
	assert.Equal(t, "Dependency cycle: a → b → a", cycle.Message.Text)
	require.Len(t, cycle.Locations, 2)
	assert.Equal(t, "namespace", cycle.Locations[0].LogicalLocations[0].Kind)

	assert.Equal(t, ruleIDModuleBoundary, run.Results[1].RuleID)
	assert.Contains(t, run.Results[1].Message.Text, "x.Y")
	assert.Equal(t, "core", run.Results[2].Locations[0].LogicalLocations[0].FullyQualifiedName)

	uncovered := run.Results[3]
	assert.Equal(t, "warning", uncovered.Level)
	assert.Equal(t, "misc.M", uncovered.Locations[0].LogicalLocations[0].FullyQualifiedName)
}

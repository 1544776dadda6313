package formats

import (
	"encoding/json"
	"fmt"
	"strings"

	"archcheck/internal/core/ports"
	"archcheck/internal/shared/version"
)

// SARIF v2.1.0 schema: https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDUnitCycle      = "ARCH001"
	ruleIDPackageCycle   = "ARCH002"
	ruleIDModuleBoundary = "ARCH003"
	ruleIDUnusedUse      = "ARCH004"
	ruleIDUncovered      = "ARCH005"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool        `json:"tool"`
	AutomationDetails *sarifAutomation `json:"automationDetails,omitempty"`
	Results           []sarifResult    `json:"results"`
}

type sarifAutomation struct {
	ID string `json:"id"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

// Compiled units have no source position, so results point at logical
// locations named by the unit, package or module.
type sarifLocation struct {
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations"`
}

type sarifLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

var sarifRules = map[string]sarifRule{
	ports.KindUnitCycle: {
		ID:               ruleIDUnitCycle,
		Name:             "UnitCycle",
		ShortDescription: sarifMessage{Text: "Top-level units depend on each other circularly."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	ports.KindPackageCycle: {
		ID:               ruleIDPackageCycle,
		Name:             "PackageCycle",
		ShortDescription: sarifMessage{Text: "Packages depend on each other circularly."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	ports.KindModuleBoundary: {
		ID:               ruleIDModuleBoundary,
		Name:             "UndeclaredDependency",
		ShortDescription: sarifMessage{Text: "A module uses a dependency it does not declare."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	ports.KindUnusedUse: {
		ID:               ruleIDUnusedUse,
		Name:             "UnusedUse",
		ShortDescription: sarifMessage{Text: "A module declares a use that matches no dependency."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
	},
	ports.KindUncovered: {
		ID:               ruleIDUncovered,
		Name:             "UncoveredUnit",
		ShortDescription: sarifMessage{Text: "A unit is not covered by any module boundary."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
	},
}

var ruleOrder = []string{
	ports.KindUnitCycle,
	ports.KindPackageCycle,
	ports.KindModuleBoundary,
	ports.KindUnusedUse,
	ports.KindUncovered,
}

// GenerateSARIF builds a SARIF v2.1.0 document from a check report. Only
// the findings backing a reported violation become results.
func GenerateSARIF(report ports.CheckReport) ([]byte, error) {
	failed := make(map[string]bool, len(report.Violations))
	for _, v := range report.Violations {
		failed[v.Kind] = true
	}

	results := make([]sarifResult, 0)
	if failed[ports.KindUnitCycle] && report.UnitCycle != nil {
		results = append(results, cycleResult(ruleIDUnitCycle, "type", report.UnitCycle))
	}
	if failed[ports.KindPackageCycle] && report.PackageCycle != nil {
		results = append(results, cycleResult(ruleIDPackageCycle, "namespace", report.PackageCycle))
	}
	for _, in := range report.Inspections {
		if failed[ports.KindModuleBoundary] {
			for _, dep := range in.Undeclared {
				results = append(results, sarifResult{
					RuleID:    ruleIDModuleBoundary,
					Level:     "error",
					Message:   sarifMessage{Text: fmt.Sprintf("Module %q uses %s without declaring it", in.Module, dep)},
					Locations: []sarifLocation{logical(in.Module, "module")},
				})
			}
		}
		if failed[ports.KindUnusedUse] {
			for _, glob := range in.Unused {
				results = append(results, sarifResult{
					RuleID:    ruleIDUnusedUse,
					Level:     "warning",
					Message:   sarifMessage{Text: fmt.Sprintf("Module %q declares use %q that matches no dependency", in.Module, glob)},
					Locations: []sarifLocation{logical(in.Module, "module")},
				})
			}
		}
	}
	if failed[ports.KindUncovered] {
		for _, name := range report.Uncovered {
			results = append(results, sarifResult{
				RuleID:    ruleIDUncovered,
				Level:     "warning",
				Message:   sarifMessage{Text: fmt.Sprintf("Unit %s is not covered by a module boundary", name)},
				Locations: []sarifLocation{logical(name, "type")},
			})
		}
	}

	rules := make([]sarifRule, 0, len(failed))
	for _, kind := range ruleOrder {
		if failed[kind] {
			rules = append(rules, sarifRules[kind])
		}
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "archcheck",
						Version: version.Version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}
	if report.RunID != "" {
		doc.Runs[0].AutomationDetails = &sarifAutomation{ID: report.Project + "/" + report.RunID}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func cycleResult(ruleID, kind string, finding *ports.CycleFinding) sarifResult {
	locations := make([]sarifLocation, 0, len(finding.Path))
	for i, name := range finding.Path {
		if i == len(finding.Path)-1 && len(finding.Path) > 1 {
			break
		}
		locations = append(locations, logical(name, kind))
	}
	return sarifResult{
		RuleID:    ruleID,
		Level:     "error",
		Message:   sarifMessage{Text: fmt.Sprintf("Dependency cycle: %s", strings.Join(finding.Path, " → "))},
		Locations: locations,
	}
}

func logical(name, kind string) sarifLocation {
	return sarifLocation{LogicalLocations: []sarifLogicalLocation{{FullyQualifiedName: name, Kind: kind}}}
}

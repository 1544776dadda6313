// Package report renders check reports, unit dumps and history trends.
package report

import (
	"bytes"
	"encoding/json"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/ui/report/formats"

	"gopkg.in/yaml.v3"
)

// Render encodes report in one of the configured output formats.
func Render(format string, report ports.CheckReport) ([]byte, error) {
	switch format {
	case config.FormatText, "":
		var buf bytes.Buffer
		if err := WriteText(&buf, report); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case config.FormatJSON:
		return marshalJSON(report)
	case config.FormatYAML:
		return marshalYAML(report)
	case config.FormatSARIF:
		return formats.GenerateSARIF(report)
	default:
		return nil, errors.Newf(errors.CodeValidationError, "unsupported output format %q", format)
	}
}

// RenderDOT draws the package graph of units with cycle highlighted.
func RenderDOT(units []classfile.UnitInfo, cycle []string) (string, error) {
	return formats.NewDOTGenerator(units).Generate(cycle)
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode json")
	}
	return append(data, '\n'), nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode yaml")
	}
	return buf.Bytes(), nil
}

// Package render encodes command results for the terminal.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats understood by the commands.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
	OutputFormatCBOR  = "cbor"
)

// Structured encodes v as indented JSON or as YAML.
func Structured(output string, v any) ([]byte, error) {
	switch output {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case OutputFormatYAML:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return JSONToYAML(data)
	default:
		return nil, fmt.Errorf("unknown output format: %q", output)
	}
}

// Table renders the rows below the header in the light style without borders.
// Columns listed in merge are auto merged.
func Table(header table.Row, rows []table.Row, merge ...int) []byte {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(header)
	t.AppendRows(rows)
	configs := make([]table.ColumnConfig, 0, len(merge))
	for _, number := range merge {
		configs = append(configs, table.ColumnConfig{Number: number, AutoMerge: true})
	}
	t.SetColumnConfigs(configs)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return buf.Bytes()
}

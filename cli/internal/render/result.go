package render

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sk31337/oca/bindings/go/validation"
)

// FileResult is the validation result of one input file.
type FileResult struct {
	File string `json:"file"`
	*validation.Result
}

// Results encodes validation results as a table, JSON or YAML.
// A table lists one row per error and a single row for every valid file.
func Results(output string, results []FileResult) ([]byte, error) {
	var data []byte
	var err error
	switch output {
	case OutputFormatTable:
		data = resultsTable(results)
	default:
		data, err = Structured(output, results)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding validation results as %q failed: %w", output, err)
	}
	return data, nil
}

func resultsTable(results []FileResult) []byte {
	rows := make([]table.Row, 0, len(results))
	for _, res := range results {
		if res.Valid {
			rows = append(rows, table.Row{res.File, "valid", "", "", "", ""})
			continue
		}
		for _, e := range res.Errors {
			rows = append(rows, table.Row{res.File, "invalid", e.Rule, e.Attribute, e.Language, e.Message})
		}
	}
	return Table(table.Row{"File", "Result", "Rule", "Attribute", "Language", "Message"}, rows, 1, 2)
}

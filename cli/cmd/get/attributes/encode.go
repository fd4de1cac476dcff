package attributes

import (
	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/sk31337/oca/cli/internal/render"
)

func table(attrs []Attribute) []byte {
	rows := make([]prettytable.Row, 0, len(attrs))
	for _, a := range attrs {
		flagged := ""
		if a.Flagged {
			flagged = "yes"
		}
		rows = append(rows, prettytable.Row{a.Name, a.Type, flagged, a.Conformance, a.Label})
	}
	return render.Table(prettytable.Row{"Name", "Type", "Flagged", "Conformance", "Label"}, rows)
}

package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func summaryDataset() Dataset {
	return Dataset{
		Columns: []Column{
			{Title: "Project"},
			{Title: "Average score", Numeric: true},
		},
		Rows: [][]string{
			{"Compiler", "7.50"},
			{"Database", ""},
		},
		Footer: "Generated 2026-08-28",
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(summaryDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Equal(t, []string{"Project,Average score", "Compiler,7.50", "Database,"}, lines)
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := summaryDataset()
	data.Rows = append(data.Rows, []string{"only one cell"})

	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(summaryDataset(), "Offering summary 2025/2026")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

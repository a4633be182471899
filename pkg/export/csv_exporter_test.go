package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"ID", "Student", "Status"},
		Rows: []map[string]string{
			{"ID": "r1", "Student": "Siti Rahma", "Status": "APPROVED"},
			{"ID": "r2", "Student": "Budi Santoso", "Status": "PENDING"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Student,Status", lines[0])
	assert.Equal(t, "r1,Siti Rahma,APPROVED", lines[1])
	assert.Equal(t, "r2,Budi Santoso,PENDING", lines[2])
}

func TestCSVExporterRenderMissingColumns(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"ID", "Grade"},
		Rows: []map[string]string{
			{"ID": "a1"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a1,", lines[1])
}

func TestCSVExporterRenderWithoutHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}

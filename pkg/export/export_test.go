package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(rows int) Dataset {
	data := Dataset{Headers: []string{"Application ID", "Amount"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{"Application ID": "app", "Amount": "100.00"})
	}
	return data
}

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Application ID", "Remarks"},
		Rows:    []map[string]string{{"Application ID": "app-1", "Remarks": "needs, review"}, {"Application ID": "app-2"}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Application ID,Remarks\napp-1,\"needs, review\"\napp-2,\n", string(out))

	semi := &CSVExporter{Comma: ';'}
	out, err = semi.Render(data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "Application ID;Remarks\n"))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "title")
	assert.Error(t, err)
}

func TestPDFExporterPaginates(t *testing.T) {
	short, err := NewPDFExporter().Render(sampleDataset(2), "Awardees")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(short), "%PDF"))

	long, err := NewPDFExporter().Render(sampleDataset(120), "Awardees")
	require.NoError(t, err)
	assert.Greater(t, len(long), len(short))
}

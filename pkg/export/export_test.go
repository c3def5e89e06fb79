package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Öğrenci", "Borç"},
		Rows: []map[string]string{
			{"Öğrenci": "Ayşe Yılmaz", "Borç": "300.00"},
			{"Öğrenci": "Mehmet Şahin", "Borç": "0.00"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := Render(FormatCSV, sampleDataset(), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Contains(t, string(out), "Öğrenci,Borç\nAyşe Yılmaz,300.00\n")
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := Render(FormatPDF, sampleDataset(), "Ekim 2026 Borç Listesi")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

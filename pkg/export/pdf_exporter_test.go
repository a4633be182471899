package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporterRenderCertificate(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.RenderCertificate(CertificateDocument{
		CertificateNumber: "PPL-2026-AAAA1111",
		StudentName:       "Siti Rahma",
		StudentNumber:     "2110501001",
		Major:             "Mathematics Education",
		LocationName:      "SMA Negeri 3 Yogyakarta",
		PeriodName:        "Odd Semester 2026/2027",
		SupervisorName:    "Dr. Andi Wijaya",
		FinalGrade:        "A",
		IssueDate:         "2026-08-15",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRenderCertificateRequiresNumber(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.RenderCertificate(CertificateDocument{StudentName: "Siti Rahma"})
	assert.Error(t, err)
}

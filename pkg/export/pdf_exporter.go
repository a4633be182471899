package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries the fields printed on a completion certificate.
type CertificateDocument struct {
	CertificateNumber string
	StudentName       string
	StudentNumber     string
	Major             string
	LocationName      string
	PeriodName        string
	SupervisorName    string
	FinalGrade        string
	IssueDate         string
}

// PDFExporter renders completion certificates as PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderCertificate creates a single-page landscape certificate document.
func (e *PDFExporter) RenderCertificate(doc CertificateDocument) ([]byte, error) {
	if doc.CertificateNumber == "" {
		return nil, fmt.Errorf("pdf requires a certificate number")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 14, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Certificate No. %s", doc.CertificateNumber), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, strings.ToUpper(doc.StudentName), "", 1, "C", false, 0, "")
	if doc.StudentNumber != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, fmt.Sprintf("Student ID %s - %s", doc.StudentNumber, doc.Major), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "has successfully completed the teaching practice program at", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, doc.LocationName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Period: %s", doc.PeriodName), "", 1, "C", false, 0, "")
	if doc.FinalGrade != "" {
		pdf.CellFormat(0, 7, fmt.Sprintf("Final Grade: %s", doc.FinalGrade), "", 1, "C", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Supervising Teacher: %s", doc.SupervisorName), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued on %s", doc.IssueDate), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

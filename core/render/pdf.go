// Package render — PDF renderer.
// Lays the price list out as one table per brand using gofpdf core fonts.
package render

import (
	"bytes"
	"fmt"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/jung-kurt/gofpdf"
)

// Column layout for the price table, in millimetres.
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Model", 70, "L"},
	{"Category", 30, "L"},
	{"Year", 15, "C"},
	{"Price (TL)", 30, "R"},
	{"cc", 15, "R"},
	{"hp", 20, "R"},
}

// PDFRenderer renders the price list as an A4 document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render writes a title block, one table per brand and the source outcomes.
// Core fonts only cover cp1252, so text goes through gofpdf's translator
// and the lira sign is spelled "TL".
func (r *PDFRenderer) Render(records []core.Record, stats *core.Stats) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, "Motorcycle price list", "", "L", false)
	if stats != nil {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, fmt.Sprintf("Run %s, %d models from %d sources",
			stats.StartedAt.UTC().Format("2006-01-02 15:04 MST"), stats.Total, len(stats.Sources)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	for _, brand := range groupByBrand(records) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 8, tr(brand.name), "", "L", false)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, col.title, "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, rec := range brand.records {
			cells := []string{
				tr(rec.Name),
				tr(string(rec.Category)),
				fmt.Sprintf("%d", rec.Year),
				core.FormatPrice(rec.Price),
				optionalInt(rec.EngineCapacity),
				optionalFloat(rec.Power),
			}
			for i, col := range pdfColumns {
				pdf.CellFormat(col.width, 5.5, cells[i], "1", 0, col.align, false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if stats != nil && len(stats.Sources) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, "Sources", "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		for _, src := range stats.Sources {
			pdf.MultiCell(0, 5, tr("- "+SourceLine(src)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

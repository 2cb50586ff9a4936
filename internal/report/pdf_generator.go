package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/letgo_analyzer_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Plot keys understood by BuildPDFReport.
const (
	PlotCurrent   = "waveform_current"
	PlotVoltage   = "waveform_voltage"
	PlotHeatmap   = "heatmap_exceedance"
	maxPDFSegRows = 200
)

// pdfStyler holds reusable styling and flow state for PDF generation.
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	tr          func(string) string
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		tr:          pdf.UnicodeTranslatorFromDescriptor(""),
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 13)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["pass"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 140, 0)
	}
	s.styles["fail"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(200, 0, 0)
	}
	s.styles["warning"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(150, 100, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(s.tr(text)), pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, s.tr(text), "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable draws a bordered table. redCols marks columns rendered with the
// tableCellRed style.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string, redCols map[int]bool) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}
	header := func() {
		x := pdfMargin
		s.applyStyle("tableHeader")
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(h), "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	header()
	for _, r := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		x := pdfMargin
		for i, cell := range r {
			if redCols[i] && cell != "-" {
				s.applyStyle("tableCellRed")
			} else {
				s.applyStyle("tableCell")
			}
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(cell), "1", 0, "C", false, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))
	if width > pdfContentWidth {
		height *= pdfContentWidth / width
		width = pdfContentWidth
	}
	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

func summaryRows(run *Run) [][]string {
	res := run.Result
	rows := [][]string{
		{"Run ID", run.ID.String()},
		{"Created", run.Created.Format("2006-01-02 15:04:05 MST")},
		{"Data file", run.DataFile},
		{"Standard version", res.Config.Version.String() + " (" + res.Config.Version.Description() + ")"},
		{"Interpretation", res.Config.Interpretation.String()},
		{"Condition", res.Config.Condition.String()},
		{"Skip time", formatSI(res.SkipTime, "s")},
		{"Minimum window", formatSI(res.MinWindow, "s")},
	}
	if run.Version != "" {
		rows = append(rows, []string{"Analyzer version", run.Version})
	}
	for _, ch := range res.Channels {
		rows = append(rows, []string{
			strings.ToUpper(string(ch.Channel[:1])) + string(ch.Channel[1:]),
			fmt.Sprintf("%d samples analyzed, %d violation intervals", ch.Samples, len(ch.Violations)),
		})
	}
	return rows
}

func segmentRows(res *analysis.Result) [][]string {
	rows := make([][]string, 0, len(res.Segments))
	for i, seg := range res.Segments {
		if i >= maxPDFSegRows {
			break
		}
		names := make([]string, len(seg.Channels))
		for j, ch := range seg.Channels {
			names[j] = string(ch)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSI(seg.Start, "s"),
			formatSI(seg.End, "s"),
			formatSI(seg.Duration(), "s"),
			strings.Join(names, ", "),
			excessText(seg.PeakCurrentExcess, analysis.Current),
			excessText(seg.PeakVoltageExcess, analysis.Voltage),
		})
	}
	return rows
}

func compliantRows(res *analysis.Result) [][]string {
	rows := make([][]string, 0, len(res.Compliant))
	for i, r := range res.Compliant {
		if i >= maxPDFSegRows {
			break
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSI(r.Start, "s"),
			formatSI(r.End, "s"),
			formatSI(r.Duration(), "s"),
		})
	}
	return rows
}

// WritePDF renders the report for run to w. plots maps the Plot* keys to PNG
// images; missing plots are noted in the document.
func WritePDF(w io.Writer, run *Run, plots map[string][]byte) error {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	res := run.Result

	styler.writeParagraph("UL 1400-1 Let-Go Analysis Report", "h1", "C")
	styler.addSpacer(3)

	verdict := "Verdict: " + string(res.Verdict)
	if !res.Analyzed {
		verdict += " (no samples at or after the skip time)"
	}
	if res.Verdict == analysis.Pass {
		styler.writeParagraph(verdict, "pass", "L")
	} else {
		styler.writeParagraph(verdict, "fail", "L")
	}
	styler.addSpacer(2)

	styler.writeTable([]string{"Item", "Value"}, []float64{0.25, 0.75}, summaryRows(run), nil)
	styler.addSpacer(4)

	for _, note := range run.Warnings {
		styler.writeParagraph("Warning: "+note, "warning", "L")
	}
	styler.addSpacer(2)

	styler.writeParagraph("Violation Segments", "h2", "L")
	if len(res.Segments) > 0 {
		styler.writeTable(
			[]string{"#", "Start", "End", "Duration", "Channels", "Peak current excess", "Peak voltage excess"},
			[]float64{0.06, 0.14, 0.14, 0.14, 0.16, 0.18, 0.18},
			segmentRows(res),
			map[int]bool{5: true, 6: true},
		)
		if len(res.Segments) > maxPDFSegRows {
			styler.writeParagraph(fmt.Sprintf("%d further segments omitted; see the JSON report.", len(res.Segments)-maxPDFSegRows), "normal", "L")
		}
	} else {
		styler.writeParagraph("No violation segments.", "normal", "L")
	}

	if res.Analyzed {
		styler.addSpacer(4)
		styler.writeParagraph(compliantHeading(res), "h2", "L")
		if len(res.Compliant) > 0 {
			styler.writeTable(
				[]string{"#", "Start", "End", "Duration"},
				[]float64{0.1, 0.3, 0.3, 0.3},
				compliantRows(res),
				nil,
			)
			if len(res.Compliant) > maxPDFSegRows {
				styler.writeParagraph(fmt.Sprintf("%d further regions omitted; see the JSON report.", len(res.Compliant)-maxPDFSegRows), "normal", "L")
			}
		} else {
			styler.writeParagraph(noCompliantText+".", "normal", "L")
		}
	}

	plotDefs := []struct {
		Key     string
		Title   string
		Caption string
		Aspect  float64
	}{
		{PlotCurrent, "Current Waveform", "Current with the limit in force and violation intervals shaded", 0.5},
		{PlotVoltage, "Voltage Waveform", "Voltage with the limit in force and violation intervals shaded", 0.5},
		{PlotHeatmap, "Exceedance Heatmap", "Peak value relative to the limit per time bin; above 1 is a violation", 0.3},
	}
	styler.newPage()
	styler.writeParagraph("Graphical Analysis", "h1", "C")
	styler.addSpacer(3)
	imgWidth := pdfContentWidth * 0.9
	for _, pDef := range plotDefs {
		imgBytes, ok := plots[pDef.Key]
		if !ok || len(imgBytes) == 0 {
			continue
		}
		styler.writeParagraph(pDef.Title, "h2", "L")
		styler.addImage(imgBytes, pDef.Key, imgWidth, imgWidth*pDef.Aspect, pDef.Caption)
	}
	if len(plots) == 0 {
		styler.writeParagraph("No plots available.", "normal", "L")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// BuildPDFReport writes the PDF report for run to filepath.
func BuildPDFReport(filepath string, run *Run, plots map[string][]byte) error {
	var buf bytes.Buffer
	if err := WritePDF(&buf, run, plots); err != nil {
		return err
	}
	if err := os.WriteFile(filepath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// Package pdf renders a generated diet plan as a formatted A4 document:
// a health-summary table followed by the plan sections extracted from the
// model's structured output.
package pdf

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Summary is the metric header printed above the plan sections.
type Summary struct {
	BMR           int
	BMI           float64
	BMICategory   string
	DailyCalories int
	GeneratedAt   time.Time
}

// Plan sections in render order. Each is delimited by its own heading and
// the heading of the section that follows it in the mandatory format.
var sections = []struct {
	title string
	start string
	end   string
}{
	{"Clinical Assessment", "CLINICAL ASSESSMENT:", "PERSONALIZED MACRONUTRIENT PLAN:"},
	{"Macronutrient Plan", "PERSONALIZED MACRONUTRIENT PLAN:", "DAILY MEAL PLAN"},
	{"Daily Meal Plan", "DAILY MEAL PLAN", "FOODS TO STRICTLY AVOID:"},
	{"Foods to Avoid", "FOODS TO STRICTLY AVOID:", "THERAPEUTIC FOODS TO EMPHASIZE:"},
	{"Therapeutic Foods", "THERAPEUTIC FOODS TO EMPHASIZE:", "MEAL TIMING STRATEGY:"},
}

const (
	disclaimerStart = "IMPORTANT MEDICAL DISCLAIMERS:"
	disclaimerEnd   = "==========="
)

// Render writes the PDF document for a plan. Sections absent from the plan
// text are skipped rather than rendered empty.
func Render(w io.Writer, planText string, s Summary) error {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(25, 25, 25)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 24)
	doc.SetTextColor(37, 99, 235)
	doc.CellFormat(0, 12, "Halo Health Eats", "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "B", 14)
	doc.SetTextColor(0, 0, 0)
	doc.CellFormat(0, 10, "Personalized AI Diet Plan", "", 1, "C", false, 0, "")
	doc.Ln(6)

	renderSummaryTable(doc, s)
	doc.Ln(8)

	for _, sec := range sections {
		text, ok := extractSection(planText, sec.start, sec.end)
		if !ok || text == "" {
			continue
		}
		renderSection(doc, tr, sec.title, text)
	}

	if text, ok := extractSection(planText, disclaimerStart, disclaimerEnd); ok && text != "" {
		doc.Ln(4)
		renderSection(doc, tr, "Important Medical Disclaimers", text)
	}

	return doc.Output(w)
}

func renderSummaryTable(doc *fpdf.Fpdf, s Summary) {
	const colWidth = 80.0

	doc.SetFont("Helvetica", "B", 12)
	doc.SetFillColor(59, 130, 246)
	doc.SetTextColor(255, 255, 255)
	doc.CellFormat(colWidth*2, 9, "Health Summary", "1", 1, "L", true, 0, "")

	doc.SetFont("Helvetica", "", 11)
	doc.SetFillColor(248, 250, 252)
	doc.SetTextColor(0, 0, 0)

	rows := [][2]string{
		{"BMR (calories/day)", fmt.Sprintf("%d", s.BMR)},
		{"BMI", fmt.Sprintf("%.1f (%s)", s.BMI, s.BMICategory)},
		{"Target Calories/day", fmt.Sprintf("%d", s.DailyCalories)},
		{"Generated On", s.GeneratedAt.Format("January 2, 2006 at 3:04 PM")},
	}
	for _, row := range rows {
		doc.CellFormat(colWidth, 8, row[0], "1", 0, "L", true, 0, "")
		doc.CellFormat(colWidth, 8, row[1], "1", 1, "L", true, 0, "")
	}
}

func renderSection(doc *fpdf.Fpdf, tr func(string) string, title, text string) {
	doc.SetFont("Helvetica", "B", 16)
	doc.SetTextColor(30, 64, 175)
	doc.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(0, 0, 0)
	doc.MultiCell(0, 6, tr(cleanText(text)), "", "L", false)
	doc.Ln(5)
}

// extractSection returns the text between two markers. A missing start
// marker reports false; a missing end marker yields everything after the
// start marker.
func extractSection(text, start, end string) (string, bool) {
	i := strings.Index(text, start)
	if i == -1 {
		return "", false
	}
	rest := text[i+len(start):]

	if j := strings.Index(rest, end); j != -1 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest), true
}

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	runsOfWS   = regexp.MustCompile(`[ \t]+`)
	bullets    = regexp.MustCompile("[•·‣⁃]")
)

// cleanText normalizes model output for the PDF core fonts: collapsed blank
// lines and whitespace runs, unicode bullets replaced with hyphens, and
// markdown emphasis markers dropped.
func cleanText(text string) string {
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = runsOfWS.ReplaceAllString(text, " ")
	text = bullets.ReplaceAllString(text, "-")
	text = strings.ReplaceAll(text, "**", "")
	return strings.TrimSpace(text)
}

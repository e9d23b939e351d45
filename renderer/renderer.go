// Package renderer turns a pricelog.Report into markdown, and an aligned
// series into a spreadsheet.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// ReportOptions holds configuration for rendering a report.
type ReportOptions struct {
	SkipIndicators bool // Do not render the technical indicators section.
	SkipMonthly    bool // Do not render the anchored periods table.
}

// RenderReport renders the Report struct to a markdown string.
func RenderReport(r *Report, opts ReportOptions) string {
	partials := map[string]string{
		"report_title":     "report_title.md",
		"report_summary":   "report_summary.md",
		"report_trailing":  "report_trailing.md",
		"report_positions": "report_positions.md",
		"report_since":     "report_since.md",
		"report_benchmark": "report_benchmark.md",
		"report_issues":    "report_issues.md",
	}
	// An empty file name results in an empty template.
	partials["report_periods"] = ""
	if !opts.SkipMonthly {
		partials["report_periods"] = "report_periods.md"
	}
	partials["report_indicators"] = ""
	if !opts.SkipIndicators {
		partials["report_indicators"] = "report_indicators.md"
	}
	return renderTemplate("report", "report.md", partials, r)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, "templates/"+file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

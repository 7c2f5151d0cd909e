package validation

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLReport summarizes what a browser would need to fetch to render a document
type HTMLReport struct {
	Title               string   `json:"title"`
	HasBody             bool     `json:"has_body"`
	ExternalStylesheets []string `json:"external_stylesheets,omitempty"`
	ExternalScripts     []string `json:"external_scripts,omitempty"`
	ExternalImages      []string `json:"external_images,omitempty"`
	CSSImports          int      `json:"css_imports,omitempty"`
}

// SelfContained reports whether the document renders without fetching
// stylesheets or scripts. Remote images are allowed.
func (r *HTMLReport) SelfContained() bool {
	return len(r.ExternalStylesheets) == 0 && len(r.ExternalScripts) == 0 && r.CSSImports == 0
}

// InspectHTML parses html and lists its external resource references
func InspectHTML(html string) (*HTMLReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{Message: "failed to parse HTML", Cause: err}
	}

	report := &HTMLReport{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		HasBody: strings.TrimSpace(doc.Find("body").Text()) != "" || doc.Find("body").Children().Length() > 0,
	}

	doc.Find(`link[href]`).Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if strings.Contains(rel, "stylesheet") || strings.Contains(rel, "preload") {
			report.ExternalStylesheets = append(report.ExternalStylesheets, s.AttrOr("href", ""))
		}
	})
	doc.Find(`script[src]`).Each(func(_ int, s *goquery.Selection) {
		report.ExternalScripts = append(report.ExternalScripts, s.AttrOr("src", ""))
	})
	doc.Find(`img[src]`).Each(func(_ int, s *goquery.Selection) {
		if src := s.AttrOr("src", ""); isRemote(src) {
			report.ExternalImages = append(report.ExternalImages, src)
		}
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		report.CSSImports += strings.Count(strings.ToLower(s.Text()), "@import")
	})

	return report, nil
}

func isRemote(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "//")
}

package rendering

import (
	"embed"
	"html/template"
	"strings"

	"github.com/jonathan/cv-builder/internal/types"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var layouts = template.Must(template.New("cv").ParseFS(templateFS, "templates/*.gohtml"))

// View is the data passed to every layout. All user text stays plain string
// so html/template escapes it; only Theme and AvatarURL are pre-trusted.
type View struct {
	TemplateID    string
	DocumentTitle string
	FullName      string
	Email         string
	Phone         string
	Location      string
	Contact       []string
	SummaryLines  []string
	AvatarURL     template.URL
	HasAvatar     bool
	Experiences   []ExperienceView
	Educations    []EducationView
	Skills        []string
	Theme         Theme
}

// ExperienceView is one experience entry prepared for display
type ExperienceView struct {
	Company  string
	Position string
	Dates    string
	Lines    []string
}

// EducationView is one education entry prepared for display
type EducationView struct {
	School string
	Degree string
	Field  string
	Dates  string
}

// Render renders doc with the layout registered under templateID, using the
// document's own color theme. Unknown ids fail with TemplateNotFoundError;
// unknown themes fall back to DefaultThemeKey.
func Render(doc *types.CVDocument, templateID string) (string, error) {
	var token string
	if doc != nil {
		token = doc.ColorTheme
	}
	theme, _ := ResolveTheme(token)
	return RenderWithTheme(doc, templateID, theme)
}

// RenderWithTheme renders doc with an explicit theme, ignoring doc.ColorTheme
func RenderWithTheme(doc *types.CVDocument, templateID string, theme Theme) (string, error) {
	render, err := Lookup(templateID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", &RenderError{Message: "document is nil"}
	}
	return render(doc, theme)
}

// layout returns a RenderFunc executing the named template
func layout(name string) RenderFunc {
	return func(doc *types.CVDocument, theme Theme) (string, error) {
		view := BuildView(doc, theme)

		var out strings.Builder
		if err := layouts.ExecuteTemplate(&out, name, view); err != nil {
			return "", &TemplateError{
				Message: "failed to execute template " + name,
				Cause:   err,
			}
		}
		return out.String(), nil
	}
}

// BuildView prepares doc for display without altering entry order
func BuildView(doc *types.CVDocument, theme Theme) *View {
	info := doc.PersonalInfo

	view := &View{
		TemplateID:    doc.TemplateID,
		DocumentTitle: documentTitle(doc),
		FullName:      strings.TrimSpace(info.FullName),
		Email:         strings.TrimSpace(info.Email),
		Phone:         strings.TrimSpace(info.Phone),
		Location:      strings.TrimSpace(info.Location),
		SummaryLines:  SplitLines(info.Summary),
		Skills:        nonEmpty(doc.Skills),
		Theme:         theme,
	}
	view.Contact = nonEmpty([]string{view.Email, view.Phone, view.Location})
	view.AvatarURL, view.HasAvatar = SafeImageURL(info.Avatar)

	view.Experiences = make([]ExperienceView, 0, len(doc.Experiences))
	for _, exp := range doc.Experiences {
		view.Experiences = append(view.Experiences, ExperienceView{
			Company:  strings.TrimSpace(exp.Company),
			Position: strings.TrimSpace(exp.Position),
			Dates:    FormatDateRange(exp.StartDate, exp.EndDate),
			Lines:    SplitLines(exp.Description),
		})
	}

	view.Educations = make([]EducationView, 0, len(doc.Educations))
	for _, edu := range doc.Educations {
		view.Educations = append(view.Educations, EducationView{
			School: strings.TrimSpace(edu.School),
			Degree: strings.TrimSpace(edu.Degree),
			Field:  strings.TrimSpace(edu.Field),
			Dates:  FormatDateRange(edu.StartDate, edu.EndDate),
		})
	}

	return view
}

func documentTitle(doc *types.CVDocument) string {
	if t := strings.TrimSpace(doc.Title); t != "" {
		return t
	}
	if n := strings.TrimSpace(doc.PersonalInfo.FullName); n != "" {
		return n + " – CV"
	}
	return "CV"
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package rendering

import (
	"html/template"
	"net/url"
	"regexp"
	"strings"
)

// dataImage matches inline base64 images; anything else in a data: URL is rejected
var dataImage = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp);base64,[A-Za-z0-9+/]+=*$`)

// SafeImageURL converts a user-supplied avatar reference into a URL html/template
// will emit unfiltered. Only inline base64 images and absolute http(s) URLs pass;
// everything else returns ok=false and the avatar is omitted.
func SafeImageURL(raw string) (u template.URL, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if strings.HasPrefix(strings.ToLower(raw), "data:") {
		if !dataImage.MatchString(raw) {
			return "", false
		}
		return template.URL(raw), true
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	return template.URL(parsed.String()), true
}

// SplitLines breaks free text into non-empty trimmed lines so templates can
// render paragraph breaks without emitting raw markup
func SplitLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// FormatDateRange joins start and end dates for display. A missing end date on
// an entry that has a start date reads as "Present".
func FormatDateRange(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		return end
	case end == "":
		return start + " – Present"
	default:
		return start + " – " + end
	}
}

package rendering

import (
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultThemeKey is applied when a document's color theme is absent or unrecognized
const DefaultThemeKey = "blue"

// palettes maps named theme keys to their accent color
var palettes = map[string]string{
	"blue":   "#2563eb",
	"green":  "#16a34a",
	"orange": "#ea580c",
	"purple": "#7c3aed",
	"red":    "#dc2626",
	"slate":  "#475569",
	"teal":   "#0d9488",
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Theme is the set of colors substituted into a template's stylesheet.
// Values are pre-validated hex colors, safe to embed in CSS.
type Theme struct {
	Key        string
	Accent     template.CSS
	AccentSoft template.CSS // light tint for backgrounds
	AccentDark template.CSS // dark shade for headings
	Text       template.CSS
	Muted      template.CSS
}

// ResolveTheme maps a theme token (palette key or #rgb/#rrggbb hex) to a Theme.
// Unrecognized tokens resolve to the default theme; ok reports whether token was recognized.
func ResolveTheme(token string) (theme Theme, ok bool) {
	key := strings.ToLower(strings.TrimSpace(token))

	if accent, found := palettes[key]; found {
		return buildTheme(key, accent), true
	}
	if hexColor.MatchString(key) {
		normalized := expandHex(key)
		return buildTheme(normalized, normalized), true
	}

	return buildTheme(DefaultThemeKey, palettes[DefaultThemeKey]), false
}

// ThemeKeys lists the named palettes in sorted order
func ThemeKeys() []string {
	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildTheme(key, accent string) Theme {
	r, g, b := parseHex(accent)
	return Theme{
		Key:        key,
		Accent:     template.CSS(accent),
		AccentSoft: template.CSS(formatHex(mix(r, 255, 0.88), mix(g, 255, 0.88), mix(b, 255, 0.88))),
		AccentDark: template.CSS(formatHex(mix(r, 0, 0.35), mix(g, 0, 0.35), mix(b, 0, 0.35))),
		Text:       "#1f2937",
		Muted:      "#6b7280",
	}
}

// expandHex turns #abc into #aabbcc; 6-digit input is returned lowercased
func expandHex(hex string) string {
	hex = strings.ToLower(hex)
	if len(hex) == 4 {
		return "#" + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2) + strings.Repeat(hex[3:4], 2)
	}
	return hex
}

func parseHex(hex string) (r, g, b int) {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// mix moves channel c toward target by weight (0..1), rounding to nearest
func mix(c, target int, weight float64) int {
	return int(float64(c) + (float64(target)-float64(c))*weight + 0.5)
}

func formatHex(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

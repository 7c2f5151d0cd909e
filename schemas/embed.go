// Package schemas holds the JSON Schemas for the payloads the API accepts.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names
const (
	CVDocument    = "cv.schema.json"
	Suggestion    = "suggestion.schema.json"
	ExportRequest = "export_request.schema.json"
)

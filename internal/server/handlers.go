package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cv-builder/internal/editing"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/parsing"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/server/middleware"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/jonathan/cv-builder/internal/validation"
)

// HeaderPDFPages carries the page count of an exported PDF
const HeaderPDFPages = "X-PDF-Pages"

// TemplatesResponse lists the layouts and color themes a CV can use
type TemplatesResponse struct {
	Templates       []rendering.TemplateInfo `json:"templates"`
	Themes          []string                 `json:"themes"`
	DefaultTemplate string                   `json:"default_template"`
	DefaultTheme    string                   `json:"default_theme"`
}

type parseRequest struct {
	Suggestion json.RawMessage `json:"suggestion"`
}

// ParseResponse is the edit a suggestion would make
type ParseResponse struct {
	SuggestionID string           `json:"suggestion_id,omitempty"`
	Edit         types.ParsedEdit `json:"edit"`
}

type applyRequest struct {
	CV         json.RawMessage `json:"cv"`
	Suggestion json.RawMessage `json:"suggestion"`
	EntryIndex *int            `json:"entry_index,omitempty"`
	Mode       types.Mode      `json:"mode,omitempty"`
}

// ApplyResponse reports the result of applying one suggestion
type ApplyResponse struct {
	CV             *types.CVDocument `json:"cv"`
	Suggestion     types.Suggestion  `json:"suggestion"`
	Edit           types.ParsedEdit  `json:"edit"`
	Mode           types.Mode        `json:"mode"`
	Applied        bool              `json:"applied"`
	Changed        bool              `json:"changed"`
	AlreadyApplied bool              `json:"already_applied"`
	NeedsSave      bool              `json:"needs_save"`
}

type renderRequest struct {
	CV         json.RawMessage `json:"cv"`
	TemplateID string          `json:"template_id,omitempty"`
	Filename   string          `json:"filename,omitempty"`
}

// handleTemplates lists registered templates and theme keys
func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, TemplatesResponse{
		Templates:       rendering.Templates(),
		Themes:          rendering.ThemeKeys(),
		DefaultTemplate: s.cfg.DefaultTemplate,
		DefaultTheme:    s.cfg.DefaultTheme,
	})
}

// handleParseSuggestion returns the edit a suggestion parses to, without applying it
func (s *Server) handleParseSuggestion(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	suggestion, err := decodeSuggestion(req.Suggestion)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, ParseResponse{
		SuggestionID: suggestion.ID,
		Edit:         parsing.ParseSuggestion(*suggestion),
	})
}

// handleApplySuggestion parses a suggestion and merges it into the supplied CV
func (s *Server) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	doc, err := decodeCV(req.CV)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	suggestion, err := decodeSuggestion(req.Suggestion)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = types.ModeCreate
	}
	if !mode.Valid() {
		s.errorResponse(w, r, &ErrValidation{Field: "mode", Message: fmt.Sprintf("must be %q or %q", types.ModeCreate, types.ModeUpdate)})
		return
	}
	if mode == types.ModeUpdate && strings.TrimSpace(doc.ID) == "" {
		s.errorResponse(w, r, &ErrValidation{Field: "cv.id", Message: "is required in update mode"})
		return
	}

	target := editing.NoEntry(mode)
	if req.EntryIndex != nil {
		if *req.EntryIndex < 0 || *req.EntryIndex >= len(doc.Experiences) {
			s.errorResponse(w, r, &ErrValidation{Field: "entry_index", Message: fmt.Sprintf("out of range for %d experience entries", len(doc.Experiences))})
			return
		}
		target = editing.Entry(mode, *req.EntryIndex)
	}

	out := editing.ApplySuggestion(doc, *suggestion, target)

	s.logger.Debug("suggestion applied",
		"suggestion_id", out.Suggestion.ID,
		"section", out.Suggestion.TargetSection,
		"edit", out.Edit.Kind,
		"changed", out.Changed,
		"request_id", middleware.GetRequestID(r),
	)

	s.jsonResponse(w, http.StatusOK, ApplyResponse{
		CV:             out.Document,
		Suggestion:     out.Suggestion,
		Edit:           out.Edit,
		Mode:           mode,
		Applied:        out.Applied,
		Changed:        out.Changed,
		AlreadyApplied: out.AlreadyApplied,
		NeedsSave:      out.NeedsSave,
	})
}

// handleRender returns the CV as a self-contained HTML document
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	doc, err := decodeCV(req.CV)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	html, err := s.renderDocument(doc, req.TemplateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(html)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

// handleExportPDF converts caller-supplied HTML to PDF
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	// rejects a missing or non-string html before any browser is launched
	if err := schemas.ValidateExportRequest(body); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req types.ExportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "html", Message: err.Error()})
		return
	}

	report, err := validation.InspectHTML(req.HTML)
	s.logHTMLReport(r, report, err)

	s.exportAndWrite(w, r, req.HTML, req.ResolvedFilename())
}

// logHTMLReport records caller HTML that is not self-contained. Inspection is
// advisory, so a failure is only logged.
func (s *Server) logHTMLReport(r *http.Request, report *validation.HTMLReport, err error) {
	requestID := middleware.GetRequestID(r)
	if err != nil {
		s.logger.Debug("could not inspect export html", "error", err, "request_id", requestID)
		return
	}
	if !report.SelfContained() {
		s.logger.Warn("export html references external resources",
			"stylesheets", len(report.ExternalStylesheets),
			"scripts", len(report.ExternalScripts),
			"css_imports", report.CSSImports,
			"request_id", requestID,
		)
	}
}

// handleExportCV renders a CV and converts it to PDF in one call
func (s *Server) handleExportCV(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	doc, err := decodeCV(req.CV)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	html, err := s.renderDocument(doc, req.TemplateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	exportReq := types.ExportRequest{HTML: html, Filename: req.Filename}
	if err := exportReq.Validate(); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "filename", Message: err.Error()})
		return
	}

	s.exportAndWrite(w, r, html, exportReq.ResolvedFilename())
}

func (s *Server) exportAndWrite(w http.ResponseWriter, r *http.Request, html, filename string) {
	if s.exporter == nil {
		s.errorResponse(w, r, &export.RenderFailureError{Phase: export.PhaseLaunch, Message: "pdf export is not configured"})
		return
	}

	result, err := s.exporter.Export(r.Context(), html)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.Header().Set("Content-Length", strconv.Itoa(result.ContentLength))
	if pages, err := validation.CountPDFPages(result.Data); err == nil {
		w.Header().Set(HeaderPDFPages, strconv.Itoa(pages))
	} else {
		s.logger.Debug("could not count pdf pages", "error", err)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		s.logger.Warn("failed to write pdf response", "error", err)
		return
	}

	s.logger.Info("pdf exported",
		"filename", filename,
		"bytes", result.ContentLength,
		"duration", result.Duration,
		"request_id", middleware.GetRequestID(r),
	)
}

// renderDocument resolves the template, rejects invalid documents and renders.
// An explicit templateID overrides the document's own.
func (s *Server) renderDocument(doc *types.CVDocument, templateID string) (string, error) {
	id := firstNonEmpty(templateID, doc.TemplateID, s.cfg.DefaultTemplate)
	if _, err := rendering.Lookup(id); err != nil {
		return "", err
	}

	check := *doc
	check.TemplateID = id
	if violations := validation.ValidateDocument(&check); violations.HasErrors() {
		return "", &ErrInvalidDocument{Violations: violations.Errors()}
	}

	return rendering.RenderWithTheme(doc, id, s.theme(doc.ColorTheme))
}

// theme resolves the document's theme token, falling back to the configured default
func (s *Server) theme(token string) rendering.Theme {
	if theme, ok := rendering.ResolveTheme(token); ok {
		return theme
	}
	theme, _ := rendering.ResolveTheme(s.cfg.DefaultTheme)
	return theme
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ErrValidation{Field: "body", Message: "request body is empty"}
	}
	return data, nil
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ErrValidation{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

func decodeCV(raw json.RawMessage) (*types.CVDocument, error) {
	if isAbsent(raw) {
		return nil, &ErrValidation{Field: "cv", Message: "is required"}
	}
	if err := schemas.ValidateCVDocument(raw); err != nil {
		return nil, err
	}

	var doc types.CVDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ErrValidation{Field: "cv", Message: err.Error()}
	}
	return &doc, nil
}

// decodeSuggestion validates and decodes a suggestion, assigning an id when
// the producer did not supply one
func decodeSuggestion(raw json.RawMessage) (*types.Suggestion, error) {
	if isAbsent(raw) {
		return nil, &ErrValidation{Field: "suggestion", Message: "is required"}
	}
	if err := schemas.ValidateSuggestion(raw); err != nil {
		return nil, err
	}

	var suggestion types.Suggestion
	if err := json.Unmarshal(raw, &suggestion); err != nil {
		return nil, &ErrValidation{Field: "suggestion", Message: err.Error()}
	}
	if err := suggestion.Validate(); err != nil {
		return nil, &ErrValidation{Field: "suggestion", Message: err.Error()}
	}
	if strings.TrimSpace(suggestion.ID) == "" {
		suggestion.ID = uuid.NewString()
	}
	return &suggestion, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// contentDisposition builds an attachment header with a URL-encoded filename
func contentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

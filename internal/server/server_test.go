package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/server/middleware"
	"github.com/jonathan/cv-builder/internal/server/ratelimit"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakePDF = "%PDF-1.7\n% fake body\n%%EOF"

// fakeExporter records the HTML handed to it
type fakeExporter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeExporter) Export(_ context.Context, html string) (*export.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, html)
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(html) == "" {
		return nil, &export.InvalidInputError{Message: "html is required"}
	}
	return &export.Result{
		Data:          []byte(fakePDF),
		ContentType:   export.ContentTypePDF,
		ContentLength: len(fakePDF),
		Duration:      time.Millisecond,
	}, nil
}

func (f *fakeExporter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(exporter PDFExporter) *Server {
	return New(Config{
		Logger:    quietLogger(),
		RateLimit: &ratelimit.Config{Enabled: false},
	}, exporter)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleCV() map[string]any {
	return map[string]any{
		"id":    "cv-42",
		"title": "Ada Lovelace CV",
		"personal_info": map[string]any{
			"full_name": "Ada Lovelace",
			"summary":   "Experienced developer.",
		},
		"experiences": []map[string]any{
			{"company": "Analytical Engines", "position": "Engineer", "description": "Wrote programs."},
		},
		"educations": []map[string]any{
			{"school": "University of London"},
		},
		"skills":      []string{"React"},
		"template_id": "template-1",
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleTemplates(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TemplatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Templates, 3)
	assert.Contains(t, resp.Themes, "blue")
	assert.Equal(t, "template-1", resp.DefaultTemplate)
	assert.Equal(t, "blue", resp.DefaultTheme)
}

func TestHandleParseSuggestion(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/suggestions/parse", map[string]any{
		"suggestion": map[string]any{
			"id":             "s-1",
			"target_section": "summary",
			"raw_text":       "Before: 'Experienced developer.'\nAfter: 'Software Developer with 5+ years experience.'",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SuggestionID)
	assert.Equal(t, types.EditReplaceText, resp.Edit.Kind)
	assert.Equal(t, "Software Developer with 5+ years experience.", resp.Edit.NewValue)
	assert.Equal(t, "Experienced developer.", resp.Edit.Before)
}

func TestHandleParseSuggestion_Invalid(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	tests := []struct {
		name string
		body any
	}{
		{"empty body", ""},
		{"malformed json", "{"},
		{"missing suggestion", map[string]any{}},
		{"missing section", map[string]any{"suggestion": map[string]any{"raw_text": "x"}}},
		{"wrong type", map[string]any{"suggestion": map[string]any{"target_section": "summary", "raw_text": 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/suggestions/parse", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CodeInvalidRequest, decodeError(t, rec).Error)
		})
	}
}

func TestHandleApplySuggestion_ReplacesSummary(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/suggestions/apply", map[string]any{
		"cv": sampleCV(),
		"suggestion": map[string]any{
			"id":             "s-1",
			"kind":           "enhancement_tip",
			"target_section": "summary",
			"raw_text":       "Before: 'Experienced developer.'\nAfter: 'Software Developer with 5+ years experience.'",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Software Developer with 5+ years experience.", resp.CV.PersonalInfo.Summary)
	assert.True(t, resp.Applied)
	assert.True(t, resp.Changed)
	assert.True(t, resp.Suggestion.Applied)
	assert.Equal(t, types.ModeCreate, resp.Mode)
	assert.False(t, resp.NeedsSave)
}

func TestHandleApplySuggestion_MergesSkills(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/suggestions/apply", map[string]any{
		"cv": sampleCV(),
		"suggestion": map[string]any{
			"target_section": "skills",
			"raw_text":       "Technical Skills: JavaScript, React, Node.js. Soft Skills: Leadership, Mentoring.",
		},
		"mode": "update",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"React", "JavaScript", "Node.js", "Leadership", "Mentoring"}, resp.CV.Skills)
	assert.True(t, resp.NeedsSave)

	_, err := uuid.Parse(resp.Suggestion.ID)
	assert.NoError(t, err, "missing suggestion id is assigned")
}

func TestHandleApplySuggestion_ExperienceEntry(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/suggestions/apply", map[string]any{
		"cv":          sampleCV(),
		"suggestion":  map[string]any{"target_section": "experience", "raw_text": "After: 'Built the first program.'"},
		"entry_index": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Built the first program.", resp.CV.Experiences[0].Description)
	assert.Equal(t, "Analytical Engines", resp.CV.Experiences[0].Company)
}

func TestHandleApplySuggestion_NoOpLeavesSuggestionUnapplied(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/suggestions/apply", map[string]any{
		"cv":         sampleCV(),
		"suggestion": map[string]any{"id": "s-9", "target_section": "skills", "raw_text": "Your skills section would benefit from more cloud experience."},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.EditNoOp, resp.Edit.Kind)
	assert.False(t, resp.Applied)
	assert.False(t, resp.Suggestion.Applied)
	assert.Equal(t, []string{"React"}, resp.CV.Skills)
}

func TestHandleApplySuggestion_AlreadyApplied(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/suggestions/apply", map[string]any{
		"cv":         sampleCV(),
		"suggestion": map[string]any{"id": "s-2", "target_section": "summary", "raw_text": "After: 'x'", "applied": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AlreadyApplied)
	assert.Equal(t, "Experienced developer.", resp.CV.PersonalInfo.Summary)
}

func TestHandleApplySuggestion_RequestErrors(t *testing.T) {
	s := newTestServer(&fakeExporter{})
	suggestion := map[string]any{"target_section": "summary", "raw_text": "After: 'x'"}

	noID := sampleCV()
	delete(noID, "id")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing cv", map[string]any{"suggestion": suggestion}},
		{"bad mode", map[string]any{"cv": sampleCV(), "suggestion": suggestion, "mode": "merge"}},
		{"update without id", map[string]any{"cv": noID, "suggestion": suggestion, "mode": "update"}},
		{"entry out of range", map[string]any{"cv": sampleCV(), "suggestion": suggestion, "entry_index": 5}},
		{"cv schema", map[string]any{"cv": map[string]any{"personal_info": "nope"}, "suggestion": suggestion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/suggestions/apply", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleRender(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/render", map[string]any{"cv": sampleCV()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
	assert.Contains(t, rec.Body.String(), "template-classic")
}

func TestHandleRender_TemplateOverride(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/render", map[string]any{"cv": sampleCV(), "template_id": "template-3"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), "template-minimal")
}

func TestHandleRender_UnknownTemplate(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/render", map[string]any{"cv": sampleCV(), "template_id": "template-9"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeTemplateNotFound, decodeError(t, rec).Error)
}

func TestHandleRender_InvalidDocument(t *testing.T) {
	s := newTestServer(&fakeExporter{})
	cv := sampleCV()
	cv["skills"] = []string{"Go", "Go"}

	rec := do(t, s, http.MethodPost, "/render", map[string]any{"cv": cv})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, CodeInvalidDocument, body.Error)
	assert.Contains(t, body.Message, "more than once")
	assert.NotNil(t, body.Details)
}

func TestHandleExportPDF_DefaultFilename(t *testing.T) {
	exporter := &fakeExporter{}
	s := newTestServer(exporter)

	rec := do(t, s, http.MethodPost, "/export/pdf", map[string]any{
		"html": "<!DOCTYPE html><html><body><p>One page</p></body></html>",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="CV.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "26", rec.Header().Get("Content-Length"))
	assert.Equal(t, fakePDF, rec.Body.String())
	assert.Equal(t, 1, exporter.callCount())
}

func TestHandleExportPDF_EncodesFilename(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/export/pdf", map[string]any{
		"html":     "<p>x</p>",
		"filename": `My "Best" CV.pdf`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, `attachment; filename="My%20%22Best%22%20CV.pdf"`, rec.Header().Get("Content-Disposition"))
}

func TestHandleExportPDF_RejectsBeforeLaunch(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing html", map[string]any{"filename": "a.pdf"}},
		{"number html", map[string]any{"html": 42}},
		{"object html", map[string]any{"html": map[string]any{"a": 1}}},
		{"empty html", map[string]any{"html": ""}},
		{"not json", "html=<p>x</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := &fakeExporter{}
			s := newTestServer(exporter)

			rec := do(t, s, http.MethodPost, "/export/pdf", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, 0, exporter.callCount(), "no browser for malformed input")
		})
	}
}

func TestHandleExportPDF_BlankHTMLIsInvalidInput(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/export/pdf", map[string]any{"html": "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidInput, decodeError(t, rec).Error)
}

func TestHandleExportPDF_RenderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"timeout", &export.RenderTimeoutError{Phase: export.PhaseFonts, Timeout: 30 * time.Second, Cause: context.DeadlineExceeded}, CodeRenderTimeout},
		{"failure", &export.RenderFailureError{Phase: export.PhaseLoad, Message: "navigation failed"}, CodeRenderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeExporter{err: tt.err})

			rec := do(t, s, http.MethodPost, "/export/pdf", map[string]any{"html": "<p>x</p>"})

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestHandleExportCV(t *testing.T) {
	exporter := &fakeExporter{}
	s := newTestServer(exporter)

	rec := do(t, s, http.MethodPost, "/export/cv", map[string]any{
		"cv":          sampleCV(),
		"template_id": "template-2",
		"filename":    "ada.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, `attachment; filename="ada.pdf"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, 1, exporter.callCount())
	assert.Contains(t, exporter.calls[0], "template-modern")
	assert.Contains(t, exporter.calls[0], "Ada Lovelace")
}

func TestHandleExportCV_InvalidDocumentSkipsExport(t *testing.T) {
	exporter := &fakeExporter{}
	s := newTestServer(exporter)
	cv := sampleCV()
	cv["experiences"] = []map[string]any{{"company": ""}}

	rec := do(t, s, http.MethodPost, "/export/cv", map[string]any{"cv": cv})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, exporter.callCount())
}

func TestExport_NotConfigured(t *testing.T) {
	s := newTestServer(nil)

	rec := do(t, s, http.MethodPost, "/export/pdf", map[string]any{"html": "<p>x</p>"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s := New(Config{
		Logger:       quietLogger(),
		RateLimit:    &ratelimit.Config{Enabled: false},
		MaxBodyBytes: 32,
	}, &fakeExporter{})

	rec := do(t, s, http.MethodPost, "/export/pdf", map[string]any{"html": strings.Repeat("x", 100)})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimit_Export(t *testing.T) {
	exporter := &fakeExporter{}
	s := New(Config{
		Logger: quietLogger(),
		RateLimit: &ratelimit.Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			EndpointConfigs: ratelimit.DefaultEndpointConfigs(1, time.Hour, 1),
		},
	}, exporter)

	first := do(t, s, http.MethodPost, "/export/pdf", map[string]any{"html": "<p>x</p>"})
	second := do(t, s, http.MethodPost, "/export/cv", map[string]any{"cv": sampleCV()})
	health := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeError(t, second).Error)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, 1, exporter.callCount())
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodOptions, "/export/pdf", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestCORS_AllowList(t *testing.T) {
	s := New(Config{
		Logger:         quietLogger(),
		RateLimit:      &ratelimit.Config{Enabled: false},
		AllowedOrigins: "https://cv.example.com, https://admin.example.com",
	}, &fakeExporter{})

	allowed := httptest.NewRequest(http.MethodGet, "/health", nil)
	allowed.Header.Set("Origin", "https://cv.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, allowed)
	assert.Equal(t, "https://cv.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	denied := httptest.NewRequest(http.MethodGet, "/health", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, denied)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDOnErrors(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	rec := do(t, s, http.MethodPost, "/render", map[string]any{})

	id := rec.Header().Get(middleware.RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, decodeError(t, rec).RequestID)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(&fakeExporter{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

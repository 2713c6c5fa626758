package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragmem/internal/assistant"
	"github.com/harper/ragmem/internal/llm/llmtest"
	"github.com/harper/ragmem/internal/models"
)

type fixture struct {
	handler  http.Handler
	provider *llmtest.Provider
	docsDir  string
}

func newFixture(t *testing.T, withMetrics bool, responses ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "pricing.txt"),
		[]byte("The starter plan costs 10 dollars a month.\n\nThe team plan costs 40 dollars a month."), 0o644))

	provider := llmtest.NewProvider(responses...)
	asst := assistant.New(assistant.Options{
		Backend:      provider,
		IndexDir:     filepath.Join(root, "index"),
		DocsDir:      docs,
		MemoryDir:    filepath.Join(root, "memory"),
		ChunkSize:    60,
		ChunkOverlap: 10,
		TopK:         2,
		Clock:        func() time.Time { return time.Date(2026, 7, 9, 12, 0, 0, 0, time.UTC) },
	})
	return &fixture{
		handler:  NewServer(asst, nil, withMetrics).Router(),
		provider: provider,
		docsDir:  docs,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAnswer_Grounded(t *testing.T) {
	f := newFixture(t, false, "The team plan costs 40 dollars a month (pricing.txt).")

	rec := f.do(t, http.MethodPost, "/v1/answer", `{"question": "How much is the team plan?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	answer := decodeBody[models.Answer](t, rec)
	assert.Equal(t, "The team plan costs 40 dollars a month (pricing.txt).", answer.Text)
	require.Len(t, answer.Citations, 2)
	for _, c := range answer.Citations {
		assert.Equal(t, "pricing.txt", c.Source)
		assert.True(t, strings.HasPrefix(c.Locator, "chunk "))
	}
}

func TestAnswer_ExplicitK(t *testing.T) {
	f := newFixture(t, false, "Ten dollars.")

	rec := f.do(t, http.MethodPost, "/v1/answer", `{"question": "starter plan price", "k": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	answer := decodeBody[models.Answer](t, rec)
	assert.Len(t, answer.Citations, 1)
}

func TestAnswer_ValidationErrors(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing question", `{}`, CodeValidationFailed},
		{"zero k", `{"question": "x", "k": 0}`, CodeValidationFailed},
		{"malformed json", `{"question":`, CodeBadRequest},
		{"unknown field", `{"question": "x", "top": 3}`, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/v1/answer", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
	assert.Equal(t, 0, f.provider.ScriptedGenerator.Calls())
}

func TestAnswer_GenerationFailureIsBadGateway(t *testing.T) {
	f := newFixture(t, false)
	f.provider.ScriptedGenerator.Err = assert.AnError

	rec := f.do(t, http.MethodPost, "/v1/answer", `{"question": "team plan"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, CodeGenerationError, decodeBody[ErrorResponse](t, rec).Code)
}

func TestIndex_EmptyDirectory(t *testing.T) {
	f := newFixture(t, false)

	body, err := json.Marshal(IndexRequest{Dir: t.TempDir(), Force: true})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/v1/index", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeEmptyCorpus, decodeBody[ErrorResponse](t, rec).Code)
}

func TestIndex_BuildsThenReuses(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/v1/index", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeBody[IndexResponse](t, rec)
	assert.True(t, first.Rebuilt)
	assert.Equal(t, []string{"pricing.txt"}, first.Sources)

	rec = f.do(t, http.MethodPost, "/v1/index", `{"force": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[IndexResponse](t, rec)
	assert.False(t, second.Rebuilt)
	assert.Equal(t, first.BuildID, second.BuildID)
}

func TestMemory_RecordAndRead(t *testing.T) {
	f := newFixture(t, false, `[{"should_write": true, "target": "COMPANY", "summary": "Invoices go out on the 1st", "confidence": 0.8}, {"should_write": true, "target": "USER", "summary": "Maybe likes tea", "confidence": 0.4}]`)

	rec := f.do(t, http.MethodPost, "/v1/memory",
		`{"user_message": "We send invoices on the 1st", "assistant_message": "Got it."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[MemoryResponse](t, rec)
	assert.Equal(t, 1, resp.Stored)

	rec = f.do(t, http.MethodGet, "/v1/memory/company", "")
	require.Equal(t, http.StatusOK, rec.Code)
	log := decodeBody[MemoryLogResponse](t, rec)
	assert.Equal(t, "COMPANY", log.Target)
	assert.Contains(t, log.Markdown, "- [2026-07-09] Invoices go out on the 1st")
	require.Len(t, log.Entries, 1)

	rec = f.do(t, http.MethodGet, "/v1/memory/user", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[MemoryLogResponse](t, rec).Entries)
}

func TestMemory_UnknownTarget(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/v1/memory/team", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, CodeNotFound, body.Code)
	assert.Contains(t, body.Message, "team")
}

func TestChat_AnswersAndRemembers(t *testing.T) {
	f := newFixture(t, false,
		"The starter plan costs 10 dollars (pricing.txt).",
		`{"should_write": false}`,
	)

	rec := f.do(t, http.MethodPost, "/v1/chat", `{"question": "starter plan?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[assistant.ChatResult](t, rec)
	assert.Equal(t, "The starter plan costs 10 dollars (pricing.txt).", result.Answer.Text)
	assert.Empty(t, result.Memories)
	assert.Equal(t, 2, f.provider.ScriptedGenerator.Calls())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]any](t, rec)["status"])
}

func TestMetricsRoute(t *testing.T) {
	withMetrics := newFixture(t, true)
	rec := withMetrics.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = withMetrics.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ragmem_http_requests_total")

	without := newFixture(t, false)
	rec = without.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

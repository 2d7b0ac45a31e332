package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/doctimeline/internal/config"
	"github.com/dgallion1/doctimeline/internal/metrics"
	"github.com/dgallion1/doctimeline/internal/pipeline"
)

const (
	apiKey  = "secret"
	readKey = "reader"
)

const planDoc = `# Lexer

requested-time: 2h

# Parser

requested-time: 1h

dependent-tasks: Lexer

# Milestones

- Parser
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:         apiKey,
		ReadAPIKey:     readKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}

	registry := prometheus.NewRegistry()
	m := metrics.New()
	m.MustRegister(registry)

	project := pipeline.NewProject(log, time.UTC, m)
	orch := pipeline.NewOrchestrator(cfg, project, m, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, metrics.Handler(registry), log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	return doAs(t, s, apiKey, method, path, body, contentType)
}

func doAs(t *testing.T, s *Server, key, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+key)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// multipartBody builds a form with one file part per name/content pair and
// the given plain fields.
func multipartBody(t *testing.T, field string, files [][2]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type ingestResponse struct {
	JobID    string `json:"job_id"`
	DocID    string `json:"doc_id"`
	Replaces bool   `json:"replaces"`
	Error    string `json:"error"`
}

func waitForJob(t *testing.T, s *Server, jobID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, "/api/ingest/"+jobID+"/status", nil, "")
		var st struct {
			Status pipeline.JobStatus `json:"status"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &st)
		return st.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
}

func ingestFile(t *testing.T, s *Server, filename, content string) ingestResponse {
	t.Helper()
	body, ct := multipartBody(t, "file", [][2]string{{filename, content}}, nil)
	rec := do(t, s, http.MethodPost, "/api/ingest", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	waitForJob(t, s, resp.JobID)
	return resp
}

func uploadDoc(t *testing.T, s *Server, filename, content string) string {
	t.Helper()
	return ingestFile(t, s, filename, content).DocID
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIngestAndRenderTimeline(t *testing.T) {
	s := newTestServer(t)
	docID := uploadDoc(t, s, "Plan.md", planDoc)
	assert.Equal(t, "plan", docID)

	rec := do(t, s, http.MethodGet, "/api/documents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Documents []pipeline.Document `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, 2, list.Documents[0].Chunks)

	rec = do(t, s, http.MethodGet, "/api/documents/plan/timeline", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tl struct {
		Diagram    string   `json:"diagram"`
		Lines      []string `json:"lines"`
		Milestones []struct {
			Label string   `json:"label"`
			Row   []string `json:"row"`
		} `json:"milestones"`
		Diagnostics []string `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tl))
	assert.Contains(t, tl.Diagram, "blockdiag {")
	assert.Contains(t, tl.Lines, `lexer-I -> parser-I [color = "red"]`)
	require.Len(t, tl.Milestones, 1)
	assert.Equal(t, "Milestone 1", tl.Milestones[0].Label)
	assert.Equal(t, "3.00 h", tl.Milestones[0].Row[1])
	assert.Empty(t, tl.Diagnostics)

	rec = do(t, s, http.MethodGet, "/api/chunks/Parser/table", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var table struct {
		Rows [][]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Parser (I)", table.Rows[1][0])

	rec = do(t, s, http.MethodGet, "/api/stats/resolve", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chunks":2`)

	rec = do(t, s, http.MethodGet, "/api/chunks/Nowhere/table", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The job counter is bumped right after the job turns terminal.
	assert.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return bytes.Contains(rec.Body.Bytes(), []byte(`doctimeline_ingest_jobs_total{status="completed"} 1`))
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTimelineErrors(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/documents/missing/timeline", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cyclic := "# Top\n\nrequested-time: 1h\n\ndependent-tasks: A\n\n" +
		"# A\n\nrequested-time: 1h\n\ndependent-tasks: B\n\n" +
		"# B\n\nrequested-time: 1h\n\ndependent-tasks: A\n"
	uploadDoc(t, s, "cyclic.md", cyclic)

	rec = do(t, s, http.MethodGet, "/api/documents/cyclic/timeline", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cyclic dependency")

	// Every chunk query resolves the whole session first.
	rec = do(t, s, http.MethodGet, "/api/chunks/Top/table", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestServer(t)
	uploadDoc(t, s, "plan.md", planDoc)

	rec := do(t, s, http.MethodDelete, "/api/documents/plan", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"doc_id":"plan","chunks_removed":2}`, rec.Body.String())

	rec = do(t, s, http.MethodDelete, "/api/documents/plan", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestRejectsUnsupportedFile(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "file", [][2]string{{"plan.exe", "x"}}, nil)

	rec := do(t, s, http.MethodPost, "/api/ingest", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type: .exe")
}

func TestIngestRejectsMalformedDocID(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "file", [][2]string{{"plan.md", planDoc}}, map[string]string{"doc_id": "Plan Two"})

	rec := do(t, s, http.MethodPost, "/api/ingest", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc_id")
}

func TestIngestReportsReplacement(t *testing.T) {
	s := newTestServer(t)
	first := ingestFile(t, s, "plan.md", planDoc)
	assert.False(t, first.Replaces)

	second := ingestFile(t, s, "plan.md", planDoc+"\n# Docs\n\nrequested-time: 1h\n")
	assert.True(t, second.Replaces)
	assert.Equal(t, "plan", second.DocID)

	rec := do(t, s, http.MethodGet, "/api/documents", nil, "")
	var list struct {
		Documents []pipeline.Document `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, 3, list.Documents[0].Chunks)
}

func TestBatchIngestRefusesDuplicateDocIDs(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "files", [][2]string{
		{"plan.md", planDoc},
		{"Plan.markdown", planDoc},
		{"notes.exe", "x"},
	}, nil)

	rec := do(t, s, http.MethodPost, "/api/ingest/batch", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp struct {
		Jobs []ingestResponse `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 3)
	assert.Equal(t, "plan", resp.Jobs[0].DocID)
	assert.Empty(t, resp.Jobs[0].Error)
	assert.Contains(t, resp.Jobs[1].Error, `doc_id "plan" already taken by plan.md`)
	assert.Contains(t, resp.Jobs[2].Error, "unsupported file type")
	waitForJob(t, s, resp.Jobs[0].JobID)
}

func TestReadKeyCannotChangeProject(t *testing.T) {
	s := newTestServer(t)
	uploadDoc(t, s, "plan.md", planDoc)

	rec := doAs(t, s, readKey, http.MethodGet, "/api/documents/plan/timeline", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doAs(t, s, readKey, http.MethodGet, "/api/chunks/Lexer/table", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body, ct := multipartBody(t, "file", [][2]string{{"other.md", planDoc}}, nil)
	rec = doAs(t, s, readKey, http.MethodPost, "/api/ingest", body, ct)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, s, readKey, http.MethodDelete, "/api/documents/plan", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents", nil, "")
	assert.Contains(t, rec.Body.String(), `"doc_id":"plan"`)
}

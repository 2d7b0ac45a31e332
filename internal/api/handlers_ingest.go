package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/doctimeline/internal/parser"
	"github.com/dgallion1/doctimeline/internal/pipeline"
	"github.com/dgallion1/doctimeline/internal/ref"
	"github.com/go-chi/chi/v5"
)

// upload is one accepted file of a multipart request.
type upload struct {
	filename string
	data     []byte
}

// uploadError is an unusable upload and the status it answers with.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

// handleIngest queues one document. The doc_id defaults to the file's slug;
// a document already known under that id is replaced once the job applies.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	docID := r.FormValue("doc_id")
	if docID != "" && ref.Slugify(docID) != docID {
		jsonError(w, fmt.Sprintf("doc_id %q must be lowercase letters, digits and dashes", docID), http.StatusBadRequest)
		return
	}

	u, err := s.readUpload(files[0])
	if err != nil {
		writeUploadError(w, err)
		return
	}
	if docID == "" {
		docID = pipeline.DocIDForFile(u.filename)
	}

	resp, err := s.submit(u, docID, r.FormValue("title"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

// handleBatchIngest queues every file under its own slug. Two files mapping
// to the same doc_id would replace each other, so the later one is refused.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	seen := make(map[string]string)
	var results []map[string]any
	for _, fh := range files {
		u, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{"filename": sanitizeFilename(fh.Filename), "error": err.Error()})
			continue
		}
		docID := pipeline.DocIDForFile(u.filename)
		if first, dup := seen[docID]; dup {
			results = append(results, map[string]any{
				"filename": u.filename,
				"error":    fmt.Sprintf("doc_id %q already taken by %s in this batch", docID, first),
			})
			continue
		}
		seen[docID] = u.filename

		resp, err := s.submit(u, docID, "")
		if err != nil {
			results = append(results, map[string]any{"filename": u.filename, "error": err.Error()})
			continue
		}
		results = append(results, resp)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

// readUpload checks that a parser exists for the file and reads it within the
// size limit.
func (s *Server) readUpload(fh *multipart.FileHeader) (upload, error) {
	filename := sanitizeFilename(fh.Filename)
	if _, err := parser.ForFile(filename); err != nil {
		return upload{}, &uploadError{http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))}
	}

	f, err := fh.Open()
	if err != nil {
		return upload{}, &uploadError{http.StatusInternalServerError, "failed to open file"}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return upload{}, &uploadError{http.StatusInternalServerError, "failed to read file"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return upload{}, &uploadError{http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)}
	}
	return upload{filename: filename, data: data}, nil
}

// submit queues u as document docID. "replaces" tells whether the project
// already holds declarations under that id.
func (s *Server) submit(u upload, docID, title string) (map[string]any, error) {
	_, replaces := s.project.Document(docID)
	job := pipeline.NewJob(docID, u.filename, title, u.data)
	if err := s.orchestrator.Submit(job); err != nil {
		return nil, err
	}
	return map[string]any{
		"filename": u.filename,
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"replaces": replaces,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	}, nil
}

func writeUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		jsonError(w, ue.msg, ue.status)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

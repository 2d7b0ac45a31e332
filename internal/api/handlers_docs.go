package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/doctimeline/internal/alias"
	"github.com/dgallion1/doctimeline/internal/pipeline"
	"github.com/dgallion1/doctimeline/internal/render"
	"github.com/dgallion1/doctimeline/internal/report"
	"github.com/dgallion1/doctimeline/internal/timeline"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists every applied document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.project.Documents()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleDeleteDocument purges a document and every chunk it declared.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	n, known := s.project.Purge(docID)
	if !known && n == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":         docID,
		"chunks_removed": n,
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	res, err := s.project.RenderTimeline(docID)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, pipeline.ErrDocumentNotFound) {
			code = http.StatusNotFound
		}
		jsonError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":      docID,
		"diagram":     res.Diagram,
		"lines":       res.Lines,
		"header":      res.Header,
		"rows":        res.Rows,
		"milestones":  markers(res.Milestones),
		"deadlines":   markers(res.Deadlines),
		"tables":      res.Tables,
		"diagnostics": res.Warnings(),
	})
}

func (s *Server) handleChunkTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "ref")
	rows, err := s.project.ChunkTable(name)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, alias.ErrUnknownReference) {
			code = http.StatusNotFound
		}
		jsonError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(render.Table{Ref: name, Rows: append([][]string{report.Header()}, rows...)})
}

type markerJSON struct {
	Group string   `json:"group"`
	Label string   `json:"label"`
	Color string   `json:"color"`
	Ref   string   `json:"ref"`
	Date  string   `json:"date,omitempty"`
	Row   []string `json:"row"`
}

func markers(ms []timeline.Marker) []markerJSON {
	out := make([]markerJSON, 0, len(ms))
	for _, m := range ms {
		j := markerJSON{
			Group: m.Group,
			Label: m.Label,
			Color: m.Color,
			Ref:   m.Cited.Ref,
			Row:   report.Row(m.Summary),
		}
		if !m.Cited.Date.IsZero() {
			j.Date = m.Cited.Date.Format("2006-01-02")
		}
		out = append(out, j)
	}
	return out
}

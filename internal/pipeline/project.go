package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/doctimeline/internal/extract"
	"github.com/dgallion1/doctimeline/internal/metrics"
	"github.com/dgallion1/doctimeline/internal/render"
	"github.com/dgallion1/doctimeline/internal/timeline"
)

// ErrDocumentNotFound is returned for a document id the project never applied.
var ErrDocumentNotFound = errors.New("document not found")

// Document is the index entry of one applied document.
type Document struct {
	DocID       string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash,omitempty"`
	Directives  int       `json:"directives"`
	Chunks      int       `json:"chunks"`
	HasTimeline bool      `json:"has_timeline"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project owns the timeline session shared by every document. Applying,
// purging and rendering are serialized; the session itself is never touched
// concurrently.
type Project struct {
	mu        sync.Mutex
	session   *timeline.Session
	timelines map[string]*extract.Timeline
	docs      map[string]Document

	loc     *time.Location
	now     func() time.Time
	latency *LatencyStats
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewProject returns an empty project. Dates without a zone are read in loc.
// m may be nil.
func NewProject(log *slog.Logger, loc *time.Location, m *metrics.Metrics) *Project {
	if loc == nil {
		loc = time.Local
	}
	return &Project{
		session:   timeline.NewSession(log),
		timelines: make(map[string]*extract.Timeline),
		docs:      make(map[string]Document),
		loc:       loc,
		now:       time.Now,
		latency:   NewLatencyStats(time.Hour),
		metrics:   m,
		log:       log,
	}
}

// SetClock replaces the project's notion of now.
func (p *Project) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Latency returns the rolling resolve latency statistics.
func (p *Project) Latency() *LatencyStats {
	return p.latency
}

// Apply replaces everything doc previously declared with d. On error the
// document is left purged and out of the index.
func (p *Project) Apply(doc Document, d *extract.Declarations) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tl, err := extract.Apply(p.session, d, p.now(), p.loc)
	if err != nil {
		delete(p.timelines, doc.DocID)
		delete(p.docs, doc.DocID)
		p.updateSize()
		return fmt.Errorf("apply %s: %w", doc.DocID, err)
	}

	doc.Directives = len(d.Directives)
	doc.HasTimeline = d.HasTimeline() || len(tl.Tables) > 0
	doc.UpdatedAt = p.now()
	p.timelines[doc.DocID] = tl
	p.docs[doc.DocID] = doc
	p.countChunks()
	p.updateSize()
	return nil
}

// Purge removes everything docID declared. It returns the number of chunks
// removed and whether the document was known.
func (p *Project) Purge(docID string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, known := p.docs[docID]
	n := p.session.Purge(docID)
	delete(p.timelines, docID)
	delete(p.docs, docID)
	p.updateSize()
	p.log.Info("purged document", "doc_id", docID, "chunks", n)
	return n, known
}

// Document returns the index entry for docID.
func (p *Project) Document(docID string) (Document, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.docs[docID]
	return d, ok
}

// Documents returns the index sorted by doc id.
func (p *Project) Documents() []Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Document, 0, len(p.docs))
	for _, d := range p.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}

// TimelineDocuments returns the ids of documents declaring a timeline.
func (p *Project) TimelineDocuments() []string {
	var ids []string
	for _, d := range p.Documents() {
		if d.HasTimeline {
			ids = append(ids, d.DocID)
		}
	}
	return ids
}

// RenderTimeline resolves the session and renders the timeline declared by
// docID. An empty docID renders the bare dependency forest.
func (p *Project) RenderTimeline(docID string) (*render.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var tl *extract.Timeline
	if docID != "" {
		if _, ok := p.docs[docID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		tl = p.timelines[docID]
	}

	start := time.Now()
	res, err := render.Timeline(p.session, tl, p.now())
	elapsed := time.Since(start)
	p.latency.Record(elapsed.Milliseconds())

	diagnostics := 0
	if res != nil {
		diagnostics = len(res.Diagnostics)
	}
	p.metrics.ObserveResolve(elapsed.Seconds(), diagnostics, err)
	if err != nil {
		p.log.Warn("timeline render failed", "doc_id", docID, "error", err)
		return nil, err
	}
	for _, d := range res.Diagnostics {
		p.log.Warn("dependency dropped", "doc_id", docID, "source", d.Source, "ref", d.Ref)
	}
	return res, nil
}

// ChunkTable renders the per-submodule breakdown of the chunk name refers to.
func (p *Project) ChunkTable(name string) ([][]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.session.Resolve(p.now())
	if err != nil {
		return nil, err
	}
	return render.ChunkTable(p.session, f, name)
}

// countChunks refreshes the chunk count of every indexed document.
func (p *Project) countChunks() {
	counts := make(map[string]int)
	for _, c := range p.session.Chunks() {
		counts[c.DocID]++
	}
	for id, d := range p.docs {
		d.Chunks = counts[id]
		p.docs[id] = d
	}
}

func (p *Project) updateSize() {
	p.metrics.SetSize(len(p.docs), len(p.session.Chunks()))
}

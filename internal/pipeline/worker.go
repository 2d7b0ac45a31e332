package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/doctimeline/internal/doctree"
	"github.com/dgallion1/doctimeline/internal/extract"
	"github.com/dgallion1/doctimeline/internal/parser"
)

// Extracted is the read-phase result of one job, ready to apply.
type Extracted struct {
	Job          *Job
	Tree         *doctree.DocTree
	Declarations *extract.Declarations
	ContentHash  string
}

// Worker processes jobs. Process only reads the job's file and may run on
// many goroutines at once; Apply writes to the project.
type Worker struct {
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{log: log, pdfFallback: pdfFallback}
}

// Process parses the job's file and collects its declarations. On failure the
// job is marked failed and nil is returned.
func (w *Worker) Process(ctx context.Context, job *Job) *Extracted {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return nil
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.pdfFallback
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return nil
	}
	if job.Title != "" {
		tree.Title = job.Title
	}
	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return nil
	}

	// Compute content hash from the parsed text.
	hash := ContentHashHex([]byte(flattenTreeText(tree)))
	job.SetContentHash(hash)

	// Phase 2: Extract directives.
	job.SetStatus(StatusExtracting, "extracting")
	decls := extract.FromTree(job.DocID, tree)
	job.SetExtracted(countSections(tree), len(decls.Directives))
	log.Info("extracted declarations",
		"directives", len(decls.Directives),
		"milestones", len(decls.Milestones),
		"deadlines", len(decls.Deadlines))

	if err := extract.ValidateDeclarations(decls); err != nil {
		log.Error("invalid declarations", "error", err)
		for _, e := range strings.Split(err.Error(), "\n") {
			job.AddError(e)
		}
		job.SetStatus(StatusFailed, "extracting")
		return nil
	}

	return &Extracted{Job: job, Tree: tree, Declarations: decls, ContentHash: hash}
}

// Apply runs the write phase of a job against project.
func (w *Worker) Apply(project *Project, x *Extracted) {
	job := x.Job
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	if prev, ok := project.Document(job.DocID); ok && prev.ContentHash == x.ContentHash {
		log.Info("document unchanged, skipping")
		job.SetChunks(prev.Chunks)
		job.SetStatus(StatusUnchanged, "done")
		return
	}

	job.SetStatus(StatusApplying, "applying")
	doc := Document{
		DocID:       job.DocID,
		Filename:    job.Filename,
		Title:       x.Tree.Title,
		ContentHash: x.ContentHash,
	}
	if err := project.Apply(doc, x.Declarations); err != nil {
		log.Error("apply failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "applying")
		return
	}

	applied, _ := project.Document(job.DocID)
	job.SetChunks(applied.Chunks)
	log.Info("document applied", "chunks", applied.Chunks, "timeline", applied.HasTimeline)
	job.SetStatus(StatusCompleted, "done")
}

// Run processes job start to finish on the calling goroutine.
func (w *Worker) Run(ctx context.Context, project *Project, job *Job) JobSnapshot {
	if x := w.Process(ctx, job); x != nil {
		w.Apply(project, x)
	}
	return job.Snapshot()
}

// flattenTreeText extracts all text from a DocTree into a single string for
// hashing. Anchors are included since chunk names and aliases derive from them.
func flattenTreeText(tree *doctree.DocTree) string {
	var sb strings.Builder
	tree.Walk(func(n, _ *doctree.DocNode) bool {
		anchors := ""
		if len(n.Anchors) > 0 {
			anchors = "#" + strings.Join(n.Anchors, " #")
		}
		for _, s := range []string{n.Title, anchors, n.Text} {
			if s == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(s)
		}
		return true
	})
	return sb.String()
}

func countSections(tree *doctree.DocTree) int {
	n := 0
	tree.Walk(func(node, _ *doctree.DocNode) bool {
		if node.Title != "" {
			n++
		}
		return true
	})
	return n
}

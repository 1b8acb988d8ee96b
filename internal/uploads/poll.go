package uploads

import (
	"context"
	"strings"
	"time"

	"github.com/JaimeStill/agent-console/internal/agents"
)

type task struct {
	agentID  string
	remoteID string
	tempID   string
	fileName string
	taskID   string
}

func (w *Workflow) startPoller(t task) {
	ctx := w.pollContext()
	w.pollers.Go(func() {
		w.poll(ctx, t)
	})
}

// poll checks the task immediately and then at a fixed interval until it
// reaches a terminal state or ctx ends. Failed status queries are retried.
func (w *Workflow) poll(ctx context.Context, t task) {
	if w.check(ctx, t) {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("poll stopped", "agent", t.agentID, "task", t.taskID)
			return
		case <-ticker.C:
		}

		if w.check(ctx, t) {
			return
		}
	}
}

// check runs one poll iteration and reports whether polling is done.
func (w *Workflow) check(ctx context.Context, t task) bool {
	status, err := w.client.UploadStatus(ctx, t.taskID)
	if err != nil {
		w.logger.Debug("upload status unavailable", "task", t.taskID, "error", err)
		return false
	}

	switch strings.ToLower(status.Status) {
	case "complete", "ready", "processing_complete":
		return w.reconcile(ctx, t, status.DocumentID)
	case "failed", "error":
		w.markFailed(ctx, t.agentID, t.tempID)
		uerr := processingFailed(t.fileName, status.Message)
		w.logger.Warn("upload processing failed", "agent", t.agentID, "file", t.fileName, "task", t.taskID)
		if w.notify != nil {
			w.notify(uerr)
		}
		return true
	default:
		return false
	}
}

// reconcile merges the service's document list once the uploaded document
// is visible in it. Until then the task is treated as pending.
func (w *Workflow) reconcile(ctx context.Context, t task, documentID string) bool {
	remote, err := w.client.ListDocuments(ctx, t.remoteID)
	if err != nil {
		w.logger.Debug("document list unavailable", "agent", t.agentID, "task", t.taskID, "error", err)
		return false
	}

	listed := agents.DocumentsFromBackend(remote)
	if _, ok := findUploaded(listed, documentID, t.fileName); !ok {
		w.logger.Debug("processed document not listed yet", "agent", t.agentID, "file", t.fileName)
		return false
	}

	err = w.store.SetDocuments(ctx, t.agentID, func(cur []agents.Document) []agents.Document {
		return Reconcile(cur, t.tempID, listed)
	})
	if err != nil {
		w.logger.Warn("upload not reconciled", "agent", t.agentID, "file", t.fileName, "error", err)
		return true
	}

	w.logger.Info("upload complete", "agent", t.agentID, "file", t.fileName, "documents", len(listed))
	return true
}

// Reconcile merges the service's list into the local one. The listed
// documents come first, marked ready, followed by the in-flight entries
// they do not supersede by id or name. The placeholder tempID and local
// ready entries are dropped.
func Reconcile(current []agents.Document, tempID string, listed []agents.Document) []agents.Document {
	ids := make(map[string]struct{}, len(listed))
	names := make(map[string]struct{}, len(listed))
	for _, d := range listed {
		if d.ID != "" {
			ids[d.ID] = struct{}{}
		}
		names[d.Name] = struct{}{}
	}

	out := make([]agents.Document, 0, len(current)+len(listed))
	for _, d := range listed {
		d.Status = agents.StatusReady
		out = append(out, d)
	}

	for _, d := range current {
		if d.ID == tempID || d.Status == agents.StatusReady {
			continue
		}
		if _, ok := ids[d.ID]; ok && d.ID != "" {
			continue
		}
		if _, ok := names[d.Name]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Package uploads implements the document upload workflow: files are sent
// one at a time behind processing placeholders, accepted tasks are polled in
// the background, and placeholders are reconciled against the service's
// document list once processing completes.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
)

// Client is the subset of the Remote Agent Service the workflow calls.
type Client interface {
	UploadDocument(ctx context.Context, agentID, fileName string, data []byte, category string) (backend.UploadResult, error)
	UploadStatus(ctx context.Context, taskID string) (backend.UploadStatus, error)
	ListDocuments(ctx context.Context, agentID string) ([]backend.Document, error)
}

// Store is the agent state the workflow reads and updates.
type Store interface {
	Agent(id string) (agents.Agent, bool)
	LoadDocuments(ctx context.Context, id string) ([]agents.Document, error)
	SetDocuments(ctx context.Context, id string, fn func([]agents.Document) []agents.Document) error
	Touch(ctx context.Context, id string) error
}

type Workflow struct {
	store    Store
	client   Client
	logger   *slog.Logger
	interval time.Duration
	category string
	notify   func(*Error)
	now      func() time.Time

	seq atomic.Uint64

	mu      sync.Mutex
	ctx     context.Context
	pollers sync.WaitGroup
}

// New creates an upload workflow. notify receives failures discovered by
// background pollers after Upload has returned; it may be nil.
func New(store Store, client Client, logger *slog.Logger, cfg *config.UploadsConfig, notify func(*Error)) *Workflow {
	return &Workflow{
		store:    store,
		client:   client,
		logger:   logger.With("system", "uploads"),
		interval: cfg.PollIntervalDuration(),
		category: cfg.Category,
		notify:   notify,
		now:      time.Now,
		ctx:      context.Background(),
	}
}

// Start binds pollers to the lifecycle context so shutdown stops them.
func (w *Workflow) Start(lc *lifecycle.Coordinator) error {
	w.mu.Lock()
	w.ctx = lc.Context()
	w.mu.Unlock()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		w.pollers.Wait()
		w.logger.Info("upload pollers stopped")
	})

	return nil
}

// Wait blocks until every started poller has finished.
func (w *Workflow) Wait() {
	w.pollers.Wait()
}

// Upload sends files to the agent's knowledge base in order. The first file
// the service rejects, or that cannot be sent, is marked failed and ends
// the batch; later files are not attempted. Accepted files keep processing
// in the background.
//
// The agent's existing documents are loaded first so placeholders join the
// listed documents instead of standing in for an unfetched list.
func (w *Workflow) Upload(ctx context.Context, agentID string, files []File) error {
	a, ok := w.store.Agent(agentID)
	if !ok {
		return agents.ErrNotFound
	}
	if !a.Saved() {
		return agents.ErrNotSaved
	}

	if _, err := w.store.LoadDocuments(ctx, a.ID); err != nil {
		return err
	}

	for _, f := range files {
		if err := w.uploadFile(ctx, a, f); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workflow) uploadFile(ctx context.Context, a agents.Agent, f File) error {
	tempID := w.tempID()
	doc := placeholder(tempID, f, w.now())

	err := w.store.SetDocuments(ctx, a.ID, func(cur []agents.Document) []agents.Document {
		return append(cur, doc)
	})
	if err != nil {
		return err
	}
	if err := w.store.Touch(ctx, a.ID); err != nil {
		return err
	}

	res, err := w.client.UploadDocument(ctx, a.RemoteID, f.Name, f.Data, w.category)
	if err != nil {
		uerr := Classify(f.Name, err)
		w.markFailed(context.WithoutCancel(ctx), a.ID, tempID)
		w.logger.Warn("upload failed",
			"agent", a.ID,
			"file", f.Name,
			"kind", uerr.Kind.String(),
			"error", err,
		)
		return uerr
	}

	if res.TaskID != "" {
		w.logger.Info("upload accepted", "agent", a.ID, "file", f.Name, "task", res.TaskID)
		w.startPoller(task{
			agentID:  a.ID,
			remoteID: a.RemoteID,
			tempID:   tempID,
			fileName: f.Name,
			taskID:   res.TaskID,
		})
		return nil
	}

	w.refreshOnce(ctx, a, tempID, f.Name, res.DocumentID)
	return nil
}

// refreshOnce replaces the placeholder with the listed document when the
// service processed the upload synchronously. A missing document leaves the
// placeholder in place.
func (w *Workflow) refreshOnce(ctx context.Context, a agents.Agent, tempID, fileName, documentID string) {
	remote, err := w.client.ListDocuments(ctx, a.RemoteID)
	if err != nil {
		w.logger.Debug("document refresh after upload failed", "agent", a.ID, "file", fileName, "error", err)
		return
	}

	found, ok := findUploaded(agents.DocumentsFromBackend(remote), documentID, fileName)
	if !ok {
		w.logger.Debug("uploaded document not listed yet", "agent", a.ID, "file", fileName)
		return
	}
	found.Status = agents.StatusReady

	err = w.store.SetDocuments(ctx, a.ID, func(cur []agents.Document) []agents.Document {
		for i := range cur {
			if cur[i].ID == tempID {
				cur[i] = found
			}
		}
		return cur
	})
	if err != nil {
		w.logger.Warn("placeholder not replaced", "agent", a.ID, "file", fileName, "error", err)
		return
	}
	w.logger.Info("upload complete", "agent", a.ID, "file", fileName, "document", found.ID)
}

func (w *Workflow) markFailed(ctx context.Context, agentID, tempID string) {
	err := w.store.SetDocuments(ctx, agentID, func(cur []agents.Document) []agents.Document {
		for i := range cur {
			if cur[i].ID == tempID {
				cur[i].Status = agents.StatusError
			}
		}
		return cur
	})
	if err != nil {
		w.logger.Warn("placeholder not marked failed", "agent", agentID, "document", tempID, "error", err)
	}
}

// tempID is unique for the process: the sequence orders ids minted within
// the same millisecond.
func (w *Workflow) tempID() string {
	return fmt.Sprintf("%s%d-%d", agents.TempIDPrefix, w.now().UnixMilli(), w.seq.Add(1))
}

func (w *Workflow) pollContext() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctx
}

func findUploaded(docs []agents.Document, documentID, fileName string) (agents.Document, bool) {
	if documentID != "" {
		for _, d := range docs {
			if d.ID == documentID {
				return d, true
			}
		}
	}
	for _, d := range docs {
		if d.Name == fileName {
			return d, true
		}
	}
	return agents.Document{}, false
}

// Package store holds the agent collection shown to the console and keeps
// nested roles and documents consistent. Every mutation is a command applied
// by a single goroutine, so updates compose against the latest state.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
)

// ErrClosed is returned by commands issued after the store has shut down.
var ErrClosed = errors.New("store closed")

// Backend is the subset of the Remote Agent Service the store calls.
type Backend interface {
	ListAgents(ctx context.Context) ([]backend.Agent, error)
	SaveAgent(ctx context.Context, agent backend.Agent) (backend.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
	ListDocuments(ctx context.Context, agentID string) ([]backend.Document, error)
	DeleteDocument(ctx context.Context, agentID, documentID string) error
}

type command struct {
	apply  func([]agents.Agent) ([]agents.Agent, error)
	result chan error
}

type Store struct {
	client Backend
	logger *slog.Logger
	now    func() time.Time

	cmds   chan command
	done   chan struct{}
	loaded chan struct{}

	loading atomic.Bool

	mu       sync.RWMutex
	snapshot []agents.Agent

	subMu sync.Mutex
	subs  map[chan []agents.Agent]struct{}

	docLoads singleflight.Group
}

// New creates a store. It reports Loading until Start has completed the initial fetch.
func New(client Backend, logger *slog.Logger) *Store {
	s := &Store{
		client:   client,
		logger:   logger.With("system", "store"),
		now:      time.Now,
		cmds:     make(chan command),
		done:     make(chan struct{}),
		loaded:   make(chan struct{}),
		snapshot: []agents.Agent{},
		subs:     map[chan []agents.Agent]struct{}{},
	}
	s.loading.Store(true)
	return s
}

// Start runs the command loop on the lifecycle context and fetches all
// agents during startup. A failed fetch settles to an empty collection.
func (s *Store) Start(lc *lifecycle.Coordinator) error {
	go s.run(lc.Context())

	lc.OnStartup(func() {
		s.initialLoad(lc.Context())
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-s.done
		s.logger.Info("store stopped")
	})

	return nil
}

// Loading reports whether the initial fetch is still in flight.
func (s *Store) Loading() bool {
	return s.loading.Load()
}

// Loaded is closed once the initial fetch settles.
func (s *Store) Loaded() <-chan struct{} {
	return s.loaded
}

// Agents returns a deep copy of the collection.
func (s *Store) Agents() []agents.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.snapshot)
}

// Agent returns a deep copy of the agent whose local or remote id is id.
func (s *Store) Agent(id string) (agents.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.snapshot, id); i >= 0 {
		return s.snapshot[i].Clone(), true
	}
	return agents.Agent{}, false
}

// Subscribe returns a channel that receives the collection after every
// change. Slow readers only see the latest state. The channel is closed
// when ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan []agents.Agent {
	ch := make(chan []agents.Agent, 1)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}()

	return ch
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)

	state := []agents.Agent{}
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			next, err := cmd.apply(cloneAll(state))
			if err == nil {
				keepLoadedDocuments(state, next)
				state = next
				s.publish(state)
			}
			cmd.result <- err
		}
	}
}

// dispatch hands apply to the command loop and waits until it has run.
func (s *Store) dispatch(ctx context.Context, apply func([]agents.Agent) ([]agents.Agent, error)) error {
	cmd := command{apply: apply, result: make(chan error, 1)}

	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.result:
		return err
	case <-s.done:
		select {
		case err := <-cmd.result:
			return err
		default:
			return ErrClosed
		}
	}
}

func (s *Store) publish(state []agents.Agent) {
	s.mu.Lock()
	s.snapshot = cloneAll(state)
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		view := cloneAll(state)
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *Store) initialLoad(ctx context.Context) {
	defer func() {
		s.loading.Store(false)
		close(s.loaded)
	}()

	list := []agents.Agent{}
	remote, err := s.client.ListAgents(ctx)
	if err != nil {
		s.logger.Warn("initial agent load failed", "error", err)
	} else {
		for _, b := range remote {
			list = append(list, agents.FromBackend(b))
		}
	}

	if err := s.SetAgents(ctx, func(cur []agents.Agent) []agents.Agent { return mergeLoaded(cur, list) }); err != nil {
		s.logger.Warn("initial agent load not applied", "error", err)
		return
	}
	s.logger.Info("agents loaded", "count", len(list))
}

// mergeLoaded appends the loaded agents not already present. Agents added
// while the initial load was in flight are kept.
func mergeLoaded(cur, loaded []agents.Agent) []agents.Agent {
	out := append([]agents.Agent{}, cur...)
	for _, a := range loaded {
		if indexOf(out, a.RemoteID) < 0 {
			out = append(out, a)
		}
	}
	return out
}

// keepLoadedDocuments restores any document list an update tried to reset to
// not loaded. Once fetched, a list never returns to the unknown state.
func keepLoadedDocuments(prev, next []agents.Agent) {
	for i := range next {
		if next[i].Documents.IsLoaded() {
			continue
		}
		for _, p := range prev {
			if p.ID == next[i].ID && p.Documents.IsLoaded() {
				next[i].Documents = agents.Loaded(p.Documents.Items())
				break
			}
		}
	}
}

func indexOf(list []agents.Agent, id string) int {
	for i, a := range list {
		if a.Matches(id) {
			return i
		}
	}
	return -1
}

func cloneAll(list []agents.Agent) []agents.Agent {
	out := make([]agents.Agent, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}

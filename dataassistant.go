// Package dataassistant provides a high-level façade over the dialogue
// engine and its services (sessions, datasets, tools, artifacts, logging)
// for building conversational tabular-data assistants. Applications
// interact with this package by:
//  1. Creating an Assistant via New() with an oracle provider
//     (optionally overriding the default in-memory services)
//  2. Creating a session from uploaded tabular bytes (CreateSession)
//  3. Advancing the conversation one user turn at a time (SubmitTurn)
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable artifact store and a structured
// logger.
package dataassistant

import (
	"context"
	"strings"
	"time"

	"github.com/RubenCasal/Data-Assistant/artifact"
	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/graph"
	"github.com/RubenCasal/Data-Assistant/logging"
	"github.com/RubenCasal/Data-Assistant/oracle"
	"github.com/RubenCasal/Data-Assistant/session"
	"github.com/RubenCasal/Data-Assistant/tool"
)

// Options configures the Assistant instance.
type Options struct {
	// ArtifactStore receives chart payloads. Defaults to in-memory.
	ArtifactStore artifact.Store

	// Logger defaults to NoOp if nil.
	Logger logging.Logger

	// BatchPolicy selects how multi-call oracle batches are reduced.
	BatchPolicy tool.BatchPolicy

	// ClassifyTimeout bounds every oracle call made during a step. Zero
	// disables the bound.
	ClassifyTimeout time.Duration

	// Onboarding enables the date-range and missing-value negotiation flow
	// for the first turns of a new session.
	Onboarding bool
}

// Assistant is the high-level façade aggregating the session registry, the
// static dialogue graphs and the oracle provider. Public methods are safe
// for concurrent use; turns for the same session are serialized.
type Assistant struct {
	oracle   oracle.Oracle
	opts     Options
	sessions *session.Registry

	intent     *graph.Graph
	onboarding *graph.Graph
}

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	// Messages produced during the turn, already appended to history.
	Messages []oracle.Message
	// ArtifactRefs saved by chart tools during the turn.
	ArtifactRefs []string
	// Suspended reports that the assistant is waiting for the next user
	// message at a negotiation point.
	Suspended bool
	// Done reports that the turn's thread reached its terminal state.
	Done bool
}

// Text joins the turn's message contents for simple hosts.
func (r TurnResult) Text() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

// New creates an Assistant around the given oracle provider with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(o oracle.Oracle, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assistant{
		oracle:     o,
		opts:       opts,
		sessions:   session.NewRegistry(),
		intent:     graph.NewIntentGraph(),
		onboarding: graph.NewOnboardingGraph(),
	}
}

// CreateSession parses tabular bytes into a dataset, builds its schema
// cache and tool registry, and registers a fresh session. The returned id
// addresses every later call.
func (a *Assistant) CreateSession(datasetBytes []byte) (string, error) {
	ds, err := dataset.FromCSV(datasetBytes)
	if err != nil {
		return "", err
	}

	id := session.NewID()
	tools := tool.NewRegistry(a.opts.ArtifactStore, id)

	g := a.intent
	if a.opts.Onboarding {
		g = a.onboarding
	}
	sess := a.sessions.Create(id, ds, tools, graph.NewThread(g))

	a.opts.Logger.Info("session.created",
		"session_id", sess.ID,
		"rows", ds.Rows(),
		"columns", len(ds.ColumnNames()),
	)
	return sess.ID, nil
}

// SubmitTurn advances the session's thread exactly one logical step with
// the given user text: the step may traverse several nodes until the next
// suspension point or the terminal state. A terminal thread is replaced by
// a fresh routing thread before the step runs.
func (a *Assistant) SubmitTurn(ctx context.Context, sessionID, userText string) (TurnResult, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	if sess.Thread.Done() {
		sess.Thread = graph.NewThread(a.intent)
	}
	return a.step(ctx, sess, sess.Thread.ID(), userText)
}

// Resume advances the session like SubmitTurn but verifies the caller's
// thread id against the active thread, failing with graph.ErrThreadMismatch
// on a stale token. Re-entering a terminal thread returns its cached result
// without re-executing any tool.
func (a *Assistant) Resume(ctx context.Context, sessionID, threadID, userText string) (TurnResult, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	sess.Lock()
	defer sess.Unlock()
	return a.step(ctx, sess, threadID, userText)
}

// step runs one graph step and applies its side effects to the session.
// Caller must hold the session lock.
func (a *Assistant) step(ctx context.Context, sess *session.Session, threadID, userText string) (TurnResult, error) {
	terminal := sess.Thread.Done()

	state := &graph.State{
		Oracle:          a.oracle,
		Dataset:         sess.Dataset,
		Registry:        sess.Tools,
		Dispatcher:      a.dispatcher(sess.Tools),
		History:         sess.History(),
		Input:           userText,
		Logger:          a.opts.Logger,
		ClassifyTimeout: a.opts.ClassifyTimeout,
	}

	res, err := sess.Thread.Step(ctx, threadID, state)
	if err != nil {
		return TurnResult{}, err
	}

	// A cached terminal result was already recorded in history when it was
	// first produced.
	if !terminal {
		sess.Append(oracle.NewMessage(oracle.RoleUser, userText))
		sess.Append(res.Messages...)
	}
	return TurnResult{
		Messages:     res.Messages,
		ArtifactRefs: res.ArtifactRefs,
		Suspended:    res.Suspended,
		Done:         res.Done,
	}, nil
}

func (a *Assistant) dispatcher(tools *tool.Registry) *tool.Dispatcher {
	return tool.NewDispatcher(tools, func(o *tool.DispatcherOptions) {
		o.Policy = a.opts.BatchPolicy
		o.Logger = a.opts.Logger
	})
}

// ThreadID returns the session's active thread token.
func (a *Assistant) ThreadID(sessionID string) (string, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Thread.ID(), nil
}

// History returns a snapshot of the session's conversation.
func (a *Assistant) History(sessionID string) ([]oracle.Message, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.History(), nil
}

// ExportDataset serializes the session's current dataset state. Read-only.
func (a *Assistant) ExportDataset(sessionID string) ([]byte, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Dataset.ToCSV()
}

// GetArtifact returns a chart payload saved during the session.
func (a *Assistant) GetArtifact(sessionID, ref string) ([]byte, error) {
	return a.opts.ArtifactStore.Get(sessionID, ref)
}

// EvictSession removes a session and its state from the registry.
func (a *Assistant) EvictSession(sessionID string) {
	a.sessions.Evict(sessionID)
}

// Package graph implements the dialogue state machine: static node tables
// built once at startup, a resumable Thread that records the current
// position, and cooperative suspension at nodes awaiting user input.
package graph

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/logging"
	"github.com/RubenCasal/Data-Assistant/oracle"
	"github.com/RubenCasal/Data-Assistant/tool"
)

// ErrThreadMismatch reports a resume attempt with a thread id that does not
// match the session's active thread.
var ErrThreadMismatch = errors.New("graph: thread id mismatch")

// NodeID identifies a state in a dialogue graph.
type NodeID string

// End is the shared terminal state of every graph.
const End NodeID = "end"

// stepNodeLimit bounds the number of nodes one step may traverse.
const stepNodeLimit = 32

// RunFunc executes one node against the step state and names the successor
// node. Returning an error leaves the thread parked at the current node.
type RunFunc func(ctx context.Context, s *State) (NodeID, error)

// Node is one state in a graph. RequiresInput marks suspension points: the
// node runs only with a fresh user message, so a step arriving at it parks
// the thread and returns control to the caller.
type Node struct {
	ID            NodeID
	RequiresInput bool
	Run           RunFunc
}

// Graph is a static, process-wide table of nodes. It is built once and
// never mutated at runtime; only the thread's position changes.
type Graph struct {
	start NodeID
	nodes map[NodeID]*Node
}

func newGraph(start NodeID, nodes ...*Node) *Graph {
	g := &Graph{start: start, nodes: make(map[NodeID]*Node, len(nodes))}
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	return g
}

// StepResult is the outcome of advancing a thread by one logical step.
type StepResult struct {
	// Messages produced during the step, in emission order.
	Messages []oracle.Message
	// ArtifactRefs saved by chart tools during the step.
	ArtifactRefs []string
	// Suspended reports that the thread is parked awaiting user input.
	Suspended bool
	// Done reports that the thread reached the terminal state.
	Done bool
}

// Thread is the resumption token of one session: the node to resume at and,
// once terminal, the cached final result. Exactly one thread is active per
// session; the session layer serializes access.
type Thread struct {
	id     string
	graph  *Graph
	node   NodeID
	done   bool
	cached StepResult
}

// NewThread creates a thread positioned at the graph's start node.
func NewThread(g *Graph) *Thread {
	return &Thread{id: uuid.NewString(), graph: g, node: g.start}
}

// ID returns the thread's identity token.
func (t *Thread) ID() string { return t.id }

// Done reports whether the thread reached the terminal state.
func (t *Thread) Done() bool { return t.done }

// State carries everything a node may touch during one step. It is built
// per step by the session layer; nodes never retain it.
type State struct {
	Oracle          oracle.Oracle
	Dataset         *dataset.Dataset
	Registry        *tool.Registry
	Dispatcher      *tool.Dispatcher
	History         []oracle.Message
	Input           string
	Logger          logging.Logger
	ClassifyTimeout time.Duration

	out StepResult
}

// Say appends an assistant message to the step output.
func (s *State) Say(text string) {
	s.out.Messages = append(s.out.Messages, oracle.NewMessage(oracle.RoleAssistant, text))
}

// Emit appends a tool result to the step output, recording its artifact
// reference when present.
func (s *State) Emit(res tool.Result) {
	s.out.Messages = append(s.out.Messages, oracle.NewMessage(oracle.RoleTool, res.Text))
	if res.ArtifactRef != "" {
		s.out.ArtifactRefs = append(s.out.ArtifactRefs, res.ArtifactRef)
	}
}

// Classify invokes the oracle's classification contract bounded by the
// configured timeout. A label outside the set is returned as-is; callers
// route unrecognized labels to their fallback branch.
func (s *State) Classify(ctx context.Context, msgs []oracle.Message, labels []string) (string, error) {
	if s.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ClassifyTimeout)
		defer cancel()
	}
	label, err := s.Oracle.Classify(ctx, msgs, labels)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", oracle.ErrTimeout
		}
		return "", err
	}
	return label, nil
}

// logger returns the step logger, defaulting to no-op.
func (s *State) logger() logging.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.NoOpLogger{}
}

// Step advances the thread from its current node until it suspends, errors,
// or terminates. threadID must match the thread's identity; stepping a
// terminal thread returns the cached result without re-executing anything.
// On error the thread position is unchanged, so the step can be retried.
func (t *Thread) Step(ctx context.Context, threadID string, s *State) (StepResult, error) {
	if threadID != t.id {
		return StepResult{}, ErrThreadMismatch
	}
	if t.done {
		return t.cached, nil
	}
	g := t.graph

	// The step's first node consumes the fresh user input; any later node
	// flagged RequiresInput parks the thread until the next turn.
	fresh := true
	for i := 0; i < stepNodeLimit; i++ {
		node, ok := g.nodes[t.node]
		if !ok {
			t.done = true
			s.out.Done = true
			t.cached = s.out
			return s.out, nil
		}
		if node.RequiresInput && !fresh {
			s.out.Suspended = true
			s.logger().Debug("graph.suspend", "node", string(t.node))
			return s.out, nil
		}

		next, err := node.Run(ctx, s)
		if err != nil {
			s.logger().Warn("graph.node_error", "node", string(t.node), "error", err.Error())
			return StepResult{}, err
		}
		fresh = false
		t.node = next
		if next == End {
			t.done = true
			s.out.Done = true
			t.cached = s.out
			s.logger().Debug("graph.done")
			return s.out, nil
		}
	}
	return StepResult{}, errors.New("graph: step exceeded node limit")
}

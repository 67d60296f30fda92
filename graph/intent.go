package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RubenCasal/Data-Assistant/oracle"
	"github.com/RubenCasal/Data-Assistant/tool"
)

// Intent graph nodes. The router performs a two-level classification: a
// coarse split into data / help / unrelated, then, for data requests only,
// a split into the four tool branches. Every branch node is terminal.
const (
	nodeIntentStart NodeID = "intent_start"
	nodeRouteData   NodeID = "route_data"
	nodeModify      NodeID = "modify"
	nodeImpute      NodeID = "impute"
	nodeAnalyze     NodeID = "analyze"
	nodeVisualize   NodeID = "visualize"
	nodeHelp        NodeID = "help"
	nodeUnrelated   NodeID = "unrelated"
)

const highLevelPrompt = `You are a strict classifier for a data assistant.
Classify the user's last message into exactly one label:
A: the message asks to modify, clean, analyze or visualize the loaded dataset.
B: the message asks what the assistant can do or how to use it.
C: the message is unrelated to the loaded dataset.`

const dataIntentPrompt = `You are a strict classifier for a data assistant.
The user's message concerns the loaded dataset. Classify it into exactly one label:
A: filter rows, drop columns or otherwise modify the data.
B: handle missing values (imputation, filling, interpolation).
C: statistical analysis (statistics, correlations, frequencies, outliers, trends).
D: generate a chart or plot.`

const unrelatedReply = "I'm sorry, I can only help with questions about your loaded dataset. " +
	"You can ask me to filter or modify the data, handle missing values, run statistical analysis, or generate charts."

// NewIntentGraph builds the per-turn routing graph. The table is static;
// it is safe to share across sessions.
func NewIntentGraph() *Graph {
	return newGraph(nodeIntentStart,
		&Node{ID: nodeIntentStart, Run: runIntentStart},
		&Node{ID: nodeRouteData, Run: runRouteData},
		&Node{ID: nodeModify, Run: runModify},
		&Node{ID: nodeImpute, Run: runToolBranch(tool.GroupImpute, "impute")},
		&Node{ID: nodeAnalyze, Run: runToolBranch(tool.GroupAnalyze, "analyze")},
		&Node{ID: nodeVisualize, Run: runToolBranch(tool.GroupVisualize, "visualize")},
		&Node{ID: nodeHelp, Run: runHelp},
		&Node{ID: nodeUnrelated, Run: runUnrelated},
	)
}

func runIntentStart(ctx context.Context, s *State) (NodeID, error) {
	label, err := s.Classify(ctx, classificationContext(s, highLevelPrompt), []string{"A", "B", "C"})
	if err != nil {
		return nodeIntentStart, err
	}
	s.logger().Debug("graph.intent", "level", "high", "label", label)
	switch label {
	case "A":
		return nodeRouteData, nil
	case "B":
		return nodeHelp, nil
	default:
		// Unrecognized labels route to the fallback branch.
		return nodeUnrelated, nil
	}
}

func runRouteData(ctx context.Context, s *State) (NodeID, error) {
	label, err := s.Classify(ctx, classificationContext(s, dataIntentPrompt), []string{"A", "B", "C", "D"})
	if err != nil {
		return nodeRouteData, err
	}
	s.logger().Debug("graph.intent", "level", "data", "label", label)
	switch label {
	case "A":
		return nodeModify, nil
	case "B":
		return nodeImpute, nil
	case "C":
		return nodeAnalyze, nil
	case "D":
		return nodeVisualize, nil
	default:
		return nodeUnrelated, nil
	}
}

// runModify first extracts the target column so the tool selection prompt
// can carry the column's declared type.
func runModify(ctx context.Context, s *State) (NodeID, error) {
	labels := append(s.Dataset.ColumnNames(), "none")
	column, err := s.Classify(ctx, classificationContext(s,
		"Identify the dataset column the user's request refers to. Answer with the column name, or none."), labels)
	if err != nil {
		return nodeModify, err
	}

	var schemaHint string
	if m, err := s.Dataset.Meta(column); err == nil {
		schemaHint = fmt.Sprintf("The target column is %q with type %s and %d missing values.", m.Name, m.Type, m.Missing)
	}
	return dispatchBranch(ctx, s, tool.GroupModify, "modify", schemaHint)
}

// runToolBranch builds the shared branch behavior for the impute, analyze
// and visualize groups.
func runToolBranch(group tool.Group, name string) RunFunc {
	return func(ctx context.Context, s *State) (NodeID, error) {
		return dispatchBranch(ctx, s, group, name, "")
	}
}

func dispatchBranch(ctx context.Context, s *State, group tool.Group, name, schemaHint string) (NodeID, error) {
	sys := fmt.Sprintf(
		"You are a data assistant. Select the tool that fulfills the user's request.\nDataset columns:\n%s",
		describeColumns(s),
	)
	if schemaHint != "" {
		sys += "\n" + schemaHint
	}
	msgs := append([]oracle.Message{oracle.NewMessage(oracle.RoleSystem, sys)}, conversation(s)...)

	completion, err := s.invoke(ctx, msgs, s.Registry.Schemas(group))
	if err != nil {
		return NodeID(name), err
	}
	if len(completion.ToolCalls) == 0 {
		if completion.Content != "" {
			s.Say(completion.Content)
		} else {
			s.Say("I could not map your request to an available operation. Could you rephrase it?")
		}
		return End, nil
	}

	res := s.Dispatcher.Dispatch(s.Dataset, completion.ToolCalls)
	s.Emit(res)
	return End, nil
}

func runHelp(ctx context.Context, s *State) (NodeID, error) {
	sys := fmt.Sprintf(
		"You are a data assistant. Briefly explain what you can do with the user's dataset: "+
			"filter and modify data, handle missing values, run statistical analysis, and generate charts.\nDataset columns:\n%s",
		describeColumns(s),
	)
	msgs := append([]oracle.Message{oracle.NewMessage(oracle.RoleSystem, sys)}, conversation(s)...)
	completion, err := s.invoke(ctx, msgs, nil)
	if err != nil {
		return nodeHelp, err
	}
	s.Say(completion.Content)
	return End, nil
}

func runUnrelated(ctx context.Context, s *State) (NodeID, error) {
	s.Say(unrelatedReply)
	return End, nil
}

// invoke calls the tool-enabled oracle contract under the same timeout
// bound as classification.
func (s *State) invoke(ctx context.Context, msgs []oracle.Message, tools []oracle.ToolSchema) (*oracle.Completion, error) {
	if s.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ClassifyTimeout)
		defer cancel()
	}
	completion, err := s.Oracle.InvokeWithTools(ctx, msgs, tools)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, oracle.ErrTimeout
		}
		return nil, err
	}
	return completion, nil
}

// classificationContext builds the message list for a classification call:
// the instruction, the prior conversation, and the fresh user input.
func classificationContext(s *State, instruction string) []oracle.Message {
	msgs := []oracle.Message{oracle.NewMessage(oracle.RoleSystem, instruction)}
	return append(msgs, conversation(s)...)
}

// conversation returns the prior history followed by the step's user input.
func conversation(s *State) []oracle.Message {
	msgs := make([]oracle.Message, 0, len(s.History)+1)
	msgs = append(msgs, s.History...)
	if s.Input != "" {
		msgs = append(msgs, oracle.NewMessage(oracle.RoleUser, s.Input))
	}
	return msgs
}

// describeColumns renders the schema cache for prompt context.
func describeColumns(s *State) string {
	var b strings.Builder
	for _, m := range s.Dataset.Metadata() {
		fmt.Fprintf(&b, "- %s (%s, %d missing)\n", m.Name, m.Type, m.Missing)
	}
	return b.String()
}

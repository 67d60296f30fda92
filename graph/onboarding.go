package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/RubenCasal/Data-Assistant/oracle"
	"github.com/RubenCasal/Data-Assistant/tool"
)

// Onboarding graph nodes. The flow negotiates an optional date-range filter
// when the dataset carries datetime columns, then walks every column with
// missing values and lets the oracle pick an imputation tool for each.
const (
	nodeOnboardStart NodeID = "onboard_start"
	nodeRangeAnswer  NodeID = "range_answer"
	nodeDeclareRange NodeID = "declare_range"
	nodeApplyRange   NodeID = "apply_range"
	nodeMissingPass  NodeID = "missing_pass"
)

const yesNoPrompt = `Classify the user's answer as yes or no.
yes: the user wants to filter the data by a date range.
no: the user declines or asks for something else.`

// NewOnboardingGraph builds the dataset onboarding graph. Like the intent
// graph, the table is static and shared across sessions.
func NewOnboardingGraph() *Graph {
	return newGraph(nodeOnboardStart,
		&Node{ID: nodeOnboardStart, Run: runOnboardStart},
		&Node{ID: nodeRangeAnswer, RequiresInput: true, Run: runRangeAnswer},
		&Node{ID: nodeDeclareRange, Run: runDeclareRange},
		&Node{ID: nodeApplyRange, RequiresInput: true, Run: runApplyRange},
		&Node{ID: nodeMissingPass, Run: runMissingPass},
	)
}

func runOnboardStart(ctx context.Context, s *State) (NodeID, error) {
	if len(s.Dataset.DatetimeColumns()) == 0 {
		return nodeMissingPass, nil
	}
	s.Say("Your data contains date columns. Would you like to restrict it to a specific date range before we continue?")
	return nodeRangeAnswer, nil
}

func runRangeAnswer(ctx context.Context, s *State) (NodeID, error) {
	label, err := s.Classify(ctx, classificationContext(s, yesNoPrompt), []string{"yes", "no"})
	if err != nil {
		return nodeRangeAnswer, err
	}
	if label == "yes" {
		return nodeDeclareRange, nil
	}
	return nodeMissingPass, nil
}

func runDeclareRange(ctx context.Context, s *State) (NodeID, error) {
	s.Say(fmt.Sprintf(
		"Which date range should I keep? Available date columns: %s. "+
			"You can give explicit dates (dd-mm-yyyy) or a relative range such as the last two years.",
		strings.Join(s.Dataset.DatetimeColumns(), ", "),
	))
	return nodeApplyRange, nil
}

// runApplyRange turns the user's range description into a date_range call.
// Relative ranges arrive as nested current_date / shift_date arguments and
// are resolved by the dispatcher before the filter runs.
func runApplyRange(ctx context.Context, s *State) (NodeID, error) {
	sys := fmt.Sprintf(
		"You are a data assistant. Apply the date range the user describes with the date_range tool. "+
			"For relative ranges, pass current_date or shift_date as the bound arguments.\nDate columns: %s",
		strings.Join(s.Dataset.DatetimeColumns(), ", "),
	)
	msgs := append([]oracle.Message{oracle.NewMessage(oracle.RoleSystem, sys)}, conversation(s)...)

	completion, err := s.invoke(ctx, msgs, s.Registry.Schemas(tool.GroupModify))
	if err != nil {
		return nodeApplyRange, err
	}
	if len(completion.ToolCalls) == 0 {
		s.Say("I could not interpret that as a date range, so I kept all rows.")
		return nodeMissingPass, nil
	}
	s.Emit(s.Dispatcher.Dispatch(s.Dataset, completion.ToolCalls))
	return nodeMissingPass, nil
}

// runMissingPass walks the schema cache and, for every column with missing
// values, asks the oracle to pick an imputation tool and applies it,
// reporting the before and after missing counts.
func runMissingPass(ctx context.Context, s *State) (NodeID, error) {
	total := s.Dataset.Rows()
	handled := 0
	for _, m := range s.Dataset.Metadata() {
		if m.Missing == 0 {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = float64(m.Missing) / float64(total) * 100
		}
		sys := fmt.Sprintf(
			"You are a data assistant. Column %q has type %s with %d missing values (%.2f%% of %d rows). "+
				"Select the most appropriate imputation tool for this column and call it.",
			m.Name, m.Type, m.Missing, pct, total,
		)
		msgs := []oracle.Message{oracle.NewMessage(oracle.RoleSystem, sys)}

		completion, err := s.invoke(ctx, msgs, s.Registry.Schemas(tool.GroupImpute))
		if err != nil {
			return nodeMissingPass, err
		}
		if len(completion.ToolCalls) == 0 {
			s.Say(fmt.Sprintf("I left column '%s' untouched (%d missing values).", m.Name, m.Missing))
			continue
		}

		res := s.Dispatcher.Dispatch(s.Dataset, completion.ToolCalls)
		s.Emit(res)
		if !res.IsError {
			after := 0
			if updated, err := s.Dataset.Meta(m.Name); err == nil {
				after = updated.Missing
			}
			s.Say(fmt.Sprintf("Missing values in '%s': %d --> %d.", m.Name, m.Missing, after))
			handled++
		}
	}

	if handled == 0 {
		s.Say("Your data has no remaining missing values to handle. You can now ask me to modify, analyze or visualize it.")
	} else {
		s.Say("Missing-value handling is complete. You can now ask me to modify, analyze or visualize your data.")
	}
	return End, nil
}

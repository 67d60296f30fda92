package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/logging"
	"github.com/RubenCasal/Data-Assistant/oracle"
)

// BatchPolicy controls how a batch holding more than one tool call is
// reduced to a single turn result. The upstream behavior is last-wins;
// stricter deployments can require a single call or concatenate results.
type BatchPolicy int

const (
	// LastWins executes every call in order and keeps only the last result.
	LastWins BatchPolicy = iota
	// SingleOnly rejects batches holding more than one call.
	SingleOnly
	// Concatenate executes every call in order and joins the result texts.
	Concatenate
)

// DispatcherOptions configure batch reduction and logging.
type DispatcherOptions struct {
	Policy BatchPolicy
	Logger logging.Logger
}

// Dispatcher executes oracle-produced tool calls against a session's
// dataset. Mutations are all-or-nothing: handlers run against a clone that
// is committed only on success, and the schema cache is refreshed before
// the dispatcher returns.
type Dispatcher struct {
	registry *Registry
	opts     DispatcherOptions
}

// NewDispatcher builds a dispatcher over a session's registry.
func NewDispatcher(registry *Registry, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Policy: LastWins, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{registry: registry, opts: opts}
}

// Dispatch executes the calls in listed order and reduces them to one
// result per the batch policy. Handler failures, unknown tools and invalid
// arguments are converted to user-visible error results; the dataset is
// left untouched by any failed call and the session always continues.
func (d *Dispatcher) Dispatch(ds *dataset.Dataset, calls []oracle.ToolCall) Result {
	if len(calls) == 0 {
		return Result{Text: "No operation was selected for this request.", IsError: true}
	}
	if d.opts.Policy == SingleOnly && len(calls) > 1 {
		return Result{
			Text:    fmt.Sprintf("Expected exactly one operation per request, got %d.", len(calls)),
			IsError: true,
		}
	}

	var last Result
	var texts []string
	for _, call := range calls {
		res := d.dispatchOne(ds, call)
		last = res
		texts = append(texts, res.Text)
	}
	if d.opts.Policy == Concatenate && len(texts) > 1 {
		last.Text = strings.Join(texts, "\n")
	}
	return last
}

// dispatchOne resolves nested arguments, validates, and executes a single
// call with copy-then-commit semantics.
func (d *Dispatcher) dispatchOne(ds *dataset.Dataset, call oracle.ToolCall) Result {
	logger := d.opts.Logger
	desc, err := d.registry.Get(call.Name)
	if err != nil {
		logger.Warn("tool.dispatch.unknown", "tool", call.Name)
		return Result{Text: err.Error(), IsError: true}
	}

	args, err := d.resolveNestedArgs(ds, call)
	if err != nil {
		logger.Warn("tool.dispatch.nested_failed", "tool", call.Name, "error", err.Error())
		return Result{Text: err.Error(), IsError: true}
	}

	if err := validateArgs(args, desc.Params); err != nil {
		logger.Warn("tool.dispatch.validation_failed", "tool", call.Name, "error", err.Error())
		return Result{Text: err.Error(), IsError: true}
	}

	start := time.Now()
	work := ds.Clone()
	res, err := runHandler(desc, work, args)
	if err != nil {
		logger.Error("tool.dispatch.error", "tool", call.Name, "error", err.Error())
		return Result{Text: err.Error(), IsError: true}
	}

	// Commit the successfully mutated clone and enforce the schema cache
	// invariant in one step.
	work.RefreshMeta()
	ds.ReplaceWith(work)

	logger.Info("tool.dispatch.success", "tool", call.Name, "duration_ms", time.Since(start).Milliseconds())
	return res
}

// runHandler invokes the handler with panic recovery so a faulty operation
// can never abort the session.
func runHandler(desc *Descriptor, ds *dataset.Dataset, args map[string]any) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s failed: %v", desc.Name, r)
		}
	}()
	return desc.Handler(ds, args)
}

// resolveNestedArgs scans string arguments for values naming a registered
// tool and executes those dependents first, substituting their textual
// output. Resolution is exactly one level deep: dependent arguments are not
// scanned again, so cycles are structurally impossible.
func (d *Dispatcher) resolveNestedArgs(ds *dataset.Dataset, call oracle.ToolCall) (map[string]any, error) {
	args := make(map[string]any, len(call.Args))
	for k, v := range call.Args {
		args[k] = v
	}
	for key, value := range args {
		name, ok := value.(string)
		if !ok || !d.registry.Has(name) {
			continue
		}
		dep, err := d.registry.Get(name)
		if err != nil {
			return nil, err
		}
		depArgs := synthesizeDependentArgs(name, call.Args)
		res, err := runHandler(dep, ds.Clone(), depArgs)
		if err != nil {
			return nil, fmt.Errorf("resolve dependent tool %s: %w", name, err)
		}
		d.opts.Logger.Debug("tool.dispatch.nested_resolved", "tool", call.Name, "dependent", name, "arg", key)
		args[key] = res.Text
	}
	return args, nil
}

// synthesizeDependentArgs applies the fixed synthesis rules for known
// dependent tools: shift_date receives the already-resolved current date
// plus the outer call's operation and year count. Other dependents run with
// no arguments.
func synthesizeDependentArgs(name string, outer map[string]any) map[string]any {
	if name != "shift_date" {
		return map[string]any{}
	}
	return map[string]any{
		"date":      time.Now().Format(userDateLayout),
		"operation": stringArg(outer, "operation", "subtract"),
		"years":     float64(intArg(outer, "years", 0)),
	}
}

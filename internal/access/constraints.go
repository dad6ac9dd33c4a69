package access

import (
	"fmt"
	"time"

	"github.com/justinvest/justinvest/internal/shared"
)

// Evaluator decides whether a session context satisfies one role constraint.
type Evaluator interface {
	Evaluate(ctx SessionContext) Decision
}

// Builder constructs an Evaluator from raw constraint parameters. Malformed
// parameters fail the build, not evaluation.
type Builder func(params map[string]string) (Evaluator, error)

// Registry maps constraint type discriminators to builders. New constraint
// kinds register a builder; the engine's decision path never changes.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry with the built-in constraint types.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.Register("time_window", buildTimeWindow)
	return r
}

// Register adds or replaces the builder for a constraint type.
func (r *Registry) Register(constraintType string, build Builder) {
	r.builders[constraintType] = build
}

// Build constructs the evaluator for a constraint definition.
func (r *Registry) Build(def ConstraintDefinition) (Evaluator, error) {
	build, ok := r.builders[def.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedConstraint, def.Type)
	}
	return build(def.Params)
}

const clockLayout = "15:04"

// timeWindow grants access only when the as-of time of day falls inside
// [start, end], bounds inclusive. Times are minutes since midnight.
type timeWindow struct {
	start int
	end   int
}

func buildTimeWindow(params map[string]string) (Evaluator, error) {
	startRaw := params["start"]
	endRaw := params["end"]
	if startRaw == "" || endRaw == "" {
		return nil, fmt.Errorf("%w: time_window constraint requires 'start' and 'end'", shared.ErrValidation)
	}
	start, err := parseClock(startRaw)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(endRaw)
	if err != nil {
		return nil, err
	}
	return timeWindow{start: start, end: end}, nil
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse(clockLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q, want 24-hour HH:MM", shared.ErrValidation, raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func (w timeWindow) Evaluate(ctx SessionContext) Decision {
	current := ctx.AsOf.Hour()*60 + ctx.AsOf.Minute()
	if current >= w.start && current <= w.end {
		return Decision{Granted: true}
	}
	return Decision{
		Granted: false,
		Reason:  fmt.Sprintf("Access restricted to business hours %s-%s.", formatClock(w.start), formatClock(w.end)),
	}
}

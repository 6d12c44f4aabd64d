package rule

import "errors"

// Errors crossing the rule boundary. Execution and output errors are
// scoped to a single page: callers report them and move on, they never
// abort a batch run.
var (
	// ErrRuleExecution wraps an exception or interrupt raised inside a
	// rule function.
	ErrRuleExecution = errors.New("rule execution failed")

	// ErrRuleOutput marks a rule return value that does not match the
	// declared schema. The value is rejected, never coerced.
	ErrRuleOutput = errors.New("rule returned malformed output")

	// ErrNoRule is returned when no loaded module covers the requested
	// page type, or the module does not define the requested function.
	ErrNoRule = errors.New("no rule for page type")

	// ErrDuplicateTypeID is returned at load time when two rule
	// modules declare the same TYPE_ID. Each page type maps to at most
	// one module.
	ErrDuplicateTypeID = errors.New("duplicate rule type id")
)

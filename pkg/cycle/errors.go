package cycle

import "strings"

// AggregatedError collects the errors of several runnables into one.
type AggregatedError struct {
	Errors []error
}

// Add appends non-nil errors.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns nil when nothing failed, the sole error when one
// runnable failed, and the aggregate otherwise.
func (e *AggregatedError) Aggregate() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}

// Error implements error.
func (e *AggregatedError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors:")
	for _, err := range e.Errors {
		sb.WriteString("\n")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

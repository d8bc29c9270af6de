package domain

import (
	"context"
	"io"
	"time"
)

// ReportWriter sends a rendered report to its destination. A non-empty
// outputPath is created or truncated and handed to writeFunc; otherwise
// writeFunc receives writer. Implementations may print a status line naming
// the file.
type ReportWriter interface {
	Write(writer io.Writer, outputPath string, format OutputFormat, writeFunc func(io.Writer) error) error
}

// ProgressManager reports how many methods of a batch are done
type ProgressManager interface {
	// Initialize sets the number of methods in the batch
	Initialize(maxValue int)

	Start()

	// Update reports processed of total methods done
	Update(processed, total int)

	// Complete finishes the bar; success is false when the batch was cut short
	Complete(success bool)

	// SetWriter redirects the bar; non-terminal writers disable drawing
	SetWriter(writer io.Writer)

	IsInteractive() bool

	Close()
}

// ParallelExecutor runs independent tasks with bounded concurrency. A
// failing task does not stop the others.
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error

	// SetMaxConcurrency bounds the tasks running at once; 0 means one per CPU
	SetMaxConcurrency(max int)

	// SetTimeout bounds the whole batch; 0 disables it
	SetTimeout(timeout time.Duration)

	// OnTaskDone registers a callback receiving the number of finished tasks
	OnTaskDone(fn func(done int))
}

// ExecutableTask is one unit of work for a ParallelExecutor
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)

	// IsEnabled reports whether the task should run at all
	IsEnabled() bool
}

// ErrorCategory groups errors for user-facing reporting
type ErrorCategory string

const (
	ErrorCategoryInput      ErrorCategory = "Input Error"
	ErrorCategoryConfig     ErrorCategory = "Configuration Error"
	ErrorCategoryProcessing ErrorCategory = "Processing Error"
	ErrorCategoryOutput     ErrorCategory = "Output Error"
	ErrorCategoryTimeout    ErrorCategory = "Timeout Error"
	ErrorCategoryUnknown    ErrorCategory = "Unknown Error"
)

// CategorizedError is an error together with its reporting category
type CategorizedError struct {
	Category ErrorCategory
	Message  string
	Original error
}

func (e *CategorizedError) Error() string {
	if e.Original != nil {
		return e.Original.Error()
	}
	return e.Message
}

// ErrorCategorizer maps errors to categories and recovery hints
type ErrorCategorizer interface {
	Categorize(err error) *CategorizedError
	GetRecoverySuggestions(category ErrorCategory) []string
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ludo-technologies/flowstruct/domain"
)

type categoryPatterns struct {
	category domain.ErrorCategory
	patterns []string
}

// ErrorCategorizerImpl implements the ErrorCategorizer interface
type ErrorCategorizerImpl struct {
	patterns []categoryPatterns
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() domain.ErrorCategorizer {
	return &ErrorCategorizerImpl{
		patterns: initializeErrorPatterns(),
	}
}

// codeCategories maps domain error codes to categories
var codeCategories = map[string]domain.ErrorCategory{
	domain.ErrCodeInvalidInput:        domain.ErrorCategoryInput,
	domain.ErrCodeFileNotFound:        domain.ErrorCategoryInput,
	domain.ErrCodeParseError:          domain.ErrorCategoryInput,
	domain.ErrCodeConfigError:         domain.ErrorCategoryConfig,
	domain.ErrCodeOutputError:         domain.ErrorCategoryOutput,
	domain.ErrCodeUnsupportedFormat:   domain.ErrorCategoryOutput,
	domain.ErrCodeAnalysisError:       domain.ErrorCategoryProcessing,
	domain.ErrCodeInternalConsistency: domain.ErrorCategoryProcessing,
}

// initializeErrorPatterns returns the message patterns checked, in order,
// for errors without a domain code
func initializeErrorPatterns() []categoryPatterns {
	return []categoryPatterns{
		{domain.ErrorCategoryTimeout, []string{
			"timeout",
			"deadline",
			"context canceled",
			"operation timed out",
		}},
		{domain.ErrorCategoryConfig, []string{
			"config",
			"configuration",
			"toml",
			"invalid settings",
		}},
		{domain.ErrorCategoryInput, []string{
			"invalid input",
			"no graph documents",
			"not a graph document",
			"file not found",
			"no such file",
			"directory",
			"permission denied",
		}},
		{domain.ErrorCategoryOutput, []string{
			"write",
			"output",
			"cannot create",
			"report generated",
		}},
		{domain.ErrorCategoryProcessing, []string{
			"decode",
			"structure",
			"consistency",
			"irreducible",
			"pass limit",
		}},
	}
}

// Categorize determines the category of an error. Domain error codes take
// precedence over message patterns.
func (ec *ErrorCategorizerImpl) Categorize(err error) *domain.CategorizedError {
	if err == nil {
		return nil
	}

	category := domain.ErrorCategoryUnknown
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		category = domain.ErrorCategoryTimeout
	default:
		if c, ok := codeCategories[domain.ErrorCode(err)]; ok {
			category = c
		} else {
			errMsg := strings.ToLower(err.Error())
			for _, cp := range ec.patterns {
				if containsAnyPattern(errMsg, cp.patterns) {
					category = cp.category
					break
				}
			}
		}
	}

	message := err.Error()
	if category != domain.ErrorCategoryUnknown {
		message = ec.getCategoryMessage(category)
	}
	return &domain.CategorizedError{
		Category: category,
		Message:  message,
		Original: err,
	}
}

// GetRecoverySuggestions returns recovery suggestions for an error category
func (ec *ErrorCategorizerImpl) GetRecoverySuggestions(category domain.ErrorCategory) []string {
	suggestions := map[domain.ErrorCategory][]string{
		domain.ErrorCategoryInput: {
			"Check that the paths exist and contain .yaml, .json or .msgpack graph documents",
			"Try: flowstruct structure . --verbose to see file discovery",
			"Check every block id, successor and handler of the rejected method",
		},
		domain.ErrorCategoryConfig: {
			"Verify configuration file format and values",
			"Try: flowstruct init to generate a valid config file",
			"Check for syntax errors in .flowstruct.toml",
		},
		domain.ErrorCategoryTimeout: {
			"Raise --method-timeout or --timeout",
			"Restrict the run with --method to isolate slow methods",
			"Lower --max-passes to fail fast on pathological graphs",
		},
		domain.ErrorCategoryOutput: {
			"Check write permissions of the output path",
			"Ensure the output directory exists and is writable",
			"Try writing to a different location with --output",
		},
		domain.ErrorCategoryProcessing: {
			"Run with --verify to locate the broken statement tree",
			"Structure the failing method alone with --method",
			"Report the graph document if the failure persists",
		},
		domain.ErrorCategoryUnknown: {
			"Run with --verbose for detailed error information",
			"Report the issue if it persists",
		},
	}

	if sug, ok := suggestions[category]; ok {
		return sug
	}
	return []string{"Check the error message for more details"}
}

// getCategoryMessage returns a user-friendly message for an error category
func (ec *ErrorCategorizerImpl) getCategoryMessage(category domain.ErrorCategory) string {
	messages := map[domain.ErrorCategory]string{
		domain.ErrorCategoryInput:      "Failed to read graph documents",
		domain.ErrorCategoryConfig:     "Configuration file or settings error",
		domain.ErrorCategoryTimeout:    "Structuring timed out",
		domain.ErrorCategoryOutput:     "Failed to generate or write output",
		domain.ErrorCategoryProcessing: "Error while structuring",
		domain.ErrorCategoryUnknown:    "An unexpected error occurred",
	}

	if msg, ok := messages[category]; ok {
		return msg
	}
	return "An error occurred"
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}

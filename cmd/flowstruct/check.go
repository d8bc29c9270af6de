package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/spf13/cobra"
)

// CheckCommand reports methods that could not be fully structured
type CheckCommand struct {
	configFile string
	quiet      bool

	allowIrreducible bool

	recursive       bool
	includePatterns []string
	excludePatterns []string
	methods         []string

	jobs          int
	methodTimeout time.Duration
	timeout       time.Duration
	noCache       bool
}

// NewCheckCommand creates a new check command
func NewCheckCommand() *CheckCommand {
	return &CheckCommand{
		recursive: true,
	}
}

// CreateCobraCommand creates the cobra command for checking
func (c *CheckCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Fail when a method cannot be fully structured",
		Long: `Structure every method and report the ones that end irreducible, run
out of budget or are rejected as malformed.

Exit codes:
  0: every method was structured
  1: problem methods were found, or the run itself failed

Examples:
  # Check graph documents below the current directory
  flowstruct check

  # Only fail on aborted and failed methods
  flowstruct check --allow-irreducible graphs/`,
		RunE: c.runCheck,
	}

	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "Suppress output unless problems are found")
	cmd.Flags().BoolVar(&c.allowIrreducible, "allow-irreducible", false, "Do not fail on irreducible methods")

	addInputFlags(cmd, &c.recursive, &c.includePatterns, &c.excludePatterns, &c.methods)
	addExecutionFlags(cmd, &c.jobs, &c.methodTimeout, &c.timeout, &c.noCache)

	return cmd
}

// runCheck executes the check command
func (c *CheckCommand) runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	if !c.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "🔍 Checking control-flow graphs in %s...\n", strings.Join(args, ", "))
	}

	request := domain.StructureRequest{
		Paths:             args,
		Methods:           c.methods,
		OutputFormat:      domain.OutputFormatText,
		OutputWriter:      io.Discard,
		ConfigPath:        c.configFile,
		Recursive:         c.recursive,
		IncludePatterns:   c.includePatterns,
		ExcludePatterns:   c.excludePatterns,
		RefineLoops:       true,
		BuildSynchronized: true,
		CondenseSequences: true,
		LabelEdges:        true,
		MethodTimeout:     c.methodTimeout,
		Timeout:           c.timeout,
		MaxGoroutines:     c.jobs,
		UseCache:          !c.noCache,
	}

	response, err := executeStructure(cmd, request, GetExplicitFlags(cmd), false)
	if err != nil {
		return err
	}

	problems := c.reportProblems(cmd.ErrOrStderr(), response)
	if problems > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ Found %d problem method(s)\n", problems)
		return fmt.Errorf("found %d problem method(s)", problems)
	}

	if !c.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "✅ %d method(s) structured\n", response.Summary.TotalMethods)
	}
	return nil
}

// reportProblems prints one line per problem method in file: method: detail
// form and returns how many count against the check
func (c *CheckCommand) reportProblems(w io.Writer, response *domain.StructureResponse) int {
	count := 0
	for i := range response.Methods {
		m := &response.Methods[i]
		switch m.Status {
		case domain.MethodIrreducible:
			if c.allowIrreducible {
				continue
			}
			fmt.Fprintf(w, "%s: %s: irreducible (%d region(s))\n", m.File, m.QualifiedName(), m.IrreducibleCount)
		case domain.MethodAborted, domain.MethodFailed:
			detail := m.Error
			if detail == "" {
				detail = strings.Join(m.Comments, "; ")
			}
			fmt.Fprintf(w, "%s: %s: %s: %s\n", m.File, m.QualifiedName(), m.Status, detail)
		default:
			continue
		}
		count++
	}
	for _, e := range response.Errors {
		fmt.Fprintf(w, "%s\n", e)
		count++
	}
	return count
}

// NewCheckCmd creates and returns the check cobra command
func NewCheckCmd() *cobra.Command {
	return NewCheckCommand().CreateCobraCommand()
}

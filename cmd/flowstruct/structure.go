package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ludo-technologies/flowstruct/app"
	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/service"
	"github.com/spf13/cobra"
)

// StructureCommand represents the structure command
type StructureCommand struct {
	// Output format flags (only one should be true)
	json    bool
	yaml    bool
	dot     bool
	msgpack bool

	outputPath string
	configFile string

	// Input
	recursive       bool
	includePatterns []string
	excludePatterns []string
	methods         []string

	// Engine
	maxPasses      int
	verify         bool
	noRefineLoops  bool
	noSynchronized bool
	noCondense     bool
	noLabels       bool
	mergeIfs       bool
	condenseLoops  bool

	// Execution
	jobs          int
	methodTimeout time.Duration
	timeout       time.Duration
	noCache       bool

	// Display
	showIDs bool
	tokens  bool
	noColor bool
}

// NewStructureCommand creates a new structure command
func NewStructureCommand() *StructureCommand {
	return &StructureCommand{
		recursive: true,
	}
}

// CreateCobraCommand creates the cobra command for structuring
func (c *StructureCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure [paths...]",
		Short: "Structure the control-flow graphs of graph documents",
		Long: `Recover structured statements from the control-flow graphs stored in
graph documents (.yaml, .yml, .json or .msgpack).

Every method is structured independently. A method whose graph is rejected,
whose budget runs out or that stays irreducible is reported without stopping
the others.

Settings are read from .flowstruct.toml (see 'flowstruct init'); flags given
on the command line take precedence.

Examples:
  # Structure every document under graphs/
  flowstruct structure graphs/

  # Show the token stream of matching methods
  flowstruct structure --tokens --method 'run*' app.yaml

  # Graphviz output of the statement trees
  flowstruct structure --dot -o trees.dot graphs/

  # JSON report without touching the result cache
  flowstruct structure --json --no-cache graphs/`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runStructure,
	}

	// Output format flags
	cmd.Flags().BoolVar(&c.json, "json", false, "Generate JSON report")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Generate YAML report")
	cmd.Flags().BoolVar(&c.dot, "dot", false, "Generate Graphviz DOT of the statement trees")
	cmd.Flags().BoolVar(&c.msgpack, "msgpack", false, "Generate MessagePack report")
	cmd.Flags().StringVarP(&c.outputPath, "output", "o", "", "Write the report to this file")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")

	addInputFlags(cmd, &c.recursive, &c.includePatterns, &c.excludePatterns, &c.methods)

	cmd.Flags().IntVar(&c.maxPasses, "max-passes", 0, "Recognizer passes per method (0 derives it from the graph size)")
	cmd.Flags().BoolVar(&c.verify, "verify", false, "Validate every statement tree after structuring")
	cmd.Flags().BoolVar(&c.noRefineLoops, "no-refine-loops", false, "Keep infinite loops instead of while/do-while")
	cmd.Flags().BoolVar(&c.noSynchronized, "no-synchronized", false, "Do not recognize synchronized blocks")
	cmd.Flags().BoolVar(&c.noCondense, "no-condense", false, "Keep nested sequences")
	cmd.Flags().BoolVar(&c.noLabels, "no-labels", false, "Skip break/continue and label decisions")
	cmd.Flags().BoolVar(&c.mergeIfs, "merge-ifs", false, "Fold nested and chained ifs into compound conditions")
	cmd.Flags().BoolVar(&c.condenseLoops, "condense-loops", false, "Turn infinite loops that return from their tail into while loops")

	addExecutionFlags(cmd, &c.jobs, &c.methodTimeout, &c.timeout, &c.noCache)

	cmd.Flags().BoolVar(&c.showIDs, "show-ids", false, "Show statement ids in the text report")
	cmd.Flags().BoolVar(&c.tokens, "tokens", false, "Include the token stream of every method")
	cmd.Flags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// addInputFlags registers the document selection flags shared by commands
func addInputFlags(cmd *cobra.Command, recursive *bool, include, exclude, methods *[]string) {
	cmd.Flags().BoolVarP(recursive, "recursive", "r", true, "Search directories recursively")
	cmd.Flags().StringSliceVar(include, "include", nil, "Glob patterns of documents to include")
	cmd.Flags().StringSliceVar(exclude, "exclude", nil, "Glob patterns of documents to exclude")
	cmd.Flags().StringSliceVar(methods, "method", nil, "Only structure methods matching these glob patterns")
}

// addExecutionFlags registers the concurrency and cache flags shared by commands
func addExecutionFlags(cmd *cobra.Command, jobs *int, methodTimeout, timeout *time.Duration, noCache *bool) {
	cmd.Flags().IntVarP(jobs, "jobs", "j", 0, "Methods structured in parallel (0 uses the configured value)")
	cmd.Flags().DurationVar(methodTimeout, "method-timeout", 0, "Time limit per method, e.g. 500ms")
	cmd.Flags().DurationVar(timeout, "timeout", 0, "Time limit for the whole run, e.g. 5m")
	cmd.Flags().BoolVar(noCache, "no-cache", false, "Do not read or write the result cache")
}

// runStructure executes the structure command
func (c *StructureCommand) runStructure(cmd *cobra.Command, args []string) error {
	request, err := c.buildRequest(cmd, args)
	if err != nil {
		return fmt.Errorf("invalid command arguments: %w", err)
	}

	_, err = executeStructure(cmd, request, GetExplicitFlags(cmd), true)
	return err
}

// buildRequest creates a domain request from CLI flags
func (c *StructureCommand) buildRequest(cmd *cobra.Command, args []string) (domain.StructureRequest, error) {
	format, extension, err := service.NewOutputFormatResolver().Determine(c.json, c.yaml, c.dot, c.msgpack)
	if err != nil {
		return domain.StructureRequest{}, err
	}

	outputPath := c.outputPath
	if outputPath == "" && format != domain.OutputFormatText {
		outputPath, err = generateOutputFilePath("structure", extension, c.configFile, getTargetPathFromArgs(args))
		if err != nil {
			return domain.StructureRequest{}, err
		}
	}

	return domain.StructureRequest{
		Paths:             args,
		Methods:           c.methods,
		OutputFormat:      format,
		OutputWriter:      cmd.OutOrStdout(),
		OutputPath:        outputPath,
		ShowIDs:           c.showIDs,
		ShowTokens:        c.tokens,
		Color:             !c.noColor,
		ConfigPath:        c.configFile,
		Recursive:         c.recursive,
		IncludePatterns:   c.includePatterns,
		ExcludePatterns:   c.excludePatterns,
		MaxPasses:         c.maxPasses,
		Verify:            c.verify,
		RefineLoops:       !c.noRefineLoops,
		BuildSynchronized: !c.noSynchronized,
		CondenseSequences: !c.noCondense,
		LabelEdges:        !c.noLabels,
		MergeIfs:          c.mergeIfs,
		CondenseLoops:     c.condenseLoops,
		MethodTimeout:     c.methodTimeout,
		Timeout:           c.timeout,
		MaxGoroutines:     c.jobs,
		UseCache:          !c.noCache,
	}, nil
}

// executeStructure wires the use case and runs it. Failures are categorized
// and printed with recovery suggestions.
func executeStructure(cmd *cobra.Command, request domain.StructureRequest, explicitFlags map[string]bool, showProgress bool) (*domain.StructureResponse, error) {
	logger := newLogger(cmd)

	reader := service.NewGraphReader()
	structureService := service.NewStructureService(reader)
	structureService.SetLogger(logger)
	if showProgress {
		progress := service.NewProgressManager()
		progress.SetWriter(cmd.ErrOrStderr())
		structureService.WithProgress(progress)
	}

	configLoader := service.NewConfigurationLoaderWithFlags(explicitFlags).
		WithTarget(getTargetPathFromArgs(request.Paths))

	useCase, err := app.NewStructureUseCaseBuilder().
		WithService(structureService).
		WithReader(reader).
		WithFormatter(service.NewOutputFormatter()).
		WithConfigLoader(configLoader).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		WithCacheOpener(app.DiskCacheOpener).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize structurer: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	response, err := useCase.Execute(ctx, request)
	if err != nil {
		printRecoverySuggestions(cmd, err)
		return response, err
	}
	return response, nil
}

// printRecoverySuggestions prints helpful suggestions for a failed run
func printRecoverySuggestions(cmd *cobra.Command, err error) {
	categorizer := service.NewErrorCategorizer()
	categorized := categorizer.Categorize(err)
	if categorized == nil {
		return
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s\n", categorized.Message)
	fmt.Fprintf(cmd.ErrOrStderr(), "\n💡 Recovery Suggestions:\n")
	for _, s := range categorizer.GetRecoverySuggestions(categorized.Category) {
		fmt.Fprintf(cmd.ErrOrStderr(), "  • %s\n", s)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
}

// NewStructureCmd creates and returns the structure cobra command
func NewStructureCmd() *cobra.Command {
	return NewStructureCommand().CreateCobraCommand()
}

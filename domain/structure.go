package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText    OutputFormat = "text"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatYAML    OutputFormat = "yaml"
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatMsgpack OutputFormat = "msgpack"
)

// ParseOutputFormat converts a format name into an OutputFormat
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(name) {
	case "":
		return OutputFormatText, nil
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatDOT, OutputFormatMsgpack:
		return OutputFormat(name), nil
	default:
		return "", NewUnsupportedFormatError(name)
	}
}

// MethodStatus is the outcome of structuring one method
type MethodStatus string

const (
	// MethodStructured means every region became a structured statement
	MethodStructured MethodStatus = "structured"
	// MethodIrreducible means at least one region stayed a general statement
	MethodIrreducible MethodStatus = "irreducible"
	// MethodAborted means cancellation, the timeout or the pass budget stopped the run
	MethodAborted MethodStatus = "aborted"
	// MethodFailed means the method was rejected or hit an internal error
	MethodFailed MethodStatus = "failed"
)

// Problem reports whether the status needs attention
func (s MethodStatus) Problem() bool {
	return s != MethodStructured
}

// StructureRequest represents a request for structuring control-flow graphs
type StructureRequest struct {
	// Input graph documents or directories
	Paths []string

	// Methods restricts the run to method names matching these glob
	// patterns; empty means all
	Methods []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	ShowIDs      bool
	ShowTokens   bool
	Color        bool

	// Configuration
	ConfigPath string

	// Input options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Engine options
	MaxPasses         int
	Verify            bool
	RefineLoops       bool
	BuildSynchronized bool
	CondenseSequences bool
	LabelEdges        bool
	MergeIfs          bool
	CondenseLoops     bool

	// Execution
	MethodTimeout time.Duration
	Timeout       time.Duration
	MaxGoroutines int

	// Result cache
	UseCache bool
	CacheDir string
}

// Token is one element of the abstract token stream of a method
type Token struct {
	Kind   string `json:"kind" yaml:"kind" msgpack:"kind"`
	Text   string `json:"text" yaml:"text" msgpack:"text"`
	Depth  int    `json:"depth" yaml:"depth" msgpack:"depth"`
	Node   int    `json:"node" yaml:"node" msgpack:"node"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty" msgpack:"detail,omitempty"`
}

// MethodResult is the structuring result of a single method
type MethodResult struct {
	File   string       `json:"file" yaml:"file" msgpack:"file"`
	Class  string       `json:"class,omitempty" yaml:"class,omitempty" msgpack:"class,omitempty"`
	Method string       `json:"method" yaml:"method" msgpack:"method"`
	Status MethodStatus `json:"status" yaml:"status" msgpack:"status"`

	// Error and ErrorCode are set for failed methods
	Error     string `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty" yaml:"error_code,omitempty" msgpack:"error_code,omitempty"`

	Comments []string `json:"comments,omitempty" yaml:"comments,omitempty" msgpack:"comments,omitempty"`

	// Graph size
	Blocks int `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Edges  int `json:"edges" yaml:"edges" msgpack:"edges"`

	// Driver counters
	Passes           int `json:"passes" yaml:"passes" msgpack:"passes"`
	Merges           int `json:"merges" yaml:"merges" msgpack:"merges"`
	Generals         int `json:"generals" yaml:"generals" msgpack:"generals"`
	IrreducibleCount int `json:"irreducible_regions" yaml:"irreducible_regions" msgpack:"irreducible_regions"`

	// Statements counts the statements of the final tree by kind
	Statements map[string]int `json:"statements,omitempty" yaml:"statements,omitempty" msgpack:"statements,omitempty"`

	// Hash is the structural digest of the final tree
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty" msgpack:"hash,omitempty"`

	Tokens []Token `json:"tokens,omitempty" yaml:"tokens,omitempty" msgpack:"tokens,omitempty"`
	DOT    string  `json:"-" yaml:"-" msgpack:"dot,omitempty"`

	DurationMs int64 `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`
	Cached     bool  `json:"cached,omitempty" yaml:"cached,omitempty" msgpack:"-"`
}

// QualifiedName returns class.method, or the method alone
func (m *MethodResult) QualifiedName() string {
	if m.Class == "" {
		return m.Method
	}
	return m.Class + "." + m.Method
}

// StructureSummary represents aggregate statistics
type StructureSummary struct {
	FilesAnalyzed int `json:"files_analyzed" yaml:"files_analyzed" msgpack:"files_analyzed"`
	TotalMethods  int `json:"total_methods" yaml:"total_methods" msgpack:"total_methods"`
	Structured    int `json:"structured" yaml:"structured" msgpack:"structured"`
	Irreducible   int `json:"irreducible" yaml:"irreducible" msgpack:"irreducible"`
	Aborted       int `json:"aborted" yaml:"aborted" msgpack:"aborted"`
	Failed        int `json:"failed" yaml:"failed" msgpack:"failed"`
	CacheHits     int `json:"cache_hits" yaml:"cache_hits" msgpack:"cache_hits"`
}

// Add counts one method result
func (s *StructureSummary) Add(m *MethodResult) {
	s.TotalMethods++
	switch m.Status {
	case MethodStructured:
		s.Structured++
	case MethodIrreducible:
		s.Irreducible++
	case MethodAborted:
		s.Aborted++
	default:
		s.Failed++
	}
	if m.Cached {
		s.CacheHits++
	}
}

// StructureResponse represents the complete structuring result
type StructureResponse struct {
	Methods []MethodResult   `json:"methods" yaml:"methods" msgpack:"methods"`
	Summary StructureSummary `json:"summary" yaml:"summary" msgpack:"summary"`

	// Warnings and issues
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty" msgpack:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors,omitempty"`

	// Metadata
	GeneratedAt string `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Version     string `json:"version" yaml:"version" msgpack:"version"`
}

// HasProblems reports whether any method is irreducible, aborted or failed
func (r *StructureResponse) HasProblems() bool {
	return r.Summary.Irreducible+r.Summary.Aborted+r.Summary.Failed > 0 || len(r.Errors) > 0
}

// StructureService defines the core business logic for structuring
type StructureService interface {
	// Structure reads every graph document of the request and structures
	// all of its methods
	Structure(ctx context.Context, req StructureRequest) (*StructureResponse, error)

	// StructureDocument structures the methods of an already decoded
	// document; source names the document in results
	StructureDocument(ctx context.Context, doc *GraphDocument, source string, req StructureRequest) ([]MethodResult, error)
}

// GraphReader defines the interface for collecting and decoding graph documents
type GraphReader interface {
	// CollectGraphFiles finds all graph documents in the given paths
	CollectGraphFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadDocument reads and decodes a graph document
	ReadDocument(path string) (*GraphDocument, error)

	// IsGraphFile checks if a file has a supported document extension
	IsGraphFile(path string) bool

	// FileExists checks if a file exists
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting structuring results
type OutputFormatter interface {
	// Format formats the response according to the specified format
	Format(response *StructureResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *StructureResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*StructureRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *StructureRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *StructureRequest, override *StructureRequest) *StructureRequest
}

// ResultCache stores method results keyed by a digest of their input
type ResultCache interface {
	// Get returns the cached result for key
	Get(key string) (*MethodResult, bool, error)

	// Put stores the result under key
	Put(key string, result *MethodResult) error
}

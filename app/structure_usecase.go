package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ludo-technologies/flowstruct/domain"
	svc "github.com/ludo-technologies/flowstruct/service"
)

// CacheOpener opens the persisted result cache rooted at dir
type CacheOpener func(dir string) (domain.ResultCache, error)

// cacheSetter is implemented by services that accept a result cache after
// construction
type cacheSetter interface {
	SetCache(cache domain.ResultCache)
}

// requestAware is implemented by formatters that take display options from
// the merged request
type requestAware interface {
	ApplyRequest(req *domain.StructureRequest)
}

// StructureUseCase orchestrates the structuring workflow
type StructureUseCase struct {
	service      domain.StructureService
	reader       domain.GraphReader
	formatter    domain.OutputFormatter
	configLoader domain.ConfigurationLoader
	output       domain.ReportWriter
	openCache    CacheOpener
	logger       *log.Logger
}

// Execute performs the complete structuring workflow and returns the
// response so callers can decide on an exit status
func (uc *StructureUseCase) Execute(ctx context.Context, req domain.StructureRequest) (*domain.StructureResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}

	files, err := ResolveFilePaths(
		uc.reader,
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no graph documents found in the specified paths", nil)
	}
	finalReq.Paths = files
	uc.logger.Printf("structuring %d graph documents", len(files))

	var warnings []string
	if finalReq.UseCache {
		if err := uc.attachCache(finalReq.CacheDir); err != nil {
			warnings = append(warnings, fmt.Sprintf("result cache disabled: %v", err))
		}
	}

	response, err := uc.service.Structure(ctx, finalReq)
	if err != nil {
		return nil, domain.NewAnalysisError("structuring failed", err)
	}
	response.Warnings = append(warnings, response.Warnings...)

	if f, ok := uc.formatter.(requestAware); ok {
		f.ApplyRequest(&finalReq)
	}

	var out io.Writer
	if finalReq.OutputPath == "" {
		out = finalReq.OutputWriter
	}
	if err := uc.output.Write(out, finalReq.OutputPath, finalReq.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, finalReq.OutputFormat, w)
	}); err != nil {
		return response, domain.NewOutputError("failed to write output", err)
	}

	return response, nil
}

// attachCache opens the result cache and hands it to the service
func (uc *StructureUseCase) attachCache(dir string) error {
	setter, ok := uc.service.(cacheSetter)
	if !ok || uc.openCache == nil {
		return nil
	}
	cache, err := uc.openCache(dir)
	if err != nil {
		return err
	}
	setter.SetCache(cache)
	uc.logger.Printf("result cache: %s", dir)
	return nil
}

// validateRequest validates the structure request
func (uc *StructureUseCase) validateRequest(req domain.StructureRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}
	if req.MaxPasses < 0 {
		return fmt.Errorf("max passes cannot be negative")
	}
	if req.MaxGoroutines < 0 {
		return fmt.Errorf("jobs cannot be negative")
	}
	if req.OutputFormat != "" {
		if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
			return err
		}
	}
	return nil
}

// loadAndMergeConfig loads configuration from file and merges with request
func (uc *StructureUseCase) loadAndMergeConfig(req domain.StructureRequest) (domain.StructureRequest, error) {
	if uc.configLoader == nil {
		return req, nil
	}

	var configReq *domain.StructureRequest
	if req.ConfigPath != "" {
		var err error
		configReq, err = uc.configLoader.LoadConfig(req.ConfigPath)
		if err != nil {
			return req, fmt.Errorf("failed to load config from %s: %w", req.ConfigPath, err)
		}
	} else {
		configReq = uc.configLoader.LoadDefaultConfig()
	}

	if configReq == nil {
		return req, nil
	}
	// request takes precedence
	merged := uc.configLoader.MergeConfig(configReq, &req)
	if merged.OutputFormat == "" {
		merged.OutputFormat = domain.OutputFormatText
	}
	return *merged, nil
}

// StructureUseCaseBuilder provides a fluent builder for StructureUseCase
type StructureUseCaseBuilder struct {
	service      domain.StructureService
	reader       domain.GraphReader
	formatter    domain.OutputFormatter
	configLoader domain.ConfigurationLoader
	output       domain.ReportWriter
	openCache    CacheOpener
	logger       *log.Logger
}

// NewStructureUseCaseBuilder creates a new builder
func NewStructureUseCaseBuilder() *StructureUseCaseBuilder {
	return &StructureUseCaseBuilder{}
}

// WithService sets the structure service
func (b *StructureUseCaseBuilder) WithService(service domain.StructureService) *StructureUseCaseBuilder {
	b.service = service
	return b
}

// WithReader sets the graph reader
func (b *StructureUseCaseBuilder) WithReader(reader domain.GraphReader) *StructureUseCaseBuilder {
	b.reader = reader
	return b
}

// WithFormatter sets the output formatter
func (b *StructureUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *StructureUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *StructureUseCaseBuilder) WithConfigLoader(configLoader domain.ConfigurationLoader) *StructureUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *StructureUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *StructureUseCaseBuilder {
	b.output = output
	return b
}

// WithCacheOpener sets how the result cache is opened; nil disables it
func (b *StructureUseCaseBuilder) WithCacheOpener(open CacheOpener) *StructureUseCaseBuilder {
	b.openCache = open
	return b
}

// WithLogger sets the trace logger
func (b *StructureUseCaseBuilder) WithLogger(logger *log.Logger) *StructureUseCaseBuilder {
	b.logger = logger
	return b
}

// Build creates the StructureUseCase with the configured dependencies
func (b *StructureUseCaseBuilder) Build() (*StructureUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("structure service is required")
	}
	if b.reader == nil {
		return nil, fmt.Errorf("graph reader is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := &StructureUseCase{
		service:      b.service,
		reader:       b.reader,
		formatter:    b.formatter,
		configLoader: b.configLoader,
		output:       b.output,
		openCache:    b.openCache,
		logger:       b.logger,
	}
	if uc.output == nil {
		uc.output = svc.NewFileOutputWriter(nil)
	}
	if uc.logger == nil {
		uc.logger = log.New(io.Discard, "", 0)
	}
	return uc, nil
}

// DiskCacheOpener opens a DiskResultCache
func DiskCacheOpener(dir string) (domain.ResultCache, error) {
	return svc.NewDiskResultCache(dir)
}

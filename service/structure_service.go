package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/ludo-technologies/flowstruct/internal/decompose"
	"github.com/ludo-technologies/flowstruct/internal/stats"
	"github.com/ludo-technologies/flowstruct/internal/version"
)

// StructureServiceImpl implements the StructureService interface
type StructureServiceImpl struct {
	reader   domain.GraphReader
	cache    domain.ResultCache
	progress domain.ProgressManager
	logger   *log.Logger
}

// NewStructureService creates a new structure service
func NewStructureService(reader domain.GraphReader) *StructureServiceImpl {
	if reader == nil {
		reader = NewGraphReader()
	}
	return &StructureServiceImpl{
		reader: reader,
		logger: log.New(io.Discard, "", 0),
	}
}

// WithCache sets the result cache; nil disables caching
func (s *StructureServiceImpl) WithCache(cache domain.ResultCache) *StructureServiceImpl {
	s.cache = cache
	return s
}

// SetCache replaces the result cache after construction
func (s *StructureServiceImpl) SetCache(cache domain.ResultCache) {
	s.cache = cache
}

// WithProgress sets the progress manager
func (s *StructureServiceImpl) WithProgress(progress domain.ProgressManager) *StructureServiceImpl {
	s.progress = progress
	return s
}

// SetLogger sets the logger used for tracing; nil silences it
func (s *StructureServiceImpl) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s.logger = logger
}

// methodJob is one method scheduled for structuring
type methodJob struct {
	file   string
	class  string
	method *domain.MethodDocument
}

// Structure reads every graph document of the request and structures all
// selected methods. A failing method never stops the others.
func (s *StructureServiceImpl) Structure(ctx context.Context, req domain.StructureRequest) (*domain.StructureResponse, error) {
	files, err := s.reader.CollectGraphFiles(req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no graph documents found in the specified paths", nil)
	}
	s.logger.Printf("collected %d graph documents", len(files))

	docs, err := PopulateDocumentCache(ctx, s.reader, files, req.MaxGoroutines)
	if err != nil {
		return nil, fmt.Errorf("structuring cancelled: %w", err)
	}

	var warnings, errs []string
	var jobs []methodJob
	filesAnalyzed := 0
	for _, entry := range docs.Entries() {
		if entry.Err != nil {
			errs = append(errs, fmt.Sprintf("[%s] %v", entry.Path, entry.Err))
			continue
		}
		filesAnalyzed++
		selected := s.selectMethods(entry.Path, entry.Document, req.Methods)
		if len(selected) == 0 {
			warnings = append(warnings, fmt.Sprintf("[%s] No methods matched", entry.Path))
		}
		jobs = append(jobs, selected...)
	}

	results := s.runJobs(ctx, jobs, req)

	summary := domain.StructureSummary{FilesAnalyzed: filesAnalyzed}
	for i := range results {
		summary.Add(&results[i])
	}

	return &domain.StructureResponse{
		Methods:     results,
		Summary:     summary,
		Warnings:    warnings,
		Errors:      errs,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}, nil
}

// StructureDocument structures the selected methods of a decoded document
func (s *StructureServiceImpl) StructureDocument(ctx context.Context, doc *domain.GraphDocument, source string, req domain.StructureRequest) ([]domain.MethodResult, error) {
	if doc == nil {
		return nil, domain.NewInvalidInputError("graph document is nil", nil)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return s.runJobs(ctx, s.selectMethods(source, doc, req.Methods), req), nil
}

func (s *StructureServiceImpl) selectMethods(file string, doc *domain.GraphDocument, patterns []string) []methodJob {
	var jobs []methodJob
	for i := range doc.Methods {
		m := &doc.Methods[i]
		if len(patterns) > 0 && !matchesMethod(patterns, m.Name) {
			continue
		}
		jobs = append(jobs, methodJob{file: file, class: doc.Class, method: m})
	}
	return jobs
}

func matchesMethod(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// runJobs structures the jobs on the parallel executor. Results keep the
// order of jobs.
func (s *StructureServiceImpl) runJobs(ctx context.Context, jobs []methodJob, req domain.StructureRequest) []domain.MethodResult {
	results := make([]domain.MethodResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	done := make([]bool, len(jobs))

	var executor domain.ParallelExecutor = NewParallelExecutor()
	executor.SetMaxConcurrency(req.MaxGoroutines)
	executor.SetTimeout(req.Timeout)

	if s.progress != nil {
		s.progress.Initialize(len(jobs))
		s.progress.Start()
		executor.OnTaskDone(func(n int) { s.progress.Update(n, len(jobs)) })
		defer s.progress.Close()
	}

	tasks := make([]domain.ExecutableTask, len(jobs))
	for i, job := range jobs {
		tasks[i] = NewSimpleTask(job.file+":"+job.method.Name, true, func(ctx context.Context) (interface{}, error) {
			results[i] = s.structureMethod(ctx, job, req)
			done[i] = true
			return nil, nil
		})
	}

	if err := executor.Execute(ctx, tasks); err != nil {
		s.logger.Printf("executor: %v", err)
	}

	// Tasks skipped after cancellation never ran
	for i, job := range jobs {
		if done[i] {
			continue
		}
		cause := ctx.Err()
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		results[i] = domain.MethodResult{
			File:   job.file,
			Class:  job.class,
			Method: job.method.Name,
			Status: domain.MethodAborted,
			Error:  fmt.Sprintf("not started: %v", cause),
		}
	}

	if s.progress != nil {
		s.progress.Complete(true)
	}
	return results
}

// structureMethod runs the engine on one method and converts its result
func (s *StructureServiceImpl) structureMethod(ctx context.Context, job methodJob, req domain.StructureRequest) (out domain.MethodResult) {
	start := time.Now()
	result := domain.MethodResult{
		File:   job.file,
		Class:  job.class,
		Method: job.method.Name,
	}

	// A panic fails this method only; the rest of the batch keeps running
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("panic structuring %s: %v", result.QualifiedName(), r)
			out = failed(result, fmt.Errorf("panic: %v", r), start)
		}
	}()

	wantDOT := req.OutputFormat == domain.OutputFormatDOT
	key := ""
	if s.cache != nil && req.UseCache {
		var err error
		if key, err = CacheKey(job.method, &req); err != nil {
			s.logger.Printf("cache key for %s: %v", result.QualifiedName(), err)
		} else if hit, ok, err := s.cache.Get(key); err != nil {
			s.logger.Printf("cache read for %s: %v", result.QualifiedName(), err)
		} else if ok && (!wantDOT || hit.DOT != "") {
			hit.File, hit.Class, hit.Method = result.File, result.Class, result.Method
			hit.Cached = true
			return *hit
		}
	}

	graph, err := BuildGraph(job.method)
	if err != nil {
		return failed(result, err, start)
	}
	result.Blocks = graph.Size()
	result.Edges = graph.EdgeCount()

	mctx := ctx
	if req.MethodTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, req.MethodTimeout)
		defer cancel()
	}

	res, err := structureGraph(mctx, graph, decompose.Options{
		MaxPasses:         req.MaxPasses,
		Verify:            req.Verify,
		CondenseSequences: req.CondenseSequences,
		BuildSynchronized: req.BuildSynchronized,
		RefineLoops:       req.RefineLoops,
		LabelEdges:        req.LabelEdges,
		MergeIfs:          req.MergeIfs,
		CondenseLoops:     req.CondenseLoops,
		Logger:            s.logger,
	})
	if err != nil {
		return failed(result, err, start)
	}

	switch {
	case res.Aborted != nil:
		result.Status = domain.MethodAborted
		result.Error = res.Aborted.Error()
	case res.Irreducible():
		result.Status = domain.MethodIrreducible
	default:
		result.Status = domain.MethodStructured
	}

	result.Comments = res.Comments
	result.Passes = res.Passes
	result.Merges = res.Merges
	result.Generals = res.Generals
	result.IrreducibleCount = len(decompose.IrreducibleRegions(res.Root))
	result.Statements = countStatements(res.Root)
	result.Hash = res.Graph.Hash()

	if req.ShowTokens {
		result.Tokens = convertTokens(decompose.Emit(res.Root))
	}
	if wantDOT {
		var buf bytes.Buffer
		if err := decompose.ExportDOT(&buf, res.Name, res.Root); err != nil {
			return failed(result, domain.NewOutputError("failed to render DOT", err), start)
		}
		result.DOT = buf.String()
	}
	result.DurationMs = time.Since(start).Milliseconds()

	// Aborted runs depend on timing and are never cached
	if key != "" && result.Status != domain.MethodAborted {
		if err := s.cache.Put(key, &result); err != nil {
			s.logger.Printf("cache write for %s: %v", result.QualifiedName(), err)
		}
	}
	return result
}

// structureGraph is the engine entry point used by the service
var structureGraph = decompose.Structure

// failed marks the result as failed and classifies err
func failed(result domain.MethodResult, err error, start time.Time) domain.MethodResult {
	var verr *cfg.ValidationError
	var cerr *stats.ConsistencyError
	switch {
	case errors.As(err, &verr):
		err = domain.NewInvalidInputError("graph rejected", err)
	case errors.As(err, &cerr):
		err = domain.NewConsistencyError(result.QualifiedName(), err)
	}

	result.Status = domain.MethodFailed
	result.Error = err.Error()
	result.ErrorCode = domain.ErrorCode(err)
	if result.ErrorCode == "" {
		result.ErrorCode = domain.ErrCodeAnalysisError
	}
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// countStatements counts the statements of a tree by kind name
func countStatements(root *stats.Statement) map[string]int {
	counts := make(map[string]int)
	stats.Walk(root, func(st *stats.Statement) bool {
		counts[st.Kind().String()]++
		return true
	})
	return counts
}

func convertTokens(tokens []decompose.Token) []domain.Token {
	out := make([]domain.Token, len(tokens))
	for i, t := range tokens {
		out[i] = domain.Token{
			Kind:   t.Kind.String(),
			Text:   t.Text,
			Depth:  t.Depth,
			Node:   int(t.Node),
			Detail: t.Detail,
		}
	}
	return out
}

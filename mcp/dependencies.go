package mcp

import (
	"io"
	"log"

	"github.com/ludo-technologies/flowstruct/app"
	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	reader     domain.GraphReader
	configPath string
	logger     *log.Logger
}

// NewDependencies constructs the dependency set with sane defaults.
// configPath may be empty to discover .flowstruct.toml from each tool path.
func NewDependencies(configPath string, logger *log.Logger) *Dependencies {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dependencies{
		reader:     service.NewGraphReader(),
		configPath: configPath,
		logger:     logger,
	}
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// BuildStructureUseCase assembles a fresh StructureUseCase whose
// configuration is discovered from target. explicitFlags names the request
// fields that override the configuration, using the CLI flag names.
func (d *Dependencies) BuildStructureUseCase(target string, explicitFlags map[string]bool) (*app.StructureUseCase, error) {
	svc := service.NewStructureService(d.reader)
	svc.SetLogger(d.logger)

	return app.NewStructureUseCaseBuilder().
		WithService(svc).
		WithReader(d.reader).
		WithFormatter(service.NewOutputFormatter()).
		WithConfigLoader(service.NewConfigurationLoaderWithFlags(explicitFlags).WithTarget(target)).
		WithOutputWriter(service.NewFileOutputWriter(io.Discard)).
		WithCacheOpener(app.DiskCacheOpener).
		WithLogger(d.logger).
		Build()
}

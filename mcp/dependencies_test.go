package mcp

import (
	"io"
	"log"

	"github.com/ludo-technologies/flowstruct/domain"
)

func NewTestDependencies(reader domain.GraphReader, configPath string) *Dependencies {
	return &Dependencies{
		reader:     reader,
		configPath: configPath,
		logger:     log.New(io.Discard, "", 0),
	}
}

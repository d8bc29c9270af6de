package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// DocumentFormat is the encoding of a graph document
type DocumentFormat string

const (
	DocumentYAML    DocumentFormat = "yaml"
	DocumentJSON    DocumentFormat = "json"
	DocumentMsgpack DocumentFormat = "msgpack"
)

var documentExtensions = map[string]DocumentFormat{
	".yaml":    DocumentYAML,
	".yml":     DocumentYAML,
	".json":    DocumentJSON,
	".msgpack": DocumentMsgpack,
	".mpk":     DocumentMsgpack,
}

// GraphReaderImpl implements the GraphReader interface
type GraphReaderImpl struct{}

// NewGraphReader creates a new graph document reader
func NewGraphReader() *GraphReaderImpl {
	return &GraphReaderImpl{}
}

// CollectGraphFiles finds all graph documents in the given paths. Files
// named explicitly are only checked against the exclude patterns.
func (r *GraphReaderImpl) CollectGraphFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}

		if info.IsDir() {
			dirFiles, err := r.collectFromDirectory(path, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}

		if !r.IsGraphFile(path) {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("not a graph document: %s", path), nil)
		}
		if !matchesAny(excludePatterns, path, filepath.Base(path)) {
			files = append(files, path)
		}
	}

	return files, nil
}

// ReadDocument reads and decodes a graph document
func (r *GraphReaderImpl) ReadDocument(path string) (*domain.GraphDocument, error) {
	format, ok := documentFormat(path)
	if !ok {
		return nil, domain.NewUnsupportedFormatError(filepath.Ext(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}

	doc, err := DecodeDocument(content, format)
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}
	return doc, nil
}

// DecodeDocument decodes and validates a graph document. JSON is decoded
// by the YAML decoder; it is a subset of YAML.
func DecodeDocument(data []byte, format DocumentFormat) (*domain.GraphDocument, error) {
	var doc domain.GraphDocument

	switch format {
	case DocumentYAML, DocumentJSON:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", format, err)
		}
	case DocumentMsgpack:
		if err := msgpack.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return nil, domain.NewUnsupportedFormatError(string(format))
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// IsGraphFile checks if a file has a supported document extension
func (r *GraphReaderImpl) IsGraphFile(path string) bool {
	_, ok := documentFormat(path)
	return ok
}

// FileExists checks if a file exists
func (r *GraphReaderImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func documentFormat(path string) (DocumentFormat, bool) {
	format, ok := documentExtensions[strings.ToLower(filepath.Ext(path))]
	return format, ok
}

// collectFromDirectory collects graph documents from a directory
func (r *GraphReaderImpl) collectFromDirectory(dirPath string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFunc := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped
			return nil
		}

		if d.IsDir() && path != dirPath {
			// Skip hidden directories such as the result cache
			if strings.HasPrefix(d.Name(), ".") || !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || !r.IsGraphFile(path) {
			return nil
		}

		rel, relErr := filepath.Rel(dirPath, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(excludePatterns, rel, d.Name()) {
			return nil
		}
		if len(includePatterns) > 0 && !matchesAny(includePatterns, rel, d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	}

	if err := filepath.WalkDir(dirPath, walkFunc); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	return files, nil
}

// matchesAny checks the patterns against the relative path and the base name
func matchesAny(patterns []string, rel, base string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

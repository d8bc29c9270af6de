package app

import "github.com/ludo-technologies/flowstruct/domain"

// ResolveFilePaths resolves graph document paths for structuring.
// If every path is already a graph document, they are returned directly.
// Otherwise documents are collected from the paths using the filters.
//
// This lets callers that pre-collect documents, such as the check command,
// skip a second directory walk.
func ResolveFilePaths(
	reader domain.GraphReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := true
	for _, path := range paths {
		if !reader.IsGraphFile(path) {
			allFiles = false
			break
		}

		// FileExists is false for directories
		exists, err := reader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return reader.CollectGraphFiles(paths, recursive, includePatterns, excludePatterns)
}

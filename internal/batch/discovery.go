package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scanbill/scanbill/internal/document"
)

// discoverDocuments finds all supported document files among the given
// paths. Directory arguments are scanned for files with a supported
// extension; file arguments are taken as-is when they pass the
// include/exclude patterns.
func discoverDocuments(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var docFiles []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			docFiles = append(docFiles, files...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			docFiles = append(docFiles, arg)
		}
	}

	sort.Strings(docFiles)
	return docFiles, nil
}

// discoverInDirectory walks a directory for supported document files.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if !isSupportedDocument(path) {
			return nil
		}
		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// isSupportedDocument checks the file extension against the supported
// input formats.
func isSupportedDocument(path string) bool {
	_, ok := document.SupportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}

	// No include patterns means include everything not excluded
	if len(includePatterns) == 0 {
		return true
	}

	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Package utils contains general helper functions shared by the phelcfg packages.
package utils

import (
	"path"
	"path/filepath"
	"strings"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// NormalizeEntries trims every entry, drops blanks and duplicates, and keeps the original order.
func NormalizeEntries(entries []string) []string {
	trimmedEntries := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmedEntry := strings.TrimSpace(entry)
		if trimmedEntry == EmptyString {
			continue
		}
		trimmedEntries = append(trimmedEntries, trimmedEntry)
	}
	return DeduplicatePatterns(trimmedEntries)
}

// NormalizeDirectory converts a directory entry to a cleaned, forward-slash path without a trailing separator.
// Returns an empty string for blank input.
func NormalizeDirectory(directory string) string {
	trimmedDirectory := strings.TrimSpace(directory)
	if trimmedDirectory == EmptyString {
		return EmptyString
	}
	slashed := strings.ReplaceAll(trimmedDirectory, "\\", pathSegmentSeparator)
	return path.Clean(slashed)
}

// RelativePathOrSelf calculates the relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// MatchesIgnorePattern reports whether a path relative to a configured directory matches
// any of the provided patterns. The candidate path and every pattern are converted to
// forward-slash form before evaluation. A pattern ending with a trailing slash matches
// the named directory and everything below it. A single-segment pattern is compared with
// the last path segment, so "local.phel" matches that file name at any depth. Other
// patterns must match the whole path segment by segment with filepath.Match semantics.
func MatchesIgnorePattern(relativePath string, ignorePatterns []string) bool {
	normalizedPath := strings.ReplaceAll(relativePath, "\\", pathSegmentSeparator)
	pathSegments := strings.Split(normalizedPath, pathSegmentSeparator)
	lastSegment := pathSegments[len(pathSegments)-1]

	for _, patternValue := range ignorePatterns {
		normalizedPattern := strings.ReplaceAll(patternValue, "\\", pathSegmentSeparator)

		isDirectoryPattern := strings.HasSuffix(normalizedPattern, pathSegmentSeparator)
		trimmedPattern := strings.TrimSuffix(normalizedPattern, pathSegmentSeparator)
		if trimmedPattern == EmptyString {
			continue
		}
		patternSegments := strings.Split(trimmedPattern, pathSegmentSeparator)

		if isDirectoryPattern {
			// the final path segment is the file itself, so only the leading segments can name directories
			directorySegments := pathSegments[:len(pathSegments)-1]
			if len(patternSegments) == 1 {
				for _, directorySegment := range directorySegments {
					if segmentsMatch([]string{directorySegment}, patternSegments) {
						return true
					}
				}
				continue
			}
			if len(directorySegments) >= len(patternSegments) && segmentsMatch(directorySegments[:len(patternSegments)], patternSegments) {
				return true
			}
			continue
		}

		if len(patternSegments) == 1 {
			isMatched, matchError := filepath.Match(patternSegments[0], lastSegment)
			if matchError == nil && isMatched {
				return true
			}
			continue
		}

		if len(pathSegments) == len(patternSegments) && segmentsMatch(pathSegments, patternSegments) {
			return true
		}
	}

	return false
}

// segmentsMatch reports whether each pattern segment matches the corresponding
// path segment using filepath.Match semantics.
func segmentsMatch(pathSegments, patternSegments []string) bool {
	for segmentIndex, patternSegment := range patternSegments {
		isMatched, matchError := filepath.Match(patternSegment, pathSegments[segmentIndex])
		if matchError != nil || !isMatched {
			return false
		}
	}
	return true
}

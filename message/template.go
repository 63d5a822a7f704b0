package message

import (
	"path/filepath"
	"strings"
	"time"
)

// nowStamp is swappable so template output is deterministic in tests
var nowStamp = func() string {
	return time.Now().Format("2006-01-02 15:04")
}

// configExtensions are file extensions treated as configuration
var configExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".toml": true,
	".json": true,
	".ini":  true,
	".cfg":  true,
	".conf": true,
	".env":  true,
}

// docExtensions are file extensions treated as documentation
var docExtensions = map[string]bool{
	".md":  true,
	".rst": true,
	".txt": true,
}

// inferKind picks a conventional commit type from the changed paths.
// The whole set has to agree on a category; mixed sets default to feat.
func inferKind(paths []string) string {
	if len(paths) == 0 {
		return "chore"
	}

	allTest, allConfig, allDocs := true, true, true
	for _, path := range paths {
		if !isTestPath(path) {
			allTest = false
		}
		if !isConfigPath(path) {
			allConfig = false
		}
		if !docExtensions[strings.ToLower(filepath.Ext(path))] {
			allDocs = false
		}
	}

	switch {
	case allTest:
		return "test"
	case allConfig:
		return "chore"
	case allDocs:
		return "docs"
	default:
		return "feat"
	}
}

func isTestPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	lower := strings.ToLower(path)
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasPrefix(base, "test_") ||
		strings.Contains(lower, "/tests/") ||
		strings.HasPrefix(lower, "tests/")
}

func isConfigPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if base == "dockerfile" || base == "makefile" || base == ".gitignore" || base == ".gitattributes" {
		return true
	}
	return configExtensions[strings.ToLower(filepath.Ext(path))]
}

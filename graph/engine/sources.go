package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keshy/CodeSense/graph/lang"
	"github.com/keshy/CodeSense/output"
)

type sourceFile struct {
	path     string
	explicit bool // passed as a file path, not found by walking a directory
}

// CollectSources expands the raw file/directory paths into the sorted list
// of source files to process, determining the language if one was not
// given. Files passed explicitly are always included; files found by
// walking directories must match the chosen language suffix.
func CollectSources(rawPaths []string, language string, registry *lang.Registry, logger *output.Logger) ([]string, string, error) {
	var individual []sourceFile
	sorted := append([]string(nil), rawPaths...)
	sort.Strings(sorted)
	for _, raw := range sorted {
		info, err := os.Stat(raw)
		if err != nil {
			return nil, "", Configf("could not read source %q: %v", raw, err)
		}
		if !info.IsDir() {
			individual = append(individual, sourceFile{path: raw, explicit: true})
			continue
		}
		err = filepath.WalkDir(raw, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				individual = append(individual, sourceFile{path: path})
			}
			return nil
		})
		if err != nil {
			return nil, "", Configf("could not walk source %q: %v", raw, err)
		}
	}

	if len(individual) == 0 {
		return nil, "", Configf("no source files found from %v", rawPaths)
	}
	logger.Progress("Found %d files from sources argument.", len(individual))

	if language == "" {
		detected, err := determineLanguage(individual, registry)
		if err != nil {
			return nil, "", err
		}
		language = detected
		logger.Progress("Implicitly detected language as %q.", language)
	}
	if _, ok := registry.ByExtension(language); !ok {
		return nil, "", Configf("language %q is not supported; choose from %v", language, registry.Extensions())
	}

	seen := make(map[string]bool)
	var sources []string
	for _, f := range individual {
		if seen[f.path] {
			continue
		}
		if !f.explicit && !strings.HasSuffix(f.path, "."+language) {
			logger.Debug("Skipping %s which is not a %s file. If this is incorrect, include it explicitly.", f.path, language)
			continue
		}
		seen[f.path] = true
		sources = append(sources, f.path)
	}
	if len(sources) == 0 {
		return nil, "", Configf("could not find any source files given %v and language %q", rawPaths, language)
	}

	sort.Strings(sources)
	logger.Progress("Processing %d source file(s).", len(sources))
	for _, s := range sources {
		logger.Debug("  %s", s)
	}
	return sources, language, nil
}

// determineLanguage picks the language from the first file with a
// registered suffix.
func determineLanguage(files []sourceFile, registry *lang.Registry) (string, error) {
	for _, f := range files {
		suffix := strings.TrimPrefix(filepath.Ext(f.path), ".")
		if _, ok := registry.ByExtension(suffix); ok {
			return suffix, nil
		}
	}
	return "", Configf("language could not be detected from input; try passing --language explicitly")
}

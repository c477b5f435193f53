// Package discovery locates candidate LDIF files and enforces the
// maximum-file-size policy before they reach the parser.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// DefaultFilePattern is used when the configuration sets none.
const DefaultFilePattern = "*.ldif"

// Options controls file discovery.
type Options struct {
	// FilePath names a single explicit input file.
	FilePath string

	// DirectoryPath names a directory searched with FilePattern.
	// Both FilePath and DirectoryPath may be set.
	DirectoryPath string

	// FilePattern is a doublestar glob matched against paths relative to
	// DirectoryPath. Defaults to DefaultFilePattern.
	FilePattern string

	// MaxFileSize caps accepted files, in bytes. Zero disables the cap.
	MaxFileSize int64
}

// Discover returns the ordered list of files to process: the explicit file
// first, then directory matches in lexical order. Files over the size cap
// are skipped with a warning, never handed to the parser.
func Discover(opts Options, log zerolog.Logger) ([]string, error) {
	var files []string

	if opts.FilePath != "" {
		info, err := os.Stat(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("input file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("input file %s is a directory", opts.FilePath)
		}
		if keep := checkSize(opts.FilePath, info.Size(), opts.MaxFileSize, log); keep {
			files = append(files, opts.FilePath)
		}
	}

	if opts.DirectoryPath != "" {
		matches, err := discoverDirectory(opts, log)
		if err != nil {
			return nil, err
		}
		// The explicit file may also live under the directory and match
		// the pattern; it must not be processed twice. Glob results are
		// Join-cleaned, so clean the explicit path for the comparison.
		explicit := ""
		if len(files) > 0 {
			explicit = filepath.Clean(files[0])
		}
		for _, match := range matches {
			if match == explicit {
				continue
			}
			files = append(files, match)
		}
	}

	log.Debug().
		Int("count", len(files)).
		Str("pattern", pattern(opts)).
		Msg("file discovery complete")

	return files, nil
}

func discoverDirectory(opts Options, log zerolog.Logger) ([]string, error) {
	info, err := os.Stat(opts.DirectoryPath)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory %s is not a directory", opts.DirectoryPath)
	}

	matches, err := doublestar.Glob(os.DirFS(opts.DirectoryPath), pattern(opts))
	if err != nil {
		return nil, fmt.Errorf("matching pattern %q: %w", pattern(opts), err)
	}
	sort.Strings(matches)

	var files []string
	for _, rel := range matches {
		path := filepath.Join(opts.DirectoryPath, rel)

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			continue
		}
		if keep := checkSize(path, info.Size(), opts.MaxFileSize, log); keep {
			files = append(files, path)
		}
	}

	return files, nil
}

// checkSize applies the size cap, logging skipped files.
func checkSize(path string, size, maxSize int64, log zerolog.Logger) bool {
	if maxSize > 0 && size > maxSize {
		log.Warn().
			Str("file", path).
			Int64("size", size).
			Int64("limit", maxSize).
			Msg("skipping file over size limit")
		return false
	}
	return true
}

func pattern(opts Options) string {
	if opts.FilePattern == "" {
		return DefaultFilePattern
	}
	return opts.FilePattern
}

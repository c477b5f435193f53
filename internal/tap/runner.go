// Package tap wires file discovery, the LDIF parser and the record sink into
// a single extraction run.
package tap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/marlon-costa-dc/ldif-tap/internal/config"
	"github.com/marlon-costa-dc/ldif-tap/internal/discovery"
	"github.com/marlon-costa-dc/ldif-tap/internal/ldif"
	"github.com/marlon-costa-dc/ldif-tap/internal/sink"
)

// Stats aggregates counters across a run.
type Stats struct {
	FilesProcessed int // Files fully parsed
	FilesSkipped   int // Files abandoned in lenient mode
	EntriesEmitted int // Records handed to the sink
	LinesSkipped   int // Unparseable lines skipped in lenient mode
	ValuesDropped  int // Attribute values dropped in lenient mode
}

// Runner drives one extraction run. Files are processed strictly
// sequentially, one open handle at a time; the strict/lenient policy decides
// whether a file-scoped error aborts the run or only that file.
type Runner struct {
	cfg    *config.Config
	out    sink.Writer
	filter *ldif.Filter
	log    zerolog.Logger
}

// New creates a Runner writing records to out.
func New(cfg *config.Config, out sink.Writer, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		out:    out,
		filter: ldif.NewFilter(cfg.FilterConfig()),
		log:    log,
	}
}

// Run discovers and processes all input files, flushing the sink before
// returning. The returned Stats are valid even when an error is returned.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	files, err := discovery.Discover(discovery.Options{
		FilePath:      r.cfg.FilePath,
		DirectoryPath: r.cfg.DirectoryPath,
		FilePattern:   r.cfg.FilePattern,
		MaxFileSize:   r.cfg.MaxFileSizeBytes(),
	}, r.log)
	if err != nil {
		return stats, err
	}

	r.log.Info().Int("files", len(files)).Msg("processing LDIF files")

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := r.processFile(ctx, path, stats); err != nil {
			if r.cfg.StrictParsing {
				return stats, err
			}
			stats.FilesSkipped++
			r.log.Warn().Err(err).Str("file", path).Msg("skipping file")
			continue
		}
		stats.FilesProcessed++
	}

	if err := r.out.Flush(); err != nil {
		return stats, err
	}

	r.log.Info().
		Int("files_processed", stats.FilesProcessed).
		Int("files_skipped", stats.FilesSkipped).
		Int("entries", stats.EntriesEmitted).
		Msg("run complete")

	return stats, nil
}

// processFile parses a single file and forwards its entries to the sink.
// The file handle is scoped to this call. Decoding happens before parsing so
// an undecodable file is abandoned whole, with no partial entries emitted.
func (r *Runner) processFile(ctx context.Context, path string, stats *Stats) error {
	r.log.Info().Str("file", path).Msg("processing file")

	text, err := r.readDecoded(path)
	if err != nil {
		return err
	}

	parser := ldif.NewParser(bytes.NewReader(text), ldif.Options{
		SourceFile: path,
		Strict:     r.cfg.StrictParsing,
		Filter:     r.filter,
		Logger:     ldif.NewZerologLogger(r.log),
	})

	for parser.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := parser.Entry()
		if r.cfg.InterpretBinaryAttributes {
			ldif.InterpretBinaryAttributes(entry)
		}

		if err := r.out.Write(entryRecord(entry)); err != nil {
			return fmt.Errorf("writing record for %s: %w", entry.DN, err)
		}
		stats.EntriesEmitted++
	}

	stats.LinesSkipped += parser.LinesSkipped()
	stats.ValuesDropped += parser.ValuesDropped()

	return parser.Err()
}

// readDecoded reads the whole file through the configured character
// decoder. Invalid input surfaces as a decode-category ParseError.
func (r *Runner) readDecoded(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	enc, err := config.ResolveEncoding(r.cfg.Encoding)
	if err != nil {
		return nil, err
	}

	text, err := io.ReadAll(decodeReader(f, enc))
	if err != nil {
		return nil, &ldif.ParseError{
			File:     path,
			Category: ldif.ErrorCategoryDecode,
			Message:  fmt.Sprintf("cannot decode file as %s", r.cfg.Encoding),
			Cause:    err,
		}
	}

	return text, nil
}

// decodeReader wraps f with the decoder for enc. UTF-8 input is validated
// rather than transcoded, so malformed sequences error instead of being
// silently replaced.
func decodeReader(f io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return f
	}
	if enc == unicode.UTF8 {
		return transform.NewReader(f, encoding.UTF8Validator)
	}
	return transform.NewReader(f, enc.NewDecoder())
}

// entryRecord converts a parsed entry into the sink record shape.
func entryRecord(e *ldif.Entry) sink.Record {
	objectClasses := e.ObjectClasses
	if objectClasses == nil {
		objectClasses = []string{}
	}

	var changeType any
	if e.ChangeType != "" {
		changeType = e.ChangeType
	}

	return sink.Record{
		"dn":           e.DN,
		"attributes":   e.AttributeMap(),
		"object_class": objectClasses,
		"change_type":  changeType,
		"source_file":  e.SourceFile,
		"line_number":  e.LineNumber,
		"entry_size":   e.Size,
	}
}

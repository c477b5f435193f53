// Package sink emits finalized entry records downstream.
package sink

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Record is a finalized entry in output shape. Keys: dn, attributes,
// object_class, change_type, source_file, line_number, entry_size.
type Record map[string]any

// Writer receives finalized records. Implementations decide buffering;
// callers must Flush before discarding a Writer.
type Writer interface {
	Write(Record) error
	Flush() error
}

// JSONLWriter writes records as JSON, one object per line, buffering up to a
// batch of records between writes to the underlying stream.
type JSONLWriter struct {
	enc       *json.Encoder
	batchSize int
	buf       []Record
	written   int
	log       zerolog.Logger
}

// NewJSONLWriter creates a JSONLWriter emitting to w in batches of
// batchSize records. A batchSize below 1 flushes on every record.
func NewJSONLWriter(w io.Writer, batchSize int, log zerolog.Logger) *JSONLWriter {
	if batchSize < 1 {
		batchSize = 1
	}
	return &JSONLWriter{
		enc:       json.NewEncoder(w),
		batchSize: batchSize,
		buf:       make([]Record, 0, batchSize),
		log:       log,
	}
}

// Write buffers a record, flushing when the batch is full.
func (w *JSONLWriter) Write(rec Record) error {
	w.buf = append(w.buf, rec)
	if len(w.buf) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush emits all buffered records. On error the buffer retains only the
// records not yet written, so a retried Flush never duplicates output.
func (w *JSONLWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	var flushed int
	for _, rec := range w.buf {
		if err := w.enc.Encode(rec); err != nil {
			w.written += flushed
			w.buf = append(w.buf[:0], w.buf[flushed:]...)
			return fmt.Errorf("encoding record: %w", err)
		}
		flushed++
	}

	w.written += flushed
	w.buf = w.buf[:0]
	w.log.Debug().
		Int("batch", flushed).
		Int("total", w.written).
		Msg("flushed record batch")

	return nil
}

// Written returns the number of records emitted so far, excluding any still
// buffered.
func (w *JSONLWriter) Written() int {
	return w.written
}

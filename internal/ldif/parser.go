package ldif

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Maximum raw line length accepted by the parser. Values longer than this
// are expected to arrive as continuation lines.
const maxLineBytes = 10 * 1024 * 1024

// Line patterns. Attribute type names follow the simplified RFC 2849 form:
// a letter followed by letters, digits and hyphens.
var (
	dnLineRegex     = regexp.MustCompile(`(?i)^dn(::?)\s*(.*)$`)
	base64AttrRegex = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9-]*)::\s*(.*)$`)
	plainAttrRegex  = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9-]*):\s*(.*)$`)
)

// Options configures a Parser.
type Options struct {
	// SourceFile is recorded on every produced entry and in errors.
	SourceFile string

	// Strict makes malformed base64 values and unparseable lines abort
	// the file. When false they are logged and skipped.
	Strict bool

	// Filter restricts stored attributes and produced entries.
	// Nil admits everything.
	Filter *Filter

	// Logger receives skip warnings in lenient mode. Nil discards them.
	Logger Logger
}

// Parser assembles entries from a stream of LDIF lines. It is a single-pass,
// forward-only iterator: once exhausted it cannot be restarted, and it must
// not be shared between goroutines. The Parser reads from the supplied
// reader but does not own it; the caller closes the underlying file.
type Parser struct {
	scanner *bufio.Scanner
	opts    Options
	log     Logger

	line  int
	cur   *Entry
	entry *Entry
	err   error
	done  bool

	// Continuation target tracking. sawAttr is true once the open entry
	// has seen any attribute line; lastValue is nil when the most recent
	// attribute's value was discarded by filtering. lastName is the
	// lower-cased name of the most recent attribute line, so continuations
	// also reach the derived objectclass and changetype fields, which are
	// populated independently of filtering.
	sawAttr   bool
	lastValue *Value
	lastName  string

	linesSkipped  int
	valuesDropped int
}

// scanLinesKeepEnding splits on newlines like bufio.ScanLines but leaves the
// terminator bytes in the token, so line sizes can be accounted exactly.
func scanLinesKeepEnding(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewParser creates a Parser reading LDIF text from r.
func NewParser(r io.Reader, opts Options) *Parser {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLinesKeepEnding)

	log := opts.Logger
	if log == nil {
		log = NopLogger{}
	}

	return &Parser{
		scanner: scanner,
		opts:    opts,
		log:     log,
	}
}

// Next advances to the next entry that passes the configured filters.
// It returns false when input is exhausted or a fatal error occurred;
// check Err after iteration.
func (p *Parser) Next() bool {
	if p.err != nil || p.done {
		return false
	}

	for p.scanner.Scan() {
		p.line++
		// The split function keeps the terminator, so the raw token length
		// is the exact on-stream size of the line.
		size := len(p.scanner.Bytes())

		line := strings.TrimSuffix(p.scanner.Text(), "\n")
		line = strings.TrimSuffix(line, "\r")

		finalized, err := p.processLine(line, size)
		if err != nil {
			p.err = err
			return false
		}
		if finalized != nil {
			p.entry = finalized
			return true
		}
	}

	if err := p.scanner.Err(); err != nil {
		p.err = fmt.Errorf("reading %s: %w", p.opts.SourceFile, err)
		return false
	}

	p.done = true
	if finalized := p.closeCurrent(); finalized != nil {
		p.entry = finalized
		return true
	}
	return false
}

// Entry returns the entry produced by the last successful call to Next.
func (p *Parser) Entry() *Entry {
	return p.entry
}

// Err returns the first fatal error encountered, or nil on clean exhaustion.
func (p *Parser) Err() error {
	return p.err
}

// LinesSkipped returns the number of unparseable lines skipped in lenient
// mode.
func (p *Parser) LinesSkipped() int {
	return p.linesSkipped
}

// ValuesDropped returns the number of attribute values dropped due to
// malformed base64 in lenient mode.
func (p *Parser) ValuesDropped() int {
	return p.valuesDropped
}

// processLine runs one line through the state machine. It returns a non-nil
// entry when the line finalized the previously open entry and that entry
// passed the filters.
func (p *Parser) processLine(line string, size int) (*Entry, error) {
	// Blank lines and comments are ignored. Note that blank lines do not
	// terminate the open entry; only the next DN line or EOF does.
	if strings.TrimRight(line, " \t") == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	// Continuation line: extends the preceding attribute's value with no
	// separator. Only meaningful once the open entry has an attribute.
	// The derived objectclass and changetype fields follow the folded
	// value even when the attribute itself was filtered out of the map.
	if strings.HasPrefix(line, " ") && p.cur != nil && p.sawAttr {
		p.cur.Size += size
		fragment := line[1:]
		if p.lastValue != nil {
			p.lastValue.AppendToLast(fragment)
		}
		switch p.lastName {
		case "objectclass":
			p.cur.extendLastObjectClass(fragment)
		case "changetype":
			p.cur.ChangeType += fragment
		}
		return nil, nil
	}

	if m := dnLineRegex.FindStringSubmatch(line); m != nil {
		return p.startEntry(m, size)
	}

	if p.cur == nil {
		// Content before the first DN marker has no entry to attach to.
		p.log.Debug("ignoring line outside entry", map[string]any{
			"file": p.opts.SourceFile,
			"line": p.line,
		})
		return nil, nil
	}

	if m := base64AttrRegex.FindStringSubmatch(line); m != nil {
		return nil, p.addBase64Attribute(m[1], m[2], size)
	}

	if m := plainAttrRegex.FindStringSubmatch(line); m != nil {
		p.addAttribute(strings.ToLower(m[1]), m[2], size)
		return nil, nil
	}

	// Change-record attribute separator.
	if strings.HasPrefix(line, "-") {
		p.cur.Size += size
		return nil, nil
	}

	if p.opts.Strict {
		return nil, newSyntaxError(p.opts.SourceFile, p.line, line)
	}

	p.linesSkipped++
	p.log.Warn("skipping unparseable line", map[string]any{
		"file":    p.opts.SourceFile,
		"line":    p.line,
		"content": line,
	})
	return nil, nil
}

// startEntry finalizes the open entry, begins a new one from the matched DN
// marker line and returns the finalized entry if it passed the filters.
func (p *Parser) startEntry(m []string, size int) (*Entry, error) {
	finalized := p.closeCurrent()

	entry := NewEntry(p.opts.SourceFile, p.line)
	entry.Size = size

	if m[1] == "::" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m[2]))
		if err != nil {
			if p.opts.Strict {
				return nil, newBase64Error(p.opts.SourceFile, p.line, "dn", err)
			}
			p.valuesDropped++
			p.log.Warn("dropping entry with undecodable DN", map[string]any{
				"file":  p.opts.SourceFile,
				"line":  p.line,
				"error": err.Error(),
			})
			// DN stays empty; the entry is discarded at finalization.
		} else {
			entry.DN = strings.TrimSpace(string(decoded))
		}
	} else {
		entry.DN = strings.TrimSpace(m[2])
	}

	p.cur = entry
	p.sawAttr = false
	p.lastValue = nil
	p.lastName = ""

	return finalized, nil
}

// addBase64Attribute decodes and stores a "name:: value" line.
func (p *Parser) addBase64Attribute(name, encoded string, size int) error {
	name = strings.ToLower(name)
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		if p.opts.Strict {
			return newBase64Error(p.opts.SourceFile, p.line, name, err)
		}
		// The attribute is skipped entirely, not stored with a
		// placeholder. A following continuation line is swallowed.
		p.cur.Size += size
		p.sawAttr = true
		p.lastValue = nil
		p.lastName = ""
		p.valuesDropped++
		p.log.Warn("dropping attribute with invalid base64 value", map[string]any{
			"file":      p.opts.SourceFile,
			"line":      p.line,
			"attribute": name,
		})
		return nil
	}

	p.addAttribute(name, string(decoded), size)
	return nil
}

// addAttribute stores an attribute value on the open entry, subject to the
// attribute-level filters. The objectclass and changetype derived fields are
// populated regardless of filtering.
func (p *Parser) addAttribute(name, value string, size int) {
	p.cur.Size += size
	p.sawAttr = true
	p.lastName = name

	switch name {
	case "objectclass":
		p.cur.recordObjectClass(value)
	case "changetype":
		p.cur.ChangeType = value
	}

	if p.opts.Filter.AllowAttribute(name) {
		p.cur.AddAttribute(name, value)
		p.lastValue = p.cur.Attribute(name)
	} else {
		p.lastValue = nil
	}
}

// closeCurrent finalizes the open entry, applying the entry-level filters.
// Entries with an empty DN are discarded silently.
func (p *Parser) closeCurrent() *Entry {
	entry := p.cur
	p.cur = nil
	p.sawAttr = false
	p.lastValue = nil
	p.lastName = ""

	if entry == nil {
		return nil
	}
	if entry.DN == "" {
		p.log.Debug("discarding entry without DN", map[string]any{
			"file": entry.SourceFile,
			"line": entry.LineNumber,
		})
		return nil
	}
	if !p.opts.Filter.AdmitEntry(entry) {
		return nil
	}
	return entry
}

// ParseAll drains a Parser over r and returns every produced entry. Intended
// for small inputs and tests; use the Parser iterator for large files.
func ParseAll(r io.Reader, opts Options) ([]*Entry, error) {
	p := NewParser(r, opts)

	var entries []*Entry
	for p.Next() {
		entries = append(entries, p.Entry())
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

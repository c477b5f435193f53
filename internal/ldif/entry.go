package ldif

import "strings"

// Value holds the stored value of a single attribute: a scalar while the
// attribute has one value, a list once a second value arrives. A name stored
// as a list never collapses back during parsing; subsequent values append.
type Value struct {
	scalar string
	list   []string
	multi  bool
}

// NewValue creates a Value holding a single scalar.
func NewValue(s string) *Value {
	return &Value{scalar: s}
}

// Add appends a value, promoting the Value to a list on the second add.
func (v *Value) Add(s string) {
	if v.multi {
		v.list = append(v.list, s)
		return
	}
	v.list = []string{v.scalar, s}
	v.scalar = ""
	v.multi = true
}

// AppendToLast extends the most recently added value in place, with no
// separator. Used for continuation lines.
func (v *Value) AppendToLast(fragment string) {
	if v.multi {
		v.list[len(v.list)-1] += fragment
		return
	}
	v.scalar += fragment
}

// Values returns all stored values in insertion order.
func (v *Value) Values() []string {
	if v.multi {
		return v.list
	}
	return []string{v.scalar}
}

// SetValues replaces the stored values, preserving the scalar/list shape.
func (v *Value) SetValues(values []string) {
	if len(values) == 1 {
		v.scalar = values[0]
		v.list = nil
		v.multi = false
		return
	}
	v.scalar = ""
	v.list = values
	v.multi = true
}

// Export returns the value in output shape: a plain string for single-valued
// attributes, a []string for genuinely multi-valued ones.
func (v *Value) Export() any {
	if v.multi {
		return v.list
	}
	return v.scalar
}

// Entry is a single directory entry assembled from LDIF lines.
type Entry struct {
	// DN is the entry's distinguished name, taken from the "dn:" marker
	// line. An entry with an empty DN is never produced by the parser.
	DN string

	// SourceFile is the path of the file the entry was read from.
	SourceFile string

	// LineNumber is the 1-based line number of the entry's DN line.
	LineNumber int

	// Size is the cumulative byte length of the raw lines belonging to
	// the entry, line terminators included.
	Size int

	// ChangeType holds the value of the changetype attribute, if present.
	ChangeType string

	// ObjectClasses collects every objectclass value seen on the entry,
	// independent of attribute filtering.
	ObjectClasses []string

	attrs map[string]*Value
	names []string
}

// NewEntry creates an empty entry for the given source position.
func NewEntry(sourceFile string, lineNumber int) *Entry {
	return &Entry{
		SourceFile: sourceFile,
		LineNumber: lineNumber,
		attrs:      make(map[string]*Value),
	}
}

// AddAttribute stores a value under the given (already lower-cased) name,
// promoting the attribute to a list when it repeats.
func (e *Entry) AddAttribute(name, value string) {
	if existing, ok := e.attrs[name]; ok {
		existing.Add(value)
		return
	}
	e.attrs[name] = NewValue(value)
	e.names = append(e.names, name)
}

// Attribute returns the stored value for name, or nil if absent.
func (e *Entry) Attribute(name string) *Value {
	return e.attrs[strings.ToLower(name)]
}

// AttributeNames returns the stored attribute names in insertion order.
func (e *Entry) AttributeNames() []string {
	return e.names
}

// AttributeMap returns the attributes in output shape: string values for
// single-valued attributes, []string for multi-valued ones.
func (e *Entry) AttributeMap() map[string]any {
	out := make(map[string]any, len(e.attrs))
	for name, v := range e.attrs {
		out[name] = v.Export()
	}
	return out
}

// recordObjectClass notes an objectclass value on the entry's derived list.
func (e *Entry) recordObjectClass(value string) {
	e.ObjectClasses = append(e.ObjectClasses, value)
}

// extendLastObjectClass appends a continuation fragment to the most recently
// recorded object class.
func (e *Entry) extendLastObjectClass(fragment string) {
	if n := len(e.ObjectClasses); n > 0 {
		e.ObjectClasses[n-1] += fragment
	}
}

// hasObjectClass reports whether the entry carries the given object class,
// compared case-insensitively.
func (e *Entry) hasObjectClass(name string) bool {
	name = strings.ToLower(name)
	for _, oc := range e.ObjectClasses {
		if strings.ToLower(oc) == name {
			return true
		}
	}
	return false
}

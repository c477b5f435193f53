/*
Package ldif implements a streaming parser for LDAP Data Interchange Format
(LDIF) files.

The parser consumes text line by line and produces entries one at a time
through a pull-based iterator, so arbitrarily large files can be processed
without buffering more than the entry currently being assembled.

# Parsing model

An entry begins at a "dn:" marker line and accumulates attribute lines until
the next "dn:" line or end of input. Lines beginning with a single space
continue the value of the preceding attribute with no inserted separator.
Comment lines ("#"), blank lines and change-record separators ("-") are
ignored. Attribute values written as "name:: base64" are decoded before they
are stored.

Note that blank lines do not terminate entries here; only the next "dn:" line
or end of input does. This deviates from RFC 2849, which separates entries on
blank lines, and is kept for compatibility with the directory exports this
parser was built to consume.

# Filtering

A Filter restricts both which attribute values are stored (allow-list,
deny-list and operational-attribute suppression, applied as each line is
seen) and which entries are produced at all (base-DN suffix and object-class
matching, applied at entry finalization). Object classes and the changetype
attribute are recorded on the entry itself regardless of attribute filters.

# Strictness

In strict mode, malformed base64 values and unparseable lines abort the file
with a ParseError identifying the offending line. In lenient mode they are
logged through the configured Logger and skipped; only the affected value or
line is lost.

# Example Usage

	f, err := os.Open("export.ldif")
	if err != nil {
		return err
	}
	defer f.Close()

	p := ldif.NewParser(f, ldif.Options{
		SourceFile: "export.ldif",
		Strict:     true,
		Filter:     ldif.NewFilter(ldif.FilterConfig{BaseDN: "dc=example,dc=com"}),
	})
	for p.Next() {
		entry := p.Entry()
		// process entry
	}
	if err := p.Err(); err != nil {
		return err
	}
*/
package ldif

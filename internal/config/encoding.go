package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ResolveEncoding maps an encoding name from the configuration to a decoder.
// Names are resolved through the IANA character set registry; UTF-8 is the
// default and is returned for its common aliases.
func ResolveEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		// The IANA index knows the name but has no decoder for it.
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}

	return enc, nil
}

package ldif

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
	"github.com/google/uuid"
)

// Binary attribute names, matched after the parser's lower-casing.
const (
	attrObjectGUID = "objectguid"
	attrObjectSID  = "objectsid"
)

// guidBytesLength is the fixed size of a binary GUID.
const guidBytesLength = 16

// GUIDFromBytes converts a binary objectGUID value to its canonical
// hyphenated string form. Active Directory stores the first three UUID
// groups little-endian, so the bytes are reordered before formatting.
func GUIDFromBytes(b []byte) (string, error) {
	if len(b) != guidBytesLength {
		return "", fmt.Errorf("GUID must be %d bytes, got %d", guidBytesLength, len(b))
	}

	ordered := make([]byte, guidBytesLength)
	copy(ordered, b)

	// Data1 (4 bytes), Data2 (2 bytes) and Data3 (2 bytes) are stored
	// little-endian; Data4 is stored as-is.
	ordered[0], ordered[1], ordered[2], ordered[3] = b[3], b[2], b[1], b[0]
	ordered[4], ordered[5] = b[5], b[4]
	ordered[6], ordered[7] = b[7], b[6]

	id, err := uuid.FromBytes(ordered)
	if err != nil {
		return "", fmt.Errorf("invalid GUID bytes: %w", err)
	}

	return id.String(), nil
}

// SIDFromBytes converts a binary objectSid value to its "S-1-..." string
// form.
func SIDFromBytes(b []byte) (string, error) {
	// Revision (1) + sub-authority count (1) + authority (6), then four
	// bytes per sub-authority.
	if len(b) < 8 {
		return "", fmt.Errorf("SID must be at least 8 bytes, got %d", len(b))
	}
	if want := 8 + int(b[1])*4; len(b) != want {
		return "", fmt.Errorf("SID length %d does not match sub-authority count %d", len(b), b[1])
	}

	return objectsid.Decode(b).String(), nil
}

// InterpretBinaryAttributes rewrites known binary attribute values on the
// entry to their human-readable forms: objectGUID to a hyphenated UUID and
// objectSid to an "S-1-..." string. Values that fail to convert are left
// untouched.
func InterpretBinaryAttributes(e *Entry) {
	interpret(e.Attribute(attrObjectGUID), func(raw []byte) (string, error) {
		return GUIDFromBytes(raw)
	})
	interpret(e.Attribute(attrObjectSID), func(raw []byte) (string, error) {
		return SIDFromBytes(raw)
	})
}

func interpret(v *Value, convert func([]byte) (string, error)) {
	if v == nil {
		return
	}

	values := v.Values()
	out := make([]string, len(values))
	for i, raw := range values {
		converted, err := convert([]byte(raw))
		if err != nil {
			out[i] = raw
			continue
		}
		out[i] = converted
	}
	v.SetValues(out)
}

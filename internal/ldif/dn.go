package ldif

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// MatchesBaseDN reports whether dn sits at or below base in the directory
// tree. Both sides are parsed per RFC 4514 so that differences in attribute
// type case and inter-RDN spacing do not affect the result. When either side
// does not parse as a DN, the comparison falls back to a case-folded string
// suffix match.
func MatchesBaseDN(dn, base string) bool {
	base = strings.TrimSpace(base)
	if base == "" {
		return true
	}
	dn = strings.TrimSpace(dn)

	parsedDN, errDN := ldap.ParseDN(dn)
	parsedBase, errBase := ldap.ParseDN(base)
	if errDN == nil && errBase == nil {
		return dnHasSuffix(parsedDN, parsedBase)
	}

	return strings.HasSuffix(strings.ToLower(dn), strings.ToLower(base))
}

// dnHasSuffix reports whether the trailing RDNs of dn equal base,
// compared case-insensitively on both attribute types and values.
func dnHasSuffix(dn, base *ldap.DN) bool {
	if len(dn.RDNs) < len(base.RDNs) {
		return false
	}

	offset := len(dn.RDNs) - len(base.RDNs)
	for i, baseRDN := range base.RDNs {
		if !rdnEqualFold(dn.RDNs[offset+i], baseRDN) {
			return false
		}
	}

	return true
}

// rdnEqualFold compares two RDNs case-insensitively. Multi-valued RDNs must
// match in order; directory exports emit them deterministically.
func rdnEqualFold(a, b *ldap.RelativeDN) bool {
	if len(a.Attributes) != len(b.Attributes) {
		return false
	}
	for i, attr := range a.Attributes {
		other := b.Attributes[i]
		if !strings.EqualFold(attr.Type, other.Type) || !strings.EqualFold(attr.Value, other.Value) {
			return false
		}
	}
	return true
}

// ValidateDNSyntax checks that a string is a well-formed Distinguished Name.
func ValidateDNSyntax(dn string) error {
	if strings.TrimSpace(dn) == "" {
		return fmt.Errorf("DN cannot be empty")
	}

	if _, err := ldap.ParseDN(dn); err != nil {
		return fmt.Errorf("invalid DN syntax: %w", err)
	}

	return nil
}

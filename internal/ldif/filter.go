package ldif

import "strings"

// defaultOperationalAttributes is the deny-list applied when operational
// attributes are excluded and no override is configured. It covers the
// server-managed bookkeeping attributes emitted by common directory servers.
var defaultOperationalAttributes = []string{
	"createtimestamp",
	"creatorsname",
	"modifytimestamp",
	"modifiersname",
	"structuralobjectclass",
	"governingstructurerule",
	"entrydn",
	"entryuuid",
	"entrycsn",
	"contextcsn",
	"pwdchangedtime",
	"pwdaccountlockedtime",
	"pwdfailuretime",
	"pwdhistory",
	"pwdgraceusetime",
}

// DefaultOperationalAttributes returns the built-in operational attribute
// deny-list.
func DefaultOperationalAttributes() []string {
	out := make([]string, len(defaultOperationalAttributes))
	copy(out, defaultOperationalAttributes)
	return out
}

// FilterConfig describes the inclusion and exclusion rules a Filter applies.
// All attribute names are matched case-insensitively.
type FilterConfig struct {
	// BaseDN restricts output to entries at or below this DN. Empty
	// disables the check.
	BaseDN string

	// ObjectClasses restricts output to entries carrying at least one of
	// these object classes. Empty disables the check.
	ObjectClasses []string

	// AttributeAllowList, when non-empty, drops every attribute value
	// whose name is not listed.
	AttributeAllowList []string

	// AttributeDenyList drops every attribute value whose name is listed.
	AttributeDenyList []string

	// OperationalAttributes overrides the built-in operational attribute
	// deny-list. Nil keeps the default set.
	OperationalAttributes []string

	// IncludeOperational disables operational attribute suppression.
	IncludeOperational bool
}

// Filter decides which attribute values are stored on an entry and which
// finalized entries are produced at all. Attribute checks run as each line is
// seen; entry checks run once at finalization.
type Filter struct {
	baseDN        string
	objectClasses []string
	allow         map[string]struct{}
	deny          map[string]struct{}
	operational   map[string]struct{}
}

// NewFilter builds a Filter from the given configuration.
func NewFilter(cfg FilterConfig) *Filter {
	f := &Filter{
		baseDN: strings.TrimSpace(cfg.BaseDN),
	}

	for _, oc := range cfg.ObjectClasses {
		f.objectClasses = append(f.objectClasses, strings.ToLower(oc))
	}

	if len(cfg.AttributeAllowList) > 0 {
		f.allow = lowerSet(cfg.AttributeAllowList)
	}
	f.deny = lowerSet(cfg.AttributeDenyList)

	if !cfg.IncludeOperational {
		operational := cfg.OperationalAttributes
		if operational == nil {
			operational = defaultOperationalAttributes
		}
		f.operational = lowerSet(operational)
	}

	return f
}

// AllowAttribute reports whether a value for the given (lower-cased)
// attribute name may be stored. The allow-list, deny-list and operational
// checks are independent; any one of them is sufficient to discard a value.
func (f *Filter) AllowAttribute(name string) bool {
	if f == nil {
		return true
	}
	if f.allow != nil {
		if _, ok := f.allow[name]; !ok {
			return false
		}
	}
	if _, ok := f.deny[name]; ok {
		return false
	}
	if _, ok := f.operational[name]; ok {
		return false
	}
	return true
}

// AdmitEntry reports whether a finalized entry should be produced. Entries
// rejected here are dropped silently; rejection is not an error.
func (f *Filter) AdmitEntry(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.baseDN != "" && !MatchesBaseDN(e.DN, f.baseDN) {
		return false
	}
	if len(f.objectClasses) > 0 {
		matched := false
		for _, oc := range f.objectClasses {
			if e.hasObjectClass(oc) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func lowerSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

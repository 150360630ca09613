// Package tagset models the named tag-name sets that configure how
// DomWalker, StyleFactor, and BlockExtractor classify nodes.
package tagset

import "fmt"

// Set is an unordered collection of tag (or attribute) names.
type Set map[string]struct{}

// NewSet builds a Set from a list of names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is a member.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name.
func (s Set) Add(name string) { s[name] = struct{}{} }

// Empty reports whether the set has no members. tags_parents_allow and
// tags_parents_direct are treated as "match everything" when empty; an
// empty tag_attrs extracts no attributes.
func (s Set) Empty() bool { return len(s) == 0 }

// Sets bundles every named tag set an adapter configures before running the
// core pipeline.
type Sets struct {
	Prot          Set // tags_prot: fully protected, never recursed or extracted
	ProtInline    Set // tags_prot_inline: inline protected placeholder
	Raw           Set // tags_raw: CDATA-like, body emitted unescaped
	Inline        Set // tags_inline: factored into inline markers
	ParentsAllow  Set // tags_parents_allow: only descendants of these are block-eligible
	ParentsDirect Set // tags_parents_direct: immediate parent must be one of these
	TagAttrs      Set // tag_attrs: attribute names extracted as separate blocks
	Semantic      Set // tags_semantic: never elide
	Unique        Set // tags_unique: never merge adjacent
	Headers       Set // tags_headers: append block terminator
	AttrsHeaders  Set // attrs_headers: attribute names that behave like header blocks
}

// New returns a Sets with every member set initialized empty (never nil, so
// Override and Has are always safe to call).
func New() Sets {
	return Sets{
		Prot:          Set{},
		ProtInline:    Set{},
		Raw:           Set{},
		Inline:        Set{},
		ParentsAllow:  Set{},
		ParentsDirect: Set{},
		TagAttrs:      Set{},
		Semantic:      Set{},
		Unique:        Set{},
		Headers:       Set{},
		AttrsHeaders:  Set{},
	}
}

// byName indexes each member set by the CLI name used in --tags-<set>.
func (s *Sets) byName() map[string]*Set {
	return map[string]*Set{
		"prot":           &s.Prot,
		"prot_inline":    &s.ProtInline,
		"raw":            &s.Raw,
		"inline":         &s.Inline,
		"parents_allow":  &s.ParentsAllow,
		"parents_direct": &s.ParentsDirect,
		"attrs":          &s.TagAttrs,
		"semantic":       &s.Semantic,
		"unique":         &s.Unique,
		"headers":        &s.Headers,
		"attrs_headers":  &s.AttrsHeaders,
	}
}

// Override applies a --tags-<name> CLI flag. If extend is true (the
// leading '+' form), values are added to the existing set; otherwise the
// set is replaced.
func (s *Sets) Override(name string, values []string, extend bool) error {
	target, ok := s.byName()[name]
	if !ok {
		return fmt.Errorf("unknown tag set %q", name)
	}
	if !extend {
		*target = Set{}
	}
	for _, v := range values {
		(*target)[v] = struct{}{}
	}
	return nil
}

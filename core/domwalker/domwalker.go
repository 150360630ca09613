// Package domwalker provides depth-first traversal primitives: next-sibling-safe
// child iteration (so callers may mutate or replace the current child during
// a walk) and a small pool of per-depth scratch buffers so hot recursive
// passes don't allocate a new string builder on every call.
package domwalker

import (
	"strings"

	"github.com/transfuse/transfuse/core/xmldoc"
)

// ForEachChild iterates n's children, calling fn once per child. The next
// sibling is read before fn runs, so fn may freely unlink, replace, or
// reparent the child it was given (SpaceEngine's passes walk children this
// way) without corrupting the iteration.
func ForEachChild(n *xmldoc.Node, fn func(child *xmldoc.Node)) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		fn(child)
		child = next
	}
}

// Scratch is a stack of per-depth scratch string builders, reused across a
// recursive traversal so each recursion depth gets a stable, allocation-free
// buffer instead of allocating fresh storage on every call. Contents are
// only valid for the duration of the call at that depth: a
// deeper call may freely reuse and clear the buffer for its own depth, but
// must not assume a shallower depth's buffer survives its own return.
type Scratch struct {
	bufs []strings.Builder
}

// At returns the scratch buffer for the given recursion depth, growing the
// pool and clearing the buffer's old contents if this is a fresh visit to
// that depth.
func (s *Scratch) At(depth int) *strings.Builder {
	for len(s.bufs) <= depth {
		s.bufs = append(s.bufs, strings.Builder{})
	}
	s.bufs[depth].Reset()
	return &s.bufs[depth]
}

// IsElement reports whether n is an element node (the common guard every
// pass uses before consulting a tag set).
func IsElement(n *xmldoc.Node) bool { return n.Type == xmldoc.ElementNode }

// Package symbols legalizes WebAssembly names into BrightScript identifiers
// and keeps them unique per scope.
//
// BrightScript identifiers are case-insensitive and limited to letters,
// digits and underscores. Legalization lowercases letters and digits and
// replaces every other byte with an underscore. Whenever that changes the
// name, the Adler-32 checksum of the original bytes is appended so that
// distinct names which legalize to the same text stay distinct.
package symbols

import (
	"hash/adler32"
	"strconv"
	"strings"
)

// Env is the conventional import module name that gets no qualifier.
const Env = "env"

// Legalize maps each byte of name to a lowercase letter, digit or underscore.
func Legalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + 'a' - 'A')
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Checksum returns the Adler-32 checksum of name.
func Checksum(name string) uint32 {
	return adler32.Checksum([]byte(name))
}

// Qualifier returns the "<module>_" prefix for names owned by module, or the
// empty string for an empty module or Env.
func Qualifier(module string) string {
	if module == "" || module == Env {
		return ""
	}
	return Legalize(module) + "_"
}

// Name builds prefix + qualifier + legalized name, appending the checksum of
// name when legalization altered it.
func Name(prefix, qualifier, name string) string {
	legal := Legalize(name)
	out := prefix + qualifier + legal
	if legal != name {
		out += "_" + strconv.FormatUint(uint64(Checksum(name)), 10)
	}
	return out
}

// Scope is a set of taken identifiers plus a lookup table from entity keys
// to the identifiers they were given.
type Scope struct {
	taken map[string]struct{}
	names map[string]string
}

// NewScope creates an empty scope with the given identifiers reserved.
func NewScope(reserved ...string) *Scope {
	s := &Scope{
		taken: make(map[string]struct{}),
		names: make(map[string]string),
	}
	s.Reserve(reserved...)
	return s
}

// Reserve marks identifiers as taken without binding them to a key.
func (s *Scope) Reserve(idents ...string) {
	for _, id := range idents {
		s.taken[strings.ToLower(id)] = struct{}{}
	}
}

// Taken reports whether ident is already used in the scope.
func (s *Scope) Taken(ident string) bool {
	_, ok := s.taken[strings.ToLower(ident)]
	return ok
}

// Unique returns ident, or ident with the first free "_<n>" suffix when it
// is taken, and marks the result as taken.
func (s *Scope) Unique(ident string) string {
	if s.Taken(ident) {
		base := ident + "_"
		for n := 0; ; n++ {
			candidate := base + strconv.Itoa(n)
			if !s.Taken(candidate) {
				ident = candidate
				break
			}
		}
	}
	s.Reserve(ident)
	return ident
}

// Define legalizes name with prefix and qualifier, makes it unique and binds
// it to key. Defining a key twice keeps the first binding.
func (s *Scope) Define(key, prefix, qualifier, name string) string {
	if ident, ok := s.names[key]; ok {
		return ident
	}
	ident := s.Unique(Name(prefix, qualifier, name))
	s.names[key] = ident
	return ident
}

// Lookup returns the identifier bound to key.
func (s *Scope) Lookup(key string) (string, bool) {
	ident, ok := s.names[key]
	return ident, ok
}

// Clone returns a scope that starts with the same taken identifiers and no
// bindings. Function scopes are seeded this way from the global scope.
func (s *Scope) Clone() *Scope {
	c := &Scope{
		taken: make(map[string]struct{}, len(s.taken)),
		names: make(map[string]string),
	}
	for id := range s.taken {
		c.taken[id] = struct{}{}
	}
	return c
}

// Len returns the number of bound keys.
func (s *Scope) Len() int { return len(s.names) }

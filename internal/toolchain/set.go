package toolchain

import (
	"sort"
	"strings"
)

// Set is the installed-toolchain set reported by the installer. It is built
// fresh for every query.
type Set map[string]struct{}

// ParseSet reads one triple per line, trimming whitespace and skipping blank
// lines.
func ParseSet(out []byte) Set {
	set := Set{}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}

func (s Set) Has(triple string) bool {
	_, ok := s[triple]
	return ok
}

// Sorted returns the triples in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for triple := range s {
		out = append(out, triple)
	}
	sort.Strings(out)
	return out
}

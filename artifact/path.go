package artifact

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindLocal Kind = iota + 1
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Path is a retained saved path: either a file on the local filesystem or an object store uri.
// The zero value is invalid; use Local or Remote.
type Path struct {
	kind  Kind
	value string
}

func Local(path string) Path {
	return Path{kind: KindLocal, value: path}
}

func Remote(uri string) Path {
	return Path{kind: KindRemote, value: uri}
}

func (p Path) Kind() Kind {
	return p.kind
}

// Value returns the filesystem path for a local path or the uri for a remote one
func (p Path) Value() string {
	return p.value
}

// Scheme returns the uri scheme of a remote path, e.g. "gs", or an empty string
func (p Path) Scheme() string {
	if p.kind != KindRemote {
		return ""
	}
	scheme, _, found := strings.Cut(p.value, "://")
	if !found {
		return ""
	}
	return scheme
}

func (p Path) String() string {
	return fmt.Sprintf("%s(%s)", p.kind, p.value)
}

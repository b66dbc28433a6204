package suiteindex

import (
	"fmt"
	"os"
	"regexp"
)

// DependencyCatalog lists the module paths declared in a dependency registry, in the
// registry's own iteration order.
type DependencyCatalog interface {
	ListDeclaredPaths() []string
}

// StaticCatalog is a DependencyCatalog over a fixed list of paths.
type StaticCatalog []string

func (c StaticCatalog) ListDeclaredPaths() []string {
	return c
}

// CatalogLoader produces a fresh catalog. A nil catalog with a nil error means the
// registry is disabled.
type CatalogLoader func() (DependencyCatalog, error)

// Matches goog.addDependency("path", ...) or goog.addDependency('path', ...).
var addDependencyRegex = regexp.MustCompile(`goog\.addDependency\(\s*["']([^"']+)["']`)

// LoadDepsFile reads the paths declared by goog.addDependency calls in a Closure deps file.
// A path declared more than once is kept only at its first position, as the registry is
// keyed by path.
func LoadDepsFile(path string) (StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deps file: %w", err)
	}
	return ParseDeps(data), nil
}

// ParseDeps extracts declared paths from the contents of a deps file.
func ParseDeps(data []byte) StaticCatalog {
	seen := make(map[string]struct{})
	ret := StaticCatalog{}
	for _, m := range addDependencyRegex.FindAllSubmatch(data, -1) {
		p := string(m[1])
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		ret = append(ret, p)
	}
	return ret
}

// DepsFileLoader returns a CatalogLoader that rereads the deps file at path on every call.
// An empty path disables the registry.
func DepsFileLoader(path string) CatalogLoader {
	return func() (DependencyCatalog, error) {
		if path == "" {
			return nil, nil
		}
		c, err := LoadDepsFile(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

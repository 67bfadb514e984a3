package inventory

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var ErrRelativePath = errors.New("path is not absolute")

type mapping struct {
	from string
	to   string
}

// PathMapper rewrites collaborator paths into the local convention. Prefixes match
// on path boundaries only and the longest prefix wins, so the outcome does not
// depend on map iteration order. Case is preserved.
type PathMapper struct {
	rules []mapping
}

func NewPathMapper(m map[string]string) (*PathMapper, error) {
	pm := &PathMapper{rules: make([]mapping, 0, len(m))}

	var errs []error
	for from, to := range m {
		if !filepath.IsAbs(from) || !filepath.IsAbs(to) {
			errs = append(errs, fmt.Errorf("mapping %q -> %q: %w", from, to, ErrRelativePath))
			continue
		}
		pm.rules = append(pm.rules, mapping{from: filepath.Clean(from), to: filepath.Clean(to)})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(pm.rules, func(i, j int) bool {
		if len(pm.rules[i].from) != len(pm.rules[j].from) {
			return len(pm.rules[i].from) > len(pm.rules[j].from)
		}
		return pm.rules[i].from < pm.rules[j].from
	})

	return pm, nil
}

// Merge returns a mapper holding base's rules with override taking precedence for
// equal prefixes.
func Merge(base, override map[string]string) (*PathMapper, error) {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[filepath.Clean(k)] = v
	}
	for k, v := range override {
		merged[filepath.Clean(k)] = v
	}
	return NewPathMapper(merged)
}

// Map applies the first matching prefix rewrite to a cleaned path.
func (p *PathMapper) Map(path string) string {
	path = filepath.Clean(path)
	if p == nil {
		return path
	}

	for _, r := range p.rules {
		if rest, ok := cutPathPrefix(path, r.from); ok {
			return filepath.Join(r.to, rest)
		}
	}

	return path
}

// Resolve joins a relative path onto base, maps the result and checks that it is
// absolute.
func (p *PathMapper) Resolve(base, path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}

	if !filepath.IsAbs(path) && !isRemoteAbs(path) {
		if base == "" {
			return "", fmt.Errorf("%q: %w", path, ErrRelativePath)
		}
		path = filepath.Join(base, path)
	}

	mapped := p.Map(path)
	if !filepath.IsAbs(mapped) {
		return "", fmt.Errorf("%q: %w", mapped, ErrRelativePath)
	}

	return mapped, nil
}

func (p *PathMapper) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rules)
}

func cutPathPrefix(path, prefix string) (string, bool) {
	if path == prefix {
		return "", true
	}

	sep := string(filepath.Separator)
	if prefix == sep {
		return strings.TrimPrefix(path, sep), strings.HasPrefix(path, sep)
	}

	if strings.HasPrefix(path, prefix+sep) {
		return path[len(prefix)+1:], true
	}

	return "", false
}

// isRemoteAbs accepts paths that are absolute on the collaborator's host even when
// they are not on ours, so a mapping can still rewrite them.
func isRemoteAbs(path string) bool {
	return strings.HasPrefix(path, "/")
}

package beans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidScanRoot is returned for an empty or malformed namespace root.
var ErrInvalidScanRoot = errors.New("invalid scan root")

// rootMatcher decides whether a Go package path lies under a namespace root.
type rootMatcher interface {
	Match(pkgPath string) bool
}

// prefixRoot matches the package itself and every package below it.
type prefixRoot string

func (r prefixRoot) Match(pkgPath string) bool {
	root := string(r)
	return pkgPath == root || strings.HasPrefix(pkgPath, root+"/")
}

// compileRoot turns a root into a matcher. Roots containing glob
// meta-characters are compiled with '/' as the separator, so "*" stays
// within one path element and "**" crosses elements.
func compileRoot(root string) (rootMatcher, error) {
	root = strings.TrimSuffix(strings.TrimSpace(root), "/")
	if root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidScanRoot)
	}
	if !strings.ContainsAny(root, "*?[{") {
		return prefixRoot(root), nil
	}
	g, err := glob.Compile(root, '/')
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidScanRoot, root, err)
	}
	return g, nil
}

func compileRoots(roots []string) ([]rootMatcher, error) {
	matchers := make([]rootMatcher, 0, len(roots))
	for _, root := range roots {
		m, err := compileRoot(root)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func matchAny(matchers []rootMatcher, pkgPath string) bool {
	for _, m := range matchers {
		if m.Match(pkgPath) {
			return true
		}
	}
	return false
}

// SkippedComponent records a component that could not be loaded.
type SkippedComponent struct {
	Component string
	Reason    error
}

// ScanResult summarises one scan.
type ScanResult struct {
	// Registered lists the new bean names in registration order.
	Registered []string
	// Skipped lists components under the roots that failed to load.
	Skipped []SkippedComponent
}

// Scanner enumerates the components of a set of catalogs that live under
// given namespace roots.
type Scanner struct {
	catalogs []*Catalog
	exclude  []rootMatcher
}

// NewScanner creates a scanner over catalogs. Exclude patterns use the same
// syntax as roots.
func NewScanner(catalogs []*Catalog, exclude []string) (*Scanner, error) {
	ex, err := compileRoots(exclude)
	if err != nil {
		return nil, err
	}
	return &Scanner{catalogs: catalogs, exclude: ex}, nil
}

// Candidate is a component found under a root, with the catalog it came from.
type Candidate struct {
	Component *Component
	Catalog   string
}

// Candidates returns the matching components in catalog order. Invalid
// components are included so the caller can report them.
func (s *Scanner) Candidates(roots ...string) ([]Candidate, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots given", ErrInvalidScanRoot)
	}
	matchers, err := compileRoots(roots)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, catalog := range s.catalogs {
		for _, component := range catalog.Components() {
			pkg := component.PkgPath()
			if !matchAny(matchers, pkg) || matchAny(s.exclude, pkg) {
				continue
			}
			out = append(out, Candidate{Component: component, Catalog: catalog.Name()})
		}
	}
	return out, nil
}

// Package analyzer derives dependency information from the plugins that are
// actually installed, as declared by their own packaged descriptors.
package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/ports"
)

// DefaultCacheTTL bounds how long one directory scan is reused.
const DefaultCacheTTL = 30 * time.Second

// Analyzer answers dependency queries over the installed plugin set. Scans
// are cached with a short expiry; the clock is injectable so tests control
// expiry without sleeping.
type Analyzer struct {
	scanner ports.InstalledScanner
	ttl     time.Duration
	now     func() time.Time

	mu              sync.Mutex
	cached          []ports.InstalledBinary
	lastRefreshedAt time.Time
}

// New creates an analyzer with the default cache expiry.
func New(scanner ports.InstalledScanner) *Analyzer {
	return &Analyzer{scanner: scanner, ttl: DefaultCacheTTL, now: time.Now}
}

// NewWithClock creates an analyzer with explicit expiry and clock.
func NewWithClock(scanner ports.InstalledScanner, ttl time.Duration, now func() time.Time) *Analyzer {
	return &Analyzer{scanner: scanner, ttl: ttl, now: now}
}

// installed returns the cached scan, refreshing it on miss or expiry.
func (a *Analyzer) installed(ctx context.Context) ([]ports.InstalledBinary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.now().Sub(a.lastRefreshedAt) < a.ttl {
		return a.cached, nil
	}
	binaries, err := a.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan installed plugins: %w", err)
	}
	if binaries == nil {
		binaries = []ports.InstalledBinary{}
	}
	a.cached = binaries
	a.lastRefreshedAt = a.now()
	return a.cached, nil
}

// Invalidate drops the cached scan so the next query re-reads the directory.
func (a *Analyzer) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cached = nil
}

func (a *Analyzer) descriptorFor(ctx context.Context, name string) (*domain.Descriptor, error) {
	binaries, err := a.installed(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range binaries {
		if b.Descriptor.Name == name {
			d := b.Descriptor
			return &d, nil
		}
	}
	return nil, domain.NotFoundError(name)
}

// DependencyInfo returns the plugin's own declared dependency lists. It fails
// with NotFound when the plugin's binary is not currently installed.
func (a *Analyzer) DependencyInfo(ctx context.Context, name string) (*domain.Descriptor, error) {
	return a.descriptorFor(ctx, name)
}

// BuildTree builds the plugin's dependency tree. Each node's children are one
// level of that plugin's own declared dependencies; a name already seen on
// the current branch becomes a leaf instead of expanding, so a true cycle in
// the installed set yields a finite tree.
func (a *Analyzer) BuildTree(ctx context.Context, name string, includeOptional bool) (*domain.DependencyNode, error) {
	binaries, err := a.installed(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]domain.Descriptor, len(binaries))
	for _, b := range binaries {
		byName[b.Descriptor.Name] = b.Descriptor
	}
	if _, ok := byName[name]; !ok {
		return nil, domain.NotFoundError(name)
	}

	visited := map[string]bool{}
	return buildNode(name, true, includeOptional, byName, visited), nil
}

func buildNode(name string, required bool, includeOptional bool, byName map[string]domain.Descriptor, visited map[string]bool) *domain.DependencyNode {
	descriptor, installed := byName[name]
	node := &domain.DependencyNode{Name: name, Installed: installed, Required: required}
	if !installed || visited[name] {
		return node
	}

	visited[name] = true
	for _, dep := range descriptor.Depend {
		node.Children = append(node.Children, buildNode(dep, true, includeOptional, byName, visited))
	}
	if includeOptional {
		for _, dep := range descriptor.SoftDepend {
			node.Children = append(node.Children, buildNode(dep, false, includeOptional, byName, visited))
		}
	}
	delete(visited, name)
	return node
}

// CheckMissing reports required dependencies that are not installed, keyed by
// the plugin that requires them. With an empty name every installed plugin is
// checked; optional dependencies are never reported.
func (a *Analyzer) CheckMissing(ctx context.Context, name string) (map[string][]string, error) {
	binaries, err := a.installed(ctx)
	if err != nil {
		return nil, err
	}
	installed := make(map[string]bool, len(binaries))
	for _, b := range binaries {
		installed[b.Descriptor.Name] = true
	}

	var targets []domain.Descriptor
	if name != "" {
		descriptor, err := a.descriptorFor(ctx, name)
		if err != nil {
			return nil, err
		}
		targets = []domain.Descriptor{*descriptor}
	} else {
		for _, b := range binaries {
			targets = append(targets, b.Descriptor)
		}
	}

	missing := make(map[string][]string)
	for _, d := range targets {
		for _, dep := range d.Depend {
			if !installed[dep] {
				missing[d.Name] = append(missing[d.Name], dep)
			}
		}
	}
	return missing, nil
}

// ReverseDependencies lists installed plugins that declare the named plugin
// as a required or optional dependency.
func (a *Analyzer) ReverseDependencies(ctx context.Context, name string) ([]string, error) {
	binaries, err := a.installed(ctx)
	if err != nil {
		return nil, err
	}

	var dependents []string
	for _, b := range binaries {
		for _, dep := range append(append([]string{}, b.Descriptor.Depend...), b.Descriptor.SoftDepend...) {
			if dep == name {
				dependents = append(dependents, b.Descriptor.Name)
				break
			}
		}
	}
	return dependents, nil
}

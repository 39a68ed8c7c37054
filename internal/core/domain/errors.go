package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the engine's failure taxonomy. Call sites wrap these
// with the offending plugin name(s) and a reason; callers branch with
// errors.Is.
var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrAlreadyLocked         = errors.New("already locked")
	ErrNotLocked             = errors.New("not locked")
	ErrCircularDependency    = errors.New("circular dependency")
	ErrMissingDependency     = errors.New("missing required dependency")
	ErrHasDependents         = errors.New("plugin has dependents")
	ErrVersionResolution     = errors.New("version resolution failed")
	ErrInstallFailed         = errors.New("install failed")
	ErrUpdateFailed          = errors.New("update failed")
	ErrRemoveFailed          = errors.New("remove failed")
	ErrRepositoryNotFound    = errors.New("repository not found")
	ErrUnsupportedRepository = errors.New("unsupported repository type")
)

// NotFoundError builds a NotFound error naming the plugin.
func NotFoundError(name string) error {
	return fmt.Errorf("plugin %q: %w", name, ErrNotFound)
}

// CircularDependencyError names the plugins on the offending cycle, in the
// order they were visited.
func CircularDependencyError(path []string) error {
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(path, " -> "))
}

// RepositoryNotFoundError reports that no configured source carries the
// plugin.
func RepositoryNotFoundError(name string) error {
	return fmt.Errorf("plugin %q: %w", name, ErrRepositoryNotFound)
}

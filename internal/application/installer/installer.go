// Package installer drives the bulk install/update batch: it validates the
// declared sync graph, orders the plugin set, decides which entries actually
// need work and runs one install transaction per plugin.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/plugmate/plugmate/internal/application/resolver"
	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/graph"
	"github.com/plugmate/plugmate/internal/core/ports"
)

// Stage labels for progress reporting.
const (
	StageSkipped     = "skipped"
	StageChecked     = "checked"
	StageResolving   = "resolving"
	StageDownloading = "downloading"
	StageInstalled   = "installed"
	StageFailed      = "failed"
)

// Progress is one batch progress event, consumed by the live status view.
type Progress struct {
	Name    string
	Stage   string
	Message string
}

// Service is the bulk install/update orchestrator. Plugins are processed
// sequentially within one batch: sync resolution requires each plugin's
// outcome to be known before its dependents are evaluated.
type Service struct {
	manifest   ports.ManifestStore
	store      ports.MetadataStore
	repo       ports.RepositoryLookup
	clients    ports.ClientRegistry
	resolver   *resolver.Resolver
	fs         afero.Fs
	pluginsDir string
	logger     *slog.Logger
	now        func() time.Time

	// OnProgress, when set, receives one event per plugin state change.
	OnProgress func(Progress)
}

// NewService wires the orchestrator from its collaborators.
func NewService(
	manifestStore ports.ManifestStore,
	store ports.MetadataStore,
	repo ports.RepositoryLookup,
	clients ports.ClientRegistry,
	res *resolver.Resolver,
	fs afero.Fs,
	pluginsDir string,
	logger *slog.Logger,
) *Service {
	return &Service{
		manifest:   manifestStore,
		store:      store,
		repo:       repo,
		clients:    clients,
		resolver:   res,
		fs:         fs,
		pluginsDir: pluginsDir,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) progress(name, stage, message string) {
	if s.OnProgress != nil {
		s.OnProgress(Progress{Name: name, Stage: stage, Message: message})
	}
}

// InstallAll runs the whole batch. A bad sync graph (missing target or
// cycle) aborts before any network or file activity; a per-plugin failure is
// recorded in the result and never aborts sibling processing.
func (s *Service) InstallAll(ctx context.Context) (*domain.InstallResult, error) {
	m, err := s.manifest.Load()
	if err != nil {
		return nil, err
	}

	nodes := resolver.SyncNodes(m)
	if err := graph.Validate(nodes); err != nil {
		return nil, err
	}
	order, err := graph.Order(nodes)
	if err != nil {
		return nil, err
	}

	result := domain.NewInstallResult()
	resolved := make(map[string]string, len(order))

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		specText, _ := m.Get(name)
		if domain.IsUnmanagedMarker(specText) {
			s.progress(name, StageSkipped, "unmanaged")
			continue
		}

		s.progress(name, StageResolving, specText)
		version, err := s.resolver.Resolve(name, specText, resolved)
		if err != nil {
			s.fail(result, name, err)
			continue
		}

		record, err := s.store.Get(name)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.fail(result, name, err)
				continue
			}
			record = nil
		}

		if record != nil && record.Locked {
			resolved[name] = record.Current.Raw
			s.progress(name, StageSkipped, "locked")
			continue
		}

		isLatest := domain.ParseSpecifier(specText).Kind == domain.SpecifierLatest
		if record != nil && !isLatest && domain.NormalizeVersion(version) == record.Current.Normalized {
			// Already at the declared version; remember it for sync
			// consumers but touch nothing.
			resolved[name] = version
			s.progress(name, StageSkipped, "up to date")
			continue
		}

		installedVersion, ok := s.installOne(ctx, name, version, record, isLatest, result)
		if ok {
			resolved[name] = installedVersion
		}
		// A failed plugin stays out of resolvedSoFar; its sync consumers
		// fall back to the literal specifier text.
	}

	return result, nil
}

func (s *Service) fail(result *domain.InstallResult, name string, err error) {
	s.logger.Warn("plugin failed", "plugin", name, "error", err)
	result.Fail(name, err.Error())
	s.progress(name, StageFailed, err.Error())
}

// installOne runs one plugin's install transaction. It returns the installed
// (or confirmed) version and whether the transaction succeeded.
func (s *Service) installOne(ctx context.Context, name, target string, oldRecord *domain.Record, isLatest bool, result *domain.InstallResult) (string, bool) {
	repoFile, err := s.repo.RepositoryFile(ctx, name)
	if err != nil {
		s.fail(result, name, err)
		return "", false
	}
	source, ok := repoFile.Primary()
	if !ok {
		s.fail(result, name, fmt.Errorf("repository file for %q declares no sources", name))
		return "", false
	}
	client, err := s.clients.ClientFor(source.Type)
	if err != nil {
		s.fail(result, name, err)
		return "", false
	}

	latest, err := client.LatestVersion(ctx, source.RepositoryID)
	if err != nil {
		s.fail(result, name, fmt.Errorf("%w: %v", domain.ErrVersionResolution, err))
		return "", false
	}
	// A latest specifier always tracks the fresh catalog answer; the resolved
	// target only names a specific version for fixed and sync specifiers.
	info := latest
	if !isLatest && !strings.EqualFold(target, "latest") {
		info, err = client.VersionByName(ctx, source.RepositoryID, target)
		if err != nil {
			s.fail(result, name, fmt.Errorf("%w: %v", domain.ErrVersionResolution, err))
			return "", false
		}
	}

	newVersion := domain.VersionFromRaw(info.Version)
	now := s.now()

	if isLatest && oldRecord != nil && newVersion.Equal(oldRecord.Current) {
		// Fresh latest matches what is installed: record the check, keep
		// the file.
		oldRecord.Latest = domain.VersionFromRaw(latest.Version)
		oldRecord.LastCheckedAt = now
		if err := s.store.Put(oldRecord); err != nil {
			s.fail(result, name, err)
			return "", false
		}
		s.progress(name, StageChecked, "already at latest "+oldRecord.Current.Raw)
		return oldRecord.Current.Raw, true
	}

	// Create or update the record in memory; it is persisted only after the
	// file move succeeds.
	var record *domain.Record
	oldVersionRaw := ""
	repoRef := domain.RepositoryRef{CatalogType: source.Type, CatalogID: source.RepositoryID}
	if oldRecord == nil {
		record = domain.NewRecord(name, repoRef, newVersion, now)
	} else {
		record = oldRecord
		oldVersionRaw = oldRecord.Current.Raw
		record.Repository = repoRef
		record.Current = newVersion
		record.AppendHistory(newVersion.Raw, now, domain.ActionUpdate)
	}
	record.Latest = domain.VersionFromRaw(latest.Version)
	record.LastCheckedAt = now

	fileName := targetFileName(name, source, newVersion)
	oldFileName := ""
	if oldRecord != nil {
		oldFileName = oldRecord.Download.FileName
	}
	record.Download = domain.DownloadRef{DownloadID: info.DownloadID, FileName: fileName, URL: info.URL}

	s.progress(name, StageDownloading, newVersion.Raw)
	if err := s.download(ctx, client, source, info.Version, fileName); err != nil {
		// The old file, if any, is untouched on a failed download.
		s.fail(result, name, fmt.Errorf("%w: %v", domain.ErrInstallFailed, err))
		return "", false
	}

	// The new file is confirmed written; an old file under a different
	// computed name is removed now.
	if oldFileName != "" && oldFileName != fileName {
		oldPath := filepath.Join(s.pluginsDir, oldFileName)
		if exists, _ := afero.Exists(s.fs, oldPath); exists {
			if err := s.fs.Remove(oldPath); err != nil {
				s.logger.Warn("failed to remove old plugin file", "plugin", name, "file", oldFileName, "error", err)
			} else {
				result.AddRemoved(name, oldVersionRaw, oldFileName)
			}
		}
	}

	if err := s.store.Put(record); err != nil {
		s.fail(result, name, err)
		return "", false
	}

	result.AddInstalled(name, oldVersionRaw, newVersion.Raw)
	s.progress(name, StageInstalled, newVersion.Raw)
	return newVersion.Raw, true
}

// download streams the artifact to a temp file and renames it into place, so
// a partial transfer never replaces or deletes an existing file.
func (s *Service) download(ctx context.Context, client ports.CatalogClient, source domain.CandidateSource, version, fileName string) error {
	if err := s.fs.MkdirAll(s.pluginsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create plugin directory: %w", err)
	}
	finalPath := filepath.Join(s.pluginsDir, fileName)
	tempPath := finalPath + ".part"

	file, err := s.fs.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}
	downloadErr := client.DownloadByVersion(ctx, source.RepositoryID, version, source.FileNamePattern, file)
	closeErr := file.Close()
	if downloadErr != nil {
		_ = s.fs.Remove(tempPath)
		return downloadErr
	}
	if closeErr != nil {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", tempPath, closeErr)
	}

	if err := s.fs.Rename(tempPath, finalPath); err != nil {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("failed to place %s: %w", finalPath, err)
	}
	return nil
}

// targetFileName computes the destination file name from the candidate
// source's template; the default is <name>-<normalizedVersion>.jar.
func targetFileName(name string, source domain.CandidateSource, version domain.VersionDetail) string {
	if source.FileNameTemplate != "" {
		out := strings.ReplaceAll(source.FileNameTemplate, "{name}", name)
		return strings.ReplaceAll(out, "{version}", version.Normalized)
	}
	return fmt.Sprintf("%s-%s.jar", name, version.Normalized)
}

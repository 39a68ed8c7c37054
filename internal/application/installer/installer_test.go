package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugmate/plugmate/internal/application/resolver"
	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/ports"
	"github.com/plugmate/plugmate/internal/infrastructure/catalog"
	"github.com/plugmate/plugmate/internal/infrastructure/manifest"
	"github.com/plugmate/plugmate/internal/infrastructure/metadata"
)

const pluginsDir = "/server/plugins"

// fakeSource serves repository files from memory. Every file points at the
// fake catalog client.
type fakeSource struct {
	files map[string]*domain.RepositoryFile
}

func (s *fakeSource) Name() string                         { return "fake" }
func (s *fakeSource) IsAvailable(ctx context.Context) bool { return true }

func (s *fakeSource) ListPluginIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeSource) FetchManifest(ctx context.Context, name string) (*domain.RepositoryFile, error) {
	return s.files[name], nil
}

// fakeClient is an in-memory catalog adapter with failure injection.
type fakeClient struct {
	latest      map[string]string          // repository id -> latest version
	known       map[string]map[string]bool // repository id -> allowed named versions; nil means any
	lookupErr   map[string]error
	downloadErr map[string]error
	downloads   int
}

func (c *fakeClient) Type() string { return "fake" }

func (c *fakeClient) LatestVersion(ctx context.Context, id string) (ports.VersionInfo, error) {
	if err := c.lookupErr[id]; err != nil {
		return ports.VersionInfo{}, err
	}
	version, ok := c.latest[id]
	if !ok {
		return ports.VersionInfo{}, fmt.Errorf("unknown project %s", id)
	}
	return ports.VersionInfo{DownloadID: id + "@" + version, Version: version, URL: "https://fake/" + id}, nil
}

func (c *fakeClient) VersionByName(ctx context.Context, id, version string) (ports.VersionInfo, error) {
	if err := c.lookupErr[id]; err != nil {
		return ports.VersionInfo{}, err
	}
	if allowed := c.known[id]; allowed != nil && !allowed[version] {
		return ports.VersionInfo{}, fmt.Errorf("project %s has no version %q", id, version)
	}
	return ports.VersionInfo{DownloadID: id + "@" + version, Version: version, URL: "https://fake/" + id}, nil
}

func (c *fakeClient) DownloadByVersion(ctx context.Context, id, version, pattern string, w io.Writer) error {
	if err := c.downloadErr[id]; err != nil {
		return err
	}
	c.downloads++
	_, err := io.WriteString(w, "jar:"+id+":"+version)
	return err
}

type env struct {
	fs       afero.Fs
	service  *Service
	store    *metadata.Store
	manifest *manifest.Store
	client   *fakeClient
}

// newEnv builds an orchestrator over real stores on an in-memory filesystem
// and a fake catalog.
func newEnv(t *testing.T, entries map[string]string, order []string, client *fakeClient) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := &domain.Manifest{}
	for _, name := range order {
		require.NoError(t, m.Set(name, entries[name]))
	}
	manifestStore := manifest.NewStore(fs, "/server/plugins.yml")
	require.NoError(t, manifestStore.Save(m))

	files := make(map[string]*domain.RepositoryFile, len(entries))
	for name := range entries {
		files[name] = &domain.RepositoryFile{
			Name:    name,
			Sources: []domain.CandidateSource{{Type: "fake", RepositoryID: "id-" + name}},
		}
	}

	store := metadata.NewStore(fs, "/server/.plugmate/metadata")
	service := NewService(
		manifestStore,
		store,
		catalog.NewRepository(logger, &fakeSource{files: files}),
		catalog.NewRegistry(client),
		resolver.New(store),
		fs,
		pluginsDir,
		logger,
	).WithClock(func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) })

	return &env{fs: fs, service: service, store: store, manifest: manifestStore, client: client}
}

func (e *env) fileExists(t *testing.T, name string) bool {
	t.Helper()
	exists, err := afero.Exists(e.fs, pluginsDir+"/"+name)
	require.NoError(t, err)
	return exists
}

func TestInstallAll_FirstInstall(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-WorldEdit": "v7.3.0"}}
	e := newEnv(t, map[string]string{"WorldEdit": "v7.2.15"}, []string{"WorldEdit"}, client)

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Installed, 1)
	assert.Equal(t, "WorldEdit", result.Installed[0].Name)
	assert.Equal(t, "", result.Installed[0].OldVersion)
	assert.Equal(t, "v7.2.15", result.Installed[0].NewVersion)
	assert.Empty(t, result.Removed)
	assert.Empty(t, result.Failed)

	assert.True(t, e.fileExists(t, "WorldEdit-7.2.15.jar"), "file name uses the normalized version")

	record, err := e.store.Get("WorldEdit")
	require.NoError(t, err)
	assert.Equal(t, "v7.2.15", record.Current.Raw)
	assert.Equal(t, "v7.3.0", record.Latest.Raw)
	assert.Equal(t, "WorldEdit-7.2.15.jar", record.Download.FileName)
	require.Len(t, record.History, 1)
	assert.Equal(t, domain.ActionInstall, record.History[0].Action)
}

func TestInstallAll_SecondRunIsIdempotent(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "2.0", "id-B": "1.0"}}
	e := newEnv(t, map[string]string{"A": "1.5", "B": "1.0"}, []string{"A", "B"}, client)

	first, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, first.Failed)
	require.Len(t, first.Installed, 2)

	second, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Installed, "an unchanged manifest needs zero installs")
	assert.Empty(t, second.Removed)
	assert.Empty(t, second.Failed)
}

func TestInstallAll_SyncFollowsTargetVersion(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "9.9", "id-B": "9.9"}}
	// A is declared before B but syncs to it.
	e := newEnv(t, map[string]string{"A": "sync:B", "B": "1.0"}, []string{"A", "B"}, client)

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	require.Len(t, result.Installed, 2)
	assert.Equal(t, "B", result.Installed[0].Name, "the sync target is processed first")
	assert.Equal(t, "A", result.Installed[1].Name)
	assert.Equal(t, "1.0", result.Installed[1].NewVersion, "A resolves to B's version")
	assert.True(t, e.fileExists(t, "A-1.0.jar"))
}

func TestInstallAll_SyncCycleAbortsWithZeroMutation(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "1.0", "id-B": "1.0"}}
	e := newEnv(t, map[string]string{"A": "sync:B", "B": "sync:A"}, []string{"A", "B"}, client)

	_, err := e.service.InstallAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrCircularDependency)

	assert.Zero(t, e.client.downloads, "a sync cycle must abort before any transfer")
	exists, _ := afero.DirExists(e.fs, pluginsDir)
	assert.False(t, exists, "no file activity before validation passes")
}

func TestInstallAll_MissingSyncTargetAborts(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "1.0"}}
	e := newEnv(t, map[string]string{"A": "sync:Ghost"}, []string{"A"}, client)

	_, err := e.service.InstallAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, e.client.downloads)
}

func TestInstallAll_EmptySyncTargetAborts(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "1.0", "id-B": "1.0"}}
	e := newEnv(t, map[string]string{"A": "sync:", "B": "1.0"}, []string{"A", "B"}, client)

	_, err := e.service.InstallAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound, "a sync edge with no target fails validation, not just its own plugin")
	assert.Zero(t, e.client.downloads)
}

func TestInstallAll_FailureDoesNotAbortSiblings(t *testing.T) {
	client := &fakeClient{
		latest:    map[string]string{"id-Good": "1.0"},
		lookupErr: map[string]error{"id-Bad": errors.New("rate limited")},
	}
	e := newEnv(t, map[string]string{"Bad": "1.0", "Good": "1.0"}, []string{"Bad", "Good"}, client)

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err, "per-plugin failures do not fail the batch call")

	require.Len(t, result.Installed, 1)
	assert.Equal(t, "Good", result.Installed[0].Name)
	require.Contains(t, result.Failed, "Bad")
	assert.Contains(t, result.Failed["Bad"], "rate limited")
}

func TestInstallAll_SyncConsumerOfFailedTargetFails(t *testing.T) {
	client := &fakeClient{
		latest:    map[string]string{"id-A": "1.0"},
		known:     map[string]map[string]bool{"id-A": {"1.0": true}},
		lookupErr: map[string]error{"id-B": errors.New("catalog down")},
	}
	e := newEnv(t, map[string]string{"A": "sync:B", "B": "1.0"}, []string{"A", "B"}, client)

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	// B failed, so A fell back to its literal specifier text, which no
	// catalog can satisfy. The propagation is accepted, not special-cased.
	assert.Contains(t, result.Failed, "B")
	assert.Contains(t, result.Failed, "A")
	assert.Empty(t, result.Installed)
}

func TestInstallAll_UpdateReplacesAndRemovesOldFile(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "2.0"}}
	e := newEnv(t, map[string]string{"A": "1.0"}, []string{"A"}, client)

	_, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	require.True(t, e.fileExists(t, "A-1.0.jar"))

	// Bump the declared version and re-run.
	m, err := e.manifest.Load()
	require.NoError(t, err)
	require.NoError(t, m.Set("A", "2.0"))
	require.NoError(t, e.manifest.Save(m))

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Installed, 1)
	assert.Equal(t, "1.0", result.Installed[0].OldVersion)
	assert.Equal(t, "2.0", result.Installed[0].NewVersion)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "A-1.0.jar", result.Removed[0].FileName)

	assert.True(t, e.fileExists(t, "A-2.0.jar"))
	assert.False(t, e.fileExists(t, "A-1.0.jar"), "the old file is deleted once the new one is placed")

	record, err := e.store.Get("A")
	require.NoError(t, err)
	require.Len(t, record.History, 2)
	assert.Equal(t, domain.ActionUpdate, record.History[1].Action)
}

func TestInstallAll_FailedDownloadKeepsOldFile(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "2.0"}}
	e := newEnv(t, map[string]string{"A": "1.0"}, []string{"A"}, client)

	_, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	m, err := e.manifest.Load()
	require.NoError(t, err)
	require.NoError(t, m.Set("A", "2.0"))
	require.NoError(t, e.manifest.Save(m))
	client.downloadErr = map[string]error{"id-A": errors.New("connection reset")}

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	require.Contains(t, result.Failed, "A")
	assert.Contains(t, result.Failed["A"], "connection reset")
	assert.True(t, e.fileExists(t, "A-1.0.jar"), "a failed transfer never deletes the old file")
	assert.False(t, e.fileExists(t, "A-2.0.jar"))

	record, err := e.store.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "1.0", record.Current.Raw, "the record is only persisted after the file move")
	assert.Len(t, record.History, 1)
}

func TestInstallAll_UnmanagedIsNeverTouched(t *testing.T) {
	client := &fakeClient{latest: map[string]string{}}
	e := newEnv(t, map[string]string{"Legacy": "unmanaged"}, []string{"Legacy"}, client)

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Installed)
	assert.Empty(t, result.Failed)
	assert.Zero(t, e.client.downloads)
}

func TestInstallAll_LockedPluginIsSkipped(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "1.0"}}
	e := newEnv(t, map[string]string{"A": "1.0"}, []string{"A"}, client)

	_, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	require.NoError(t, e.store.Lock("A"))

	m, err := e.manifest.Load()
	require.NoError(t, err)
	require.NoError(t, m.Set("A", "2.0"))
	require.NoError(t, e.manifest.Save(m))

	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Installed, "a locked plugin is pinned")
	assert.Empty(t, result.Failed)
	assert.True(t, e.fileExists(t, "A-1.0.jar"))
}

func TestInstallAll_LatestRecheckWithoutChangeSkipsDownload(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "v1.0"}}
	e := newEnv(t, map[string]string{"A": "latest"}, []string{"A"}, client)

	first, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Installed, 1)
	downloadsAfterFirst := e.client.downloads

	second, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, second.Installed, "an unchanged latest replaces nothing")
	assert.Equal(t, downloadsAfterFirst, e.client.downloads)
}

func TestInstallAll_LatestPicksUpNewVersion(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-A": "v1.0"}}
	e := newEnv(t, map[string]string{"A": "latest"}, []string{"A"}, client)

	_, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	client.latest["id-A"] = "v1.1"
	result, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Installed, 1)
	assert.Equal(t, "v1.0", result.Installed[0].OldVersion)
	assert.Equal(t, "v1.1", result.Installed[0].NewVersion)
	assert.True(t, e.fileExists(t, "A-1.1.jar"))
	assert.False(t, e.fileExists(t, "A-1.0.jar"))
}

func TestInstallAll_NoSyncEdgesProcessesInManifestOrder(t *testing.T) {
	client := &fakeClient{latest: map[string]string{"id-Zeta": "1", "id-Alpha": "1", "id-Mid": "1"}}
	e := newEnv(t, map[string]string{"Zeta": "1", "Alpha": "1", "Mid": "1"}, []string{"Zeta", "Alpha", "Mid"}, client)

	var processed []string
	e.service.OnProgress = func(p Progress) {
		if p.Stage == StageInstalled {
			processed = append(processed, p.Name)
		}
	}

	_, err := e.service.InstallAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, processed)
}

package domain

// InstalledPlugin is one successful install/update outcome in a batch.
type InstalledPlugin struct {
	Name       string `json:"name"`
	OldVersion string `json:"old_version,omitempty"`
	NewVersion string `json:"new_version"`
}

// RemovedFile is an old artifact deleted after its replacement was written.
type RemovedFile struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	FileName string `json:"file_name"`
}

// InstallResult is the aggregate outcome of a bulk install/update batch.
// Partial success is a first-class result shape: failures are recorded per
// plugin and never abort sibling processing.
type InstallResult struct {
	Installed []InstalledPlugin `json:"installed"`
	Removed   []RemovedFile     `json:"removed"`
	Failed    map[string]string `json:"failed"`
}

// NewInstallResult returns an empty aggregate.
func NewInstallResult() *InstallResult {
	return &InstallResult{Failed: make(map[string]string)}
}

// AddInstalled records a successful install or update.
func (r *InstallResult) AddInstalled(name, oldVersion, newVersion string) {
	r.Installed = append(r.Installed, InstalledPlugin{Name: name, OldVersion: oldVersion, NewVersion: newVersion})
}

// AddRemoved records an old file deleted after a successful replacement.
func (r *InstallResult) AddRemoved(name, version, fileName string) {
	r.Removed = append(r.Removed, RemovedFile{Name: name, Version: version, FileName: fileName})
}

// Fail records a per-plugin failure with a human-readable reason.
func (r *InstallResult) Fail(name, reason string) {
	r.Failed[name] = reason
}

// HasFailures reports whether any plugin in the batch failed.
func (r *InstallResult) HasFailures() bool {
	return len(r.Failed) > 0
}

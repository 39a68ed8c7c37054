package domain

// CandidateSource is one place a plugin can be fetched from. The first
// candidate in a repository file is authoritative unless unavailable.
type CandidateSource struct {
	Type             string `json:"type" yaml:"type"`
	RepositoryID     string `json:"repository_id" yaml:"repository_id"`
	FileNamePattern  string `json:"file_name_pattern,omitempty" yaml:"file_name_pattern,omitempty"`
	FileNameTemplate string `json:"file_name_template,omitempty" yaml:"file_name_template,omitempty"`
}

// RepositoryFile is the per-plugin manifest served by a catalog source.
type RepositoryFile struct {
	Name         string            `json:"name" yaml:"name"`
	Sources      []CandidateSource `json:"sources" yaml:"sources"`
	Dependencies []string          `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Primary returns the authoritative candidate source.
func (f *RepositoryFile) Primary() (CandidateSource, bool) {
	if len(f.Sources) == 0 {
		return CandidateSource{}, false
	}
	return f.Sources[0], true
}

package core

// RepoConfig represents the structure of the .pr-replay.yml file, an optional
// per-repository override checked into the repository being replayed onto.
type RepoConfig struct {
	// Remote whose refs the PR commits are expected to be reachable from.
	// Used in hints when a commit object is missing locally.
	Remote string `yaml:"remote"`

	// AssumeYes answers every soft gate affirmatively, equivalent to
	// passing --yes on every invocation in this repository.
	AssumeYes bool `yaml:"assume_yes"`

	// StateDir overrides the directory recovery sessions are stored in.
	StateDir string `yaml:"state_dir"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		Remote: "origin",
	}
}

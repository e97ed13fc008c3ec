package config

// File is the structure of the again.yaml configuration file.
type File struct {
	Version string     `yaml:"version"`
	Store   string     `yaml:"store"`
	Ignore  *IgnoreDTO `yaml:"ignore"`
}

// IgnoreDTO configures which inputs participate in hashing.
type IgnoreDTO struct {
	Gitignore *bool `yaml:"gitignore"`
	Hidden    *bool `yaml:"hidden"`
}

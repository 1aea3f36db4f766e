package manifest

// Heddlefile represents the structure of the heddle.yaml package manifest.
// Addresses use pointers so an explicit null stays distinguishable from a
// missing key: `addr: ~` declares the address without assigning it.
type Heddlefile struct {
	Package         PackageDTO               `yaml:"package"`
	Addresses       map[string]*string       `yaml:"addresses,omitempty"`
	DevAddresses    map[string]string        `yaml:"devAddresses,omitempty"`
	Build           map[string]string        `yaml:"build,omitempty"`
	Dependencies    map[string]DependencyDTO `yaml:"dependencies,omitempty"`
	DevDependencies map[string]DependencyDTO `yaml:"devDependencies,omitempty"`
}

// PackageDTO represents the package section. Unrecognized keys land in
// Custom so downstream tools can carry their own properties.
type PackageDTO struct {
	Name    string            `yaml:"name"`
	Version string            `yaml:"version,omitempty"`
	Authors []string          `yaml:"authors,omitempty"`
	License string            `yaml:"license,omitempty"`
	Edition string            `yaml:"edition,omitempty"`
	Flavor  string            `yaml:"flavor,omitempty"`
	Custom  map[string]string `yaml:",inline"`
}

// DependencyDTO represents a single dependency declaration. Exactly one of
// local, git or resolver selects the source kind. External resolvers emit
// the same schema as JSON, hence the double tags.
type DependencyDTO struct {
	Local    string `yaml:"local,omitempty" json:"local,omitempty"`
	Git      string `yaml:"git,omitempty" json:"git,omitempty"`
	Rev      string `yaml:"rev,omitempty" json:"rev,omitempty"`
	Subdir   string `yaml:"subdir,omitempty" json:"subdir,omitempty"`
	Resolver string `yaml:"resolver,omitempty" json:"resolver,omitempty"`

	AddrSubst map[string]string `yaml:"addrSubst,omitempty" json:"addrSubst,omitempty"`
	Version   string            `yaml:"version,omitempty" json:"version,omitempty"`
	Digest    string            `yaml:"digest,omitempty" json:"digest,omitempty"`
	Override  bool              `yaml:"override,omitempty" json:"override,omitempty"`
}

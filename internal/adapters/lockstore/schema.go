package lockstore

import "go.heddle.dev/heddle/internal/adapters/manifest"

// lockDTO is the on-disk shape of the lock artifact. Slices are kept in
// sorted order so the same graph always serializes to the same bytes.
type lockDTO struct {
	Version        int          `yaml:"version"`
	ManifestDigest string       `yaml:"manifestDigest"`
	DepsDigest     string       `yaml:"depsDigest"`
	Root           string       `yaml:"root"`
	RootRecord     recordDTO    `yaml:"rootRecord"`
	TreeManifests  string       `yaml:"treeManifestsDigest,omitempty"`
	TreeStructure  string       `yaml:"treeStructureDigest,omitempty"`
	Packages       []packageDTO `yaml:"packages,omitempty"`
	Edges          []edgeDTO    `yaml:"edges,omitempty"`
	Always         []string     `yaml:"always,omitempty"`
	Options        optionsDTO   `yaml:"options"`
}

// packageDTO is one unified package table entry plus its resolution record.
// Exactly one of local or git names the concrete source; a package that
// reached the table through an external resolver additionally records the
// resolver that produced it. digestPin is the pin a declarer demanded, the
// record's own digest lives in the inlined recordDTO.
type packageDTO struct {
	Name      string `yaml:"name"`
	Local     string `yaml:"local,omitempty"`
	Git       string `yaml:"git,omitempty"`
	Rev       string `yaml:"rev,omitempty"`
	Subdir    string `yaml:"subdir,omitempty"`
	Version   string `yaml:"version,omitempty"`
	Resolver  string `yaml:"resolver,omitempty"`
	DigestPin string `yaml:"digestPin,omitempty"`

	recordDTO `yaml:",inline"`
}

// recordDTO carries everything needed to rebuild a resolution record without
// touching the network: the full manifest, its content digest, the inbound
// substitutions and the finalized address table. A nil address value means
// declared but never assigned. Package paths are machine-specific and stay
// out of the artifact.
type recordDTO struct {
	Manifest  manifest.Heddlefile    `yaml:"manifest"`
	Digest    string                 `yaml:"digest,omitempty"`
	Renaming  map[string]renamingDTO `yaml:"renaming,omitempty"`
	Addresses map[string]*string     `yaml:"addresses,omitempty"`
}

type renamingDTO struct {
	From  string `yaml:"from"`
	Value string `yaml:"value"`
}

type edgeDTO struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Dev  bool   `yaml:"dev,omitempty"`
}

// optionsDTO records the options the graph was resolved under. Knobs that do
// not shape the graph, like install directories, are not persisted.
type optionsDTO struct {
	Dev        bool              `yaml:"dev,omitempty"`
	Test       bool              `yaml:"test,omitempty"`
	Docs       bool              `yaml:"docs,omitempty"`
	ABIs       bool              `yaml:"abis,omitempty"`
	DepsAsRoot bool              `yaml:"depsAsRoot,omitempty"`
	Edition    string            `yaml:"edition,omitempty"`
	Flavor     string            `yaml:"flavor,omitempty"`
	Addresses  map[string]string `yaml:"addresses,omitempty"`
	Warnings   string            `yaml:"warnings,omitempty"`
}

package domain

import "maps"

// AddressValue is a named-address binding. The zero value means the address
// is declared but not yet assigned.
type AddressValue struct {
	Assigned bool
	Value    string
}

// Addr returns an assigned address binding.
func Addr(value string) AddressValue {
	return AddressValue{Assigned: true, Value: value}
}

// UnassignedAddr returns a declared-but-unassigned binding.
func UnassignedAddr() AddressValue {
	return AddressValue{}
}

// PackageMeta is the package section of a manifest.
type PackageMeta struct {
	Name    InternedString
	Version string
	Authors []string
	License string

	// Edition and Flavor select language dialect and toolchain variant.
	// Empty means "inherit the build default".
	Edition string
	Flavor  string

	// Custom holds unrecognized key/value pairs so downstream tools can read
	// their own sections without schema changes here.
	Custom map[string]string
}

// SourceManifest is the parsed form of a package's manifest file.
type SourceManifest struct {
	Package PackageMeta

	// Addresses declares the package's named addresses. A binding may be
	// unassigned, in which case some upstream declarer has to substitute a
	// value before the build completes.
	Addresses map[string]AddressValue

	// DevAddresses may assign or reassign addresses for dev builds of the
	// root package only.
	DevAddresses map[string]string

	// BuildOverrides carries per-package build knobs (edition, flavor).
	BuildOverrides map[string]string

	Dependencies    map[InternedString]Dependency
	DevDependencies map[InternedString]Dependency
}

// DeclaredDeps returns the live dependency declarations of the manifest. Dev
// declarations are included only when dev holds; each carries its DevOnly
// flag so graph edges keep the distinction.
func (m *SourceManifest) DeclaredDeps(dev bool) []Dependency {
	deps := make([]Dependency, 0, len(m.Dependencies)+len(m.DevDependencies))
	for _, d := range m.Dependencies {
		deps = append(deps, d)
	}
	if dev {
		for _, d := range m.DevDependencies {
			d.DevOnly = true
			deps = append(deps, d)
		}
	}
	return deps
}

// Clone returns a deep copy of the manifest.
func (m *SourceManifest) Clone() *SourceManifest {
	c := *m
	c.Package.Authors = append([]string(nil), m.Package.Authors...)
	c.Package.Custom = maps.Clone(m.Package.Custom)
	c.Addresses = maps.Clone(m.Addresses)
	c.DevAddresses = maps.Clone(m.DevAddresses)
	c.BuildOverrides = maps.Clone(m.BuildOverrides)
	c.Dependencies = make(map[InternedString]Dependency, len(m.Dependencies))
	for n, d := range m.Dependencies {
		c.Dependencies[n] = d.Clone()
	}
	c.DevDependencies = make(map[InternedString]Dependency, len(m.DevDependencies))
	for n, d := range m.DevDependencies {
		c.DevDependencies[n] = d.Clone()
	}
	return &c
}

package domain

import "maps"

// Dependency represents a single dependency declaration in a package
// manifest. This is the input representation before resolution.
type Dependency struct {
	// Name is the package name the declaration binds.
	Name InternedString

	// Source says where the dependency's code comes from.
	Source PackageSource

	// AddrSubst maps named addresses declared by the dependency to values
	// supplied by the declaring package. A value is either a hex literal or
	// the name of an address in the declarer's own table.
	AddrSubst map[string]string

	// Version is the exact version the declarer expects, empty when
	// unconstrained.
	Version string

	// DigestPin, when set, must match the digest of the fetched content.
	DigestPin Digest

	// Override marks this declaration as authoritative in diamond conflicts.
	Override bool

	// DevOnly marks declarations taken from the dev-dependencies section.
	DevOnly bool
}

// EquivalentTo reports whether two declarations of the same name resolve to
// the same package: identical source, version expectation and digest pin.
// Address substitutions are deliberately excluded, they merge separately.
func (d Dependency) EquivalentTo(o Dependency) bool {
	return d.Source == o.Source &&
		d.Version == o.Version &&
		d.DigestPin == o.DigestPin
}

// Clone returns a deep copy so callers can mutate substitution tables freely.
func (d Dependency) Clone() Dependency {
	c := d
	c.AddrSubst = maps.Clone(d.AddrSubst)
	return c
}

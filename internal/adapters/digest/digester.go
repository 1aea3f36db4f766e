// Package digest computes the content digests resolution caching relies on.
package digest

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
)

var _ ports.Digester = (*Digester)(nil)

// Digester implements ports.Digester with xxhash64. Every scalar write is
// followed by a zero byte and every section by another, so adjacent fields
// can never collide by concatenation. Maps are hashed in sorted key order.
type Digester struct{}

// NewDigester creates a new Digester.
func NewDigester() *Digester {
	return &Digester{}
}

// ManifestDigest fingerprints one parsed manifest.
func (d *Digester) ManifestDigest(m *domain.SourceManifest) domain.Digest {
	hasher := xxhash.New()

	hashMeta(hasher, m.Package)
	hashAddresses(hasher, m.Addresses)
	hashStringMap(hasher, m.DevAddresses)
	hashStringMap(hasher, m.BuildOverrides)
	hashDependencyMap(hasher, m.Dependencies)
	hashDependencyMap(hasher, m.DevDependencies)

	return finish(hasher)
}

// DependencyDigest fingerprints a set of dependency declarations.
func (d *Digester) DependencyDigest(deps []domain.Dependency) domain.Digest {
	sorted := make([]domain.Dependency, len(deps))
	copy(sorted, deps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name.String() < sorted[j].Name.String()
	})

	hasher := xxhash.New()
	for _, dep := range sorted {
		hashDependency(hasher, dep)
	}
	return finish(hasher)
}

// TreeDigests fingerprints a whole resolved graph. The manifests digest
// covers every manifest in the tree; the structure digest covers the package
// table and the edge set. Package paths never participate, a tree fetched to
// a different cache location digests identically.
func (d *Digester) TreeDigests(rg *domain.ResolvedGraph) (domain.Digest, domain.Digest) {
	names := make([]string, 0, len(rg.ResolvedPackages))
	for name := range rg.ResolvedPackages {
		names = append(names, name.String())
	}
	sort.Strings(names)

	manifests := xxhash.New()
	for _, name := range names {
		rp := rg.ResolvedPackages[domain.NewInternedString(name)]
		writeString(manifests, name)
		writeString(manifests, string(d.ManifestDigest(rp.Manifest)))
	}

	structure := xxhash.New()
	writeString(structure, rg.Root.String())
	for _, name := range names {
		if entry, ok := rg.Packages[domain.NewInternedString(name)]; ok {
			writeString(structure, name)
			hashSource(structure, entry.Source)
			writeString(structure, entry.Version)
			writeString(structure, entry.Resolver.String())
			writeString(structure, string(entry.DigestPin))
		}
	}
	sectionBreak(structure)
	if rg.Graph != nil {
		for _, e := range rg.Graph.Edges() {
			writeString(structure, e.From.String())
			writeString(structure, e.To.String())
			writeBool(structure, e.Dev)
		}
	}

	return finish(manifests), finish(structure)
}

func hashMeta(hasher *xxhash.Digest, meta domain.PackageMeta) {
	writeString(hasher, meta.Name.String())
	writeString(hasher, meta.Version)
	for _, author := range meta.Authors {
		writeString(hasher, author)
	}
	sectionBreak(hasher)
	writeString(hasher, meta.License)
	writeString(hasher, meta.Edition)
	writeString(hasher, meta.Flavor)
	hashStringMap(hasher, meta.Custom)
}

func hashAddresses(hasher *xxhash.Digest, addrs map[string]domain.AddressValue) {
	keys := make([]string, 0, len(addrs))
	for k := range addrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := addrs[k]
		writeString(hasher, k)
		writeBool(hasher, v.Assigned)
		writeString(hasher, v.Value)
	}
	sectionBreak(hasher)
}

func hashStringMap(hasher *xxhash.Digest, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		writeString(hasher, k)
		writeString(hasher, m[k])
	}
	sectionBreak(hasher)
}

func hashDependencyMap(hasher *xxhash.Digest, deps map[domain.InternedString]domain.Dependency) {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	for _, k := range keys {
		hashDependency(hasher, deps[domain.NewInternedString(k)])
	}
	sectionBreak(hasher)
}

func hashDependency(hasher *xxhash.Digest, dep domain.Dependency) {
	writeString(hasher, dep.Name.String())
	hashSource(hasher, dep.Source)
	writeString(hasher, dep.Version)
	writeString(hasher, string(dep.DigestPin))
	writeBool(hasher, dep.Override)
	writeBool(hasher, dep.DevOnly)
	hashStringMap(hasher, dep.AddrSubst)
}

func hashSource(hasher *xxhash.Digest, s domain.PackageSource) {
	writeString(hasher, string(s.Kind))
	writeString(hasher, s.Path)
	writeString(hasher, s.Repo)
	writeString(hasher, s.Revision)
	writeString(hasher, s.Subpath)
	writeString(hasher, s.Resolver)
}

func writeString(hasher *xxhash.Digest, s string) {
	_, _ = hasher.WriteString(s)
	_, _ = hasher.Write([]byte{0})
}

func writeBool(hasher *xxhash.Digest, b bool) {
	v := byte(0)
	if b {
		v = 1
	}
	_, _ = hasher.Write([]byte{v, 0})
}

func sectionBreak(hasher *xxhash.Digest) {
	_, _ = hasher.Write([]byte{0})
}

func finish(hasher *xxhash.Digest) domain.Digest {
	return domain.Digest(fmt.Sprintf("%016x", hasher.Sum64()))
}

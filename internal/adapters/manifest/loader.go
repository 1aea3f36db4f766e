// Package manifest provides the heddle.yaml loader for heddle.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Filename is the manifest file every package roots at.
const Filename = "heddle.yaml"

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// Loader implements ports.ManifestLoader using heddle.yaml files on disk.
type Loader struct {
	log ports.Logger
}

// NewLoader creates a new Loader instance.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{log: log}
}

// Exists reports whether dir contains a manifest.
func (l *Loader) Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, Filename))
	return err == nil && !info.IsDir()
}

// Load reads and validates the manifest of the package rooted at dir.
func (l *Loader) Load(dir string) (*domain.SourceManifest, error) {
	path := filepath.Join(dir, Filename)
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.log.Debug(fmt.Sprintf("loaded manifest of %s from %s", m.Package.Name.String(), path))
	return m, nil
}

// Load reads a manifest file from the given path and returns the domain form.
func Load(path string) (*domain.SourceManifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		perr := zerr.With(domain.ErrManifestParse, "path", path)
		return nil, zerr.With(perr, "cause", err.Error())
	}
	return Parse(data, path)
}

// Parse decodes manifest bytes. The path only feeds error metadata.
func Parse(data []byte, path string) (*domain.SourceManifest, error) {
	var hf Heddlefile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		perr := zerr.With(domain.ErrManifestParse, "path", path)
		return nil, zerr.With(perr, "cause", err.Error())
	}
	return toDomain(&hf, path)
}

func toDomain(hf *Heddlefile, path string) (*domain.SourceManifest, error) {
	fail := func(msg string, kv ...string) error {
		err := zerr.With(domain.ErrManifestParse, "path", path)
		err = zerr.With(err, "cause", msg)
		for i := 0; i+1 < len(kv); i += 2 {
			err = zerr.With(err, kv[i], kv[i+1])
		}
		return err
	}

	if hf.Package.Name == "" {
		return nil, fail("package.name is required")
	}
	if !namePattern.MatchString(hf.Package.Name) {
		return nil, fail("package.name is not a valid identifier", "name", hf.Package.Name)
	}
	if hf.Package.Version != "" {
		if _, err := semver.NewVersion(hf.Package.Version); err != nil {
			return nil, fail("package.version is not a valid version", "version", hf.Package.Version)
		}
	}

	m := &domain.SourceManifest{
		Package: domain.PackageMeta{
			Name:    domain.NewInternedString(hf.Package.Name),
			Version: hf.Package.Version,
			Authors: hf.Package.Authors,
			License: hf.Package.License,
			Edition: hf.Package.Edition,
			Flavor:  hf.Package.Flavor,
			Custom:  hf.Package.Custom,
		},
		Addresses:      make(map[string]domain.AddressValue, len(hf.Addresses)),
		DevAddresses:   make(map[string]string, len(hf.DevAddresses)),
		BuildOverrides: hf.Build,
	}

	for addr, value := range hf.Addresses {
		if !namePattern.MatchString(addr) {
			return nil, fail("address name is not a valid identifier", "address", addr)
		}
		if value == nil {
			m.Addresses[addr] = domain.UnassignedAddr()
			continue
		}
		if !addressPattern.MatchString(*value) {
			return nil, fail("address value is not a hex literal", "address", addr, "value", *value)
		}
		m.Addresses[addr] = domain.Addr(*value)
	}

	for addr, value := range hf.DevAddresses {
		if !addressPattern.MatchString(value) {
			return nil, fail("dev address value is not a hex literal", "address", addr, "value", value)
		}
		// Dev addresses may only touch declared names.
		if _, declared := m.Addresses[addr]; !declared {
			return nil, fail("dev address is not declared under addresses", "address", addr)
		}
		m.DevAddresses[addr] = value
	}

	var err error
	m.Dependencies, err = toDependencies(hf.Dependencies, path, false)
	if err != nil {
		return nil, err
	}
	m.DevDependencies, err = toDependencies(hf.DevDependencies, path, true)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func toDependencies(dtos map[string]DependencyDTO, path string, dev bool) (map[domain.InternedString]domain.Dependency, error) {
	deps := make(map[domain.InternedString]domain.Dependency, len(dtos))
	for name, dto := range dtos {
		dep, err := DependencyFromDTO(name, dto, path, dev)
		if err != nil {
			return nil, err
		}
		deps[dep.Name] = dep
	}
	return deps, nil
}

// DependencyFromDTO maps one dependency declaration to its domain form.
// External resolvers speak the same declaration schema, so the bridge
// adapter reuses this mapping. origin only feeds error metadata.
func DependencyFromDTO(name string, dto DependencyDTO, origin string, dev bool) (domain.Dependency, error) {
	fail := func(msg string) (domain.Dependency, error) {
		err := zerr.With(domain.ErrManifestParse, "path", origin)
		err = zerr.With(err, "dependency", name)
		err = zerr.With(err, "cause", msg)
		return domain.Dependency{}, err
	}

	if !namePattern.MatchString(name) {
		return fail("dependency name is not a valid identifier")
	}

	sources := 0
	for _, set := range []bool{dto.Local != "", dto.Git != "", dto.Resolver != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return fail("dependency must declare exactly one of local, git or resolver")
	}

	var source domain.PackageSource
	switch {
	case dto.Local != "":
		source = domain.LocalSource(dto.Local)
	case dto.Git != "":
		if dto.Rev == "" {
			return fail("git dependency requires rev")
		}
		source = domain.GitSource(dto.Git, dto.Rev, dto.Subdir)
	case dto.Resolver != "":
		source = domain.ExternalSource(dto.Resolver)
	}
	if err := source.Validate(); err != nil {
		return fail(err.Error())
	}

	if dto.Version != "" {
		if _, err := semver.NewVersion(dto.Version); err != nil {
			return fail("dependency version is not a valid version")
		}
	}

	return domain.Dependency{
		Name:      domain.NewInternedString(name),
		Source:    source,
		AddrSubst: dto.AddrSubst,
		Version:   dto.Version,
		DigestPin: domain.Digest(dto.Digest),
		Override:  dto.Override,
		DevOnly:   dev,
	}, nil
}

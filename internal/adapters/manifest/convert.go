package manifest

import (
	"maps"

	"go.heddle.dev/heddle/internal/core/domain"
)

// ManifestFromDTO maps a decoded Heddlefile to its domain form with the same
// validation Load applies. origin only feeds error metadata.
func ManifestFromDTO(hf Heddlefile, origin string) (*domain.SourceManifest, error) {
	return toDomain(&hf, origin)
}

// ManifestToDTO maps a domain manifest back onto its file schema. The mapping
// inverts ManifestFromDTO, so a round trip reproduces the manifest.
func ManifestToDTO(m *domain.SourceManifest) Heddlefile {
	hf := Heddlefile{
		Package: PackageDTO{
			Name:    m.Package.Name.String(),
			Version: m.Package.Version,
			Authors: m.Package.Authors,
			License: m.Package.License,
			Edition: m.Package.Edition,
			Flavor:  m.Package.Flavor,
			Custom:  m.Package.Custom,
		},
		Build: m.BuildOverrides,
	}
	if len(m.Addresses) > 0 {
		hf.Addresses = make(map[string]*string, len(m.Addresses))
		for name, value := range m.Addresses {
			if value.Assigned {
				v := value.Value
				hf.Addresses[name] = &v
			} else {
				hf.Addresses[name] = nil
			}
		}
	}
	if len(m.DevAddresses) > 0 {
		hf.DevAddresses = maps.Clone(m.DevAddresses)
	}
	hf.Dependencies = dependenciesToDTO(m.Dependencies)
	hf.DevDependencies = dependenciesToDTO(m.DevDependencies)
	return hf
}

func dependenciesToDTO(deps map[domain.InternedString]domain.Dependency) map[string]DependencyDTO {
	if len(deps) == 0 {
		return nil
	}
	dtos := make(map[string]DependencyDTO, len(deps))
	for name, dep := range deps {
		dtos[name.String()] = DependencyToDTO(dep)
	}
	return dtos
}

// DependencyToDTO maps one dependency declaration back onto its file schema.
// The dev distinction lives in the section, not the entry, so it is dropped.
func DependencyToDTO(d domain.Dependency) DependencyDTO {
	dto := DependencyDTO{
		AddrSubst: d.AddrSubst,
		Version:   d.Version,
		Digest:    d.DigestPin.String(),
		Override:  d.Override,
	}
	switch d.Source.Kind {
	case domain.SourceLocal:
		dto.Local = d.Source.Path
	case domain.SourceGit:
		dto.Git = d.Source.Repo
		dto.Rev = d.Source.Revision
		dto.Subdir = d.Source.Subpath
	case domain.SourceExternal:
		dto.Resolver = d.Source.Resolver
	}
	return dto
}

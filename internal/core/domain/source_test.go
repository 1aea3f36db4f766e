package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.heddle.dev/heddle/internal/core/domain"
)

func TestPackageSource_Validate(t *testing.T) {
	tests := []struct {
		name    string
		source  domain.PackageSource
		wantErr bool
	}{
		{"local ok", domain.LocalSource("../dep"), false},
		{"local missing path", domain.PackageSource{Kind: domain.SourceLocal}, true},
		{"local with repo", domain.PackageSource{Kind: domain.SourceLocal, Path: "x", Repo: "r"}, true},
		{"git ok", domain.GitSource("https://example.com/r.git", "v1.0.0", ""), false},
		{"git with subpath", domain.GitSource("https://example.com/r.git", "abc123", "pkgs/std"), false},
		{"git missing repo", domain.PackageSource{Kind: domain.SourceGit, Revision: "v1"}, true},
		{"git missing revision", domain.PackageSource{Kind: domain.SourceGit, Repo: "r"}, true},
		{"git with resolver", domain.PackageSource{Kind: domain.SourceGit, Repo: "r", Revision: "v1", Resolver: "x"}, true},
		{"external ok", domain.ExternalSource("custom-resolver"), false},
		{"external missing resolver", domain.PackageSource{Kind: domain.SourceExternal}, true},
		{"unknown kind", domain.PackageSource{Kind: "ftp"}, true},
		{"zero value", domain.PackageSource{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPackageSource_String(t *testing.T) {
	tests := []struct {
		source   domain.PackageSource
		expected string
	}{
		{domain.LocalSource("../dep"), "local ../dep"},
		{domain.GitSource("https://example.com/r.git", "v1.0.0", ""), "git https://example.com/r.git@v1.0.0"},
		{domain.GitSource("https://example.com/r.git", "abc", "sub/dir"), "git https://example.com/r.git@abc/sub/dir"},
		{domain.ExternalSource("conan"), "external conan"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.source.String())
		})
	}
}

func TestDependency_EquivalentTo(t *testing.T) {
	base := domain.Dependency{
		Name:    domain.NewInternedString("Dep"),
		Source:  domain.GitSource("https://example.com/r.git", "v1.0.0", ""),
		Version: "1.0.0",
	}

	t.Run("identical declarations are equivalent", func(t *testing.T) {
		other := base
		other.Override = true // flags do not participate
		other.DevOnly = true
		other.AddrSubst = map[string]string{"a": "0x1"} // substitutions merge separately
		assert.True(t, base.EquivalentTo(other))
	})

	t.Run("different revision is not equivalent", func(t *testing.T) {
		other := base
		other.Source = domain.GitSource("https://example.com/r.git", "v2.0.0", "")
		assert.False(t, base.EquivalentTo(other))
	})

	t.Run("different version expectation is not equivalent", func(t *testing.T) {
		other := base
		other.Version = "1.0.1"
		assert.False(t, base.EquivalentTo(other))
	})

	t.Run("different digest pin is not equivalent", func(t *testing.T) {
		other := base
		other.DigestPin = "ab54d286f79e3a2b"
		assert.False(t, base.EquivalentTo(other))
	})

	t.Run("different source kind is not equivalent", func(t *testing.T) {
		other := base
		other.Source = domain.LocalSource("../r")
		assert.False(t, base.EquivalentTo(other))
	})
}

func TestDependency_Clone(t *testing.T) {
	d := domain.Dependency{
		Name:      domain.NewInternedString("Dep"),
		Source:    domain.LocalSource("../dep"),
		AddrSubst: map[string]string{"std": "0x1"},
	}
	c := d.Clone()
	c.AddrSubst["std"] = "0x2"
	assert.Equal(t, "0x1", d.AddrSubst["std"], "clone must not share the substitution table")
}

package extres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.heddle.dev/heddle/internal/adapters/extres"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
)

type noopLogger struct{}

func (noopLogger) Debug(string) {}
func (noopLogger) Info(string)  {}
func (noopLogger) Warn(string)  {}
func (noopLogger) Error(error)  {}

// writeResolver drops an executable shell script acting as a resolver binary.
func writeResolver(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolver")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700))
	return path
}

func request(dep string) ports.ResolverRequest {
	return ports.ResolverRequest{
		Dependency:       domain.NewInternedString(dep),
		DeclaringPackage: domain.NewInternedString("Example"),
		DeclaringPath:    "/work/example",
		AddrSubst:        map[string]string{"std": "0x1"},
	}
}

func TestResolve_Success(t *testing.T) {
	bin := writeResolver(t, `cat > /dev/null
cat <<'EOF'
{
  "root": "Tooling",
  "packages": [
    {"name": "Tooling", "git": "https://example.com/tooling.git", "rev": "v2.1.0", "version": "2.1.0"},
    {"name": "Fmt", "local": "/opt/fmt", "addrSubst": {"fmt": "0x7"}}
  ]
}
EOF`)

	b := extres.NewBridge(noopLogger{})
	out, err := b.Resolve(context.Background(), bin, request("Tooling"))
	require.NoError(t, err)

	assert.Equal(t, "Tooling", out.Root.String())
	require.Len(t, out.Declarations, 2)

	byName := map[string]domain.Dependency{}
	for _, d := range out.Declarations {
		byName[d.Name.String()] = d
	}
	tooling := byName["Tooling"]
	assert.Equal(t, domain.SourceGit, tooling.Source.Kind)
	assert.Equal(t, "v2.1.0", tooling.Source.Revision)
	assert.Equal(t, "2.1.0", tooling.Version)

	fmtDep := byName["Fmt"]
	assert.Equal(t, domain.SourceLocal, fmtDep.Source.Kind)
	assert.Equal(t, "0x7", fmtDep.AddrSubst["fmt"])
}

func TestResolve_RequestOnStdin(t *testing.T) {
	// The script copies stdin to a file, so the test can check what the
	// bridge actually sent.
	captured := filepath.Join(t.TempDir(), "request.json")
	bin := writeResolver(t, `cat > `+captured+`
echo '{"root": "Dep", "packages": [{"name": "Dep", "local": "/opt/dep"}]}'`)

	b := extres.NewBridge(noopLogger{})
	_, err := b.Resolve(context.Background(), bin, request("Dep"))
	require.NoError(t, err)

	raw, err := os.ReadFile(captured)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dependency":"Dep"`)
	assert.Contains(t, string(raw), `"declaringPackage":"Example"`)
	assert.Contains(t, string(raw), `"declaringPath":"/work/example"`)
	assert.Contains(t, string(raw), `"std":"0x1"`)
}

func TestResolve_NonZeroExit(t *testing.T) {
	bin := writeResolver(t, `cat > /dev/null
echo "upstream registry unreachable" >&2
exit 3`)

	b := extres.NewBridge(noopLogger{})
	_, err := b.Resolve(context.Background(), bin, request("Tooling"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrResolverFailure))

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	meta := zErr.Metadata()
	assert.Equal(t, "upstream registry unreachable", meta["stderr"])
	assert.Equal(t, 3, meta["exit_code"])
	assert.Equal(t, "Tooling", meta["dependency"])
}

func TestResolve_MissingBinary(t *testing.T) {
	b := extres.NewBridge(noopLogger{})
	_, err := b.Resolve(context.Background(), filepath.Join(t.TempDir(), "absent"), request("Tooling"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrResolverFailure))
}

func TestResolve_BadFragments(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		cause string
	}{
		{
			"malformed json",
			`cat > /dev/null; echo 'not json at all'`,
			"undecodable fragment",
		},
		{
			"empty packages",
			`cat > /dev/null; echo '{"root": "X", "packages": []}'`,
			"no packages",
		},
		{
			"missing root",
			`cat > /dev/null; echo '{"packages": [{"name": "X", "local": "/x"}]}'`,
			"names no root",
		},
		{
			"root not among packages",
			`cat > /dev/null; echo '{"root": "Ghost", "packages": [{"name": "X", "local": "/x"}]}'`,
			"not among its packages",
		},
		{
			"delegating fragment",
			`cat > /dev/null; echo '{"root": "X", "packages": [{"name": "X", "resolver": "other"}]}'`,
			"may not delegate",
		},
		{
			"incomplete git entry",
			`cat > /dev/null; echo '{"root": "X", "packages": [{"name": "X", "git": "https://example.com/x.git"}]}'`,
			"requires rev",
		},
	}

	b := extres.NewBridge(noopLogger{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := writeResolver(t, tt.body)
			_, err := b.Resolve(context.Background(), bin, request("Tooling"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrResolverFailure), "expected ErrResolverFailure, got %v", err)

			zErr, ok := err.(*zerr.Error)
			require.True(t, ok)
			cause, _ := zErr.Metadata()["cause"].(string)
			assert.Contains(t, cause, tt.cause)
		})
	}
}

func TestResolve_ContextCancelled(t *testing.T) {
	bin := writeResolver(t, `cat > /dev/null; sleep 30; echo '{}'`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := extres.NewBridge(noopLogger{})
	_, err := b.Resolve(ctx, bin, request("Tooling"))
	require.Error(t, err)
}

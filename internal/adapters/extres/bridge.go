// Package extres bridges dependency resolution to out-of-process resolver
// binaries.
//
// A resolver is any executable reachable through PATH (or named by path). It
// receives one JSON request on stdin and answers with one JSON fragment on
// stdout; anything it writes to stderr is carried back verbatim inside the
// failure when it exits non-zero.
package extres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.heddle.dev/heddle/internal/adapters/manifest"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ExternalResolver = (*Bridge)(nil)

// Bridge implements ports.ExternalResolver by spawning resolver binaries.
type Bridge struct {
	log ports.Logger
}

// NewBridge creates a new Bridge.
func NewBridge(log ports.Logger) *Bridge {
	return &Bridge{log: log}
}

// requestDTO is the JSON document a resolver reads from stdin.
type requestDTO struct {
	Dependency       string            `json:"dependency"`
	DeclaringPackage string            `json:"declaringPackage"`
	DeclaringPath    string            `json:"declaringPath"`
	AddrSubst        map[string]string `json:"addrSubst,omitempty"`
	DevMode          bool              `json:"devMode"`
}

// responseDTO is the JSON fragment a resolver writes to stdout.
type responseDTO struct {
	Root     string       `json:"root"`
	Packages []packageDTO `json:"packages"`
}

// packageDTO is one pre-resolved declaration inside a fragment. It reuses
// the manifest dependency schema plus the bound name.
type packageDTO struct {
	Name string `json:"name"`
	manifest.DependencyDTO
}

// Resolve invokes the named resolver and decodes its fragment.
func (b *Bridge) Resolve(ctx context.Context, resolver string, req ports.ResolverRequest) (*ports.ResolverOutput, error) {
	input, err := json.Marshal(requestDTO{
		Dependency:       req.Dependency.String(),
		DeclaringPackage: req.DeclaringPackage.String(),
		DeclaringPath:    req.DeclaringPath,
		AddrSubst:        req.AddrSubst,
		DevMode:          req.DevMode,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode resolver request")
	}

	b.log.Debug(fmt.Sprintf("invoking resolver %s for %s", resolver, req.Dependency.String()))

	//nolint:gosec // the resolver binary is named by the manifest on purpose
	cmd := exec.CommandContext(ctx, resolver, "resolve")
	cmd.Stdin = bytes.NewReader(input)

	output, err := cmd.Output()
	if err != nil {
		// Capture stderr for the user when the resolver exited non-zero.
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))

			resErr := resolverErr(resolver, req)
			resErr = zerr.With(resErr, "exit_code", exitErr.ExitCode())
			return nil, zerr.With(resErr, "stderr", stderr)
		}

		resErr := resolverErr(resolver, req)
		return nil, zerr.With(resErr, "cause", err.Error())
	}

	var resp responseDTO
	if err := json.Unmarshal(output, &resp); err != nil {
		resErr := resolverErr(resolver, req)
		return nil, zerr.With(resErr, "cause", "undecodable fragment: "+err.Error())
	}

	return b.toOutput(resolver, req, &resp)
}

func (b *Bridge) toOutput(resolver string, req ports.ResolverRequest, resp *responseDTO) (*ports.ResolverOutput, error) {
	if len(resp.Packages) == 0 {
		return nil, zerr.With(resolverErr(resolver, req), "cause", "fragment contains no packages")
	}
	if resp.Root == "" {
		return nil, zerr.With(resolverErr(resolver, req), "cause", "fragment names no root")
	}

	out := &ports.ResolverOutput{
		Root:         domain.NewInternedString(resp.Root),
		Declarations: make([]domain.Dependency, 0, len(resp.Packages)),
	}

	rootSeen := false
	origin := "resolver:" + resolver
	for _, p := range resp.Packages {
		dep, err := manifest.DependencyFromDTO(p.Name, p.DependencyDTO, origin, false)
		if err != nil {
			resErr := zerr.With(resolverErr(resolver, req), "package", p.Name)
			return nil, zerr.With(resErr, "cause", causeOf(err))
		}
		// Fragments have to be concrete, further delegation would let one
		// resolver hide another.
		if dep.Source.Kind == domain.SourceExternal {
			resErr := zerr.With(resolverErr(resolver, req), "package", p.Name)
			return nil, zerr.With(resErr, "cause", "fragment may not delegate to another resolver")
		}
		if dep.Name == out.Root {
			rootSeen = true
		}
		out.Declarations = append(out.Declarations, dep)
	}

	if !rootSeen {
		resErr := zerr.With(resolverErr(resolver, req), "root", resp.Root)
		return nil, zerr.With(resErr, "cause", "fragment root is not among its packages")
	}
	return out, nil
}

func resolverErr(resolver string, req ports.ResolverRequest) error {
	err := zerr.With(domain.ErrResolverFailure, "resolver", resolver)
	return zerr.With(err, "dependency", req.Dependency.String())
}

// causeOf prefers the cause metadata of a nested error over its message, so
// fragment validation failures keep their original wording.
func causeOf(err error) string {
	var zr *zerr.Error
	if errors.As(err, &zr) {
		if c, ok := zr.Metadata()["cause"].(string); ok && c != "" {
			return c
		}
	}
	return err.Error()
}

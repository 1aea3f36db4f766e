package ports

import (
	"context"

	"go.heddle.dev/heddle/internal/core/domain"
)

// ResolverRequest is what an external resolver gets to work with: the
// delegated declaration plus enough context about the declarer to resolve it.
type ResolverRequest struct {
	// Dependency is the name the declaring manifest bound.
	Dependency domain.InternedString

	// DeclaringPackage and DeclaringPath identify the manifest that
	// delegated the declaration.
	DeclaringPackage domain.InternedString
	DeclaringPath    string

	// AddrSubst carries the substitutions the declarer attached to the
	// delegated declaration.
	AddrSubst map[string]string

	// DevMode tells the resolver which build mode is being resolved.
	DevMode bool
}

// ResolverOutput is the fragment an external resolver hands back. Every
// returned declaration carries a concrete source; the engine splices them
// into the graph and expands them like ordinary declarations.
type ResolverOutput struct {
	// Root names the declaration that stands in for the delegated
	// dependency. It must appear in Declarations.
	Root domain.InternedString

	// Declarations are pre-resolved dependency declarations. Entries beyond
	// Root act as pins that must unify with the rest of the graph.
	Declarations []domain.Dependency
}

// ExternalResolver delegates dependency resolution to an out-of-process
// resolver binary.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ExternalResolver interface {
	// Resolve invokes the named resolver with the request and decodes its
	// fragment. A non-zero exit or undecodable output surfaces as
	// domain.ErrResolverFailure with the resolver's stderr attached.
	Resolve(ctx context.Context, resolver string, req ResolverRequest) (*ResolverOutput, error)
}

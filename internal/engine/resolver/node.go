package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.heddle.dev/heddle/internal/adapters/digest"             //nolint:depguard // Wired in engine wiring
	"go.heddle.dev/heddle/internal/adapters/extres"             //nolint:depguard // Wired in engine wiring
	"go.heddle.dev/heddle/internal/adapters/fetcher"            //nolint:depguard // Wired in engine wiring
	"go.heddle.dev/heddle/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.heddle.dev/heddle/internal/adapters/manifest"           //nolint:depguard // Wired in engine wiring
	"go.heddle.dev/heddle/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.heddle.dev/heddle/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifest.NodeID,
			fetcher.NodeID,
			extres.NodeID,
			digest.NodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			loader, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}

			fetch, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}

			bridge, err := graft.Dep[ports.ExternalResolver](ctx)
			if err != nil {
				return nil, err
			}

			digests, err := graft.Dep[ports.Digester](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, fetch, bridge, digests, tracer, log), nil
		},
	})
}

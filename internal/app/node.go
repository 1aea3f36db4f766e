package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.heddle.dev/heddle/internal/adapters/digest"             //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/adapters/fetcher"            //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/adapters/lockstore"          //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/adapters/manifest"           //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/core/ports"
	"go.heddle.dev/heddle/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifest.NodeID,
			lockstore.NodeID,
			digest.NodeID,
			fetcher.NodeID,
			resolver.NodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			manifests, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}
			locks, err := graft.Dep[ports.LockStore](ctx)
			if err != nil {
				return nil, err
			}
			digests, err := graft.Dep[ports.Digester](ctx)
			if err != nil {
				return nil, err
			}
			fetch, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			res, err := graft.Dep[*resolver.Resolver](ctx)
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
			return New(manifests, locks, digests, fetch, res, tracer, log), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(app, log, tracer), nil
		},
	})
}

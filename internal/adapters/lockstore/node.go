package lockstore

import (
	"context"

	"github.com/grindlemire/graft"
	"go.heddle.dev/heddle/internal/adapters/logger"
	"go.heddle.dev/heddle/internal/core/ports"
)

const NodeID graft.ID = "adapter.lock_store"

func init() {
	graft.Register(graft.Node[ports.LockStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.LockStore, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}

package digest

import (
	"context"

	"github.com/grindlemire/graft"
	"go.heddle.dev/heddle/internal/core/ports"
)

const NodeID graft.ID = "adapter.digester"

func init() {
	graft.Register(graft.Node[ports.Digester]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Digester, error) {
			return NewDigester(), nil
		},
	})
}

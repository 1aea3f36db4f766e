package progrock

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/viper"
	"go.heddle.dev/heddle/internal/adapters/logger"
	"go.heddle.dev/heddle/internal/adapters/telemetry"
	"go.heddle.dev/heddle/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the tracing adapter node.
	NodeID graft.ID = "adapter.telemetry"
)

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			if viper.GetBool("quiet") {
				return telemetry.NewNoOpTracer(), nil
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}

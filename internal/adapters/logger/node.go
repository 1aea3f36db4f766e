package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/viper"
	"go.heddle.dev/heddle/internal/core/ports"
)

const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Logger, error) {
			return New(viper.GetBool("verbose")), nil
		},
	})
}

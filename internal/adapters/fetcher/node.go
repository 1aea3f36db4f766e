package fetcher

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/viper"
	"go.heddle.dev/heddle/internal/adapters/logger"
	"go.heddle.dev/heddle/internal/core/ports"
)

const NodeID graft.ID = "adapter.fetcher"

func init() {
	graft.Register(graft.Node[ports.Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Fetcher, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			cacheDir := viper.GetString("cache-dir")
			if cacheDir == "" {
				cacheDir = DefaultCacheDir()
			}
			return New(cacheDir, viper.GetBool("skip-fetch-latest-git-deps"), log), nil
		},
	})
}

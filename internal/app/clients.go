package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-grading/internal/platform/envutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
	"github.com/yungbote/neurobridge-grading/internal/platform/openai"
	redisclient "github.com/yungbote/neurobridge-grading/internal/platform/redis"
)

type Clients struct {
	OpenAI openai.Client
	Redis  *goredis.Client
	Locker redisclient.Locker
	Cache  redisclient.JSONCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	out := Clients{
		OpenAI: ai,
		Locker: redisclient.NoopLocker{},
		Cache:  redisclient.NoopCache{},
	}

	// Redis is optional; without it the batch context is loaded per run and the
	// submission status compare-and-swap is the only lock.
	if envutil.String("REDIS_ADDR", "") == "" {
		return out, nil
	}
	rdb, err := redisclient.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	out.Redis = rdb
	out.Cache = redisclient.NewJSONCache(rdb, "grading:ctx:", log)
	if cfg.LockBackend == "redis" {
		out.Locker = redisclient.NewLocker(rdb, "grading:lock:", log)
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

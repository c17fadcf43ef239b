package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/storage/session/inmem"
	redisstore "github.com/trezcool/masomo-parents/storage/session/redis"
)

var _ Locker = (*redisstore.Store)(nil)

const (
	StoreInMem = "inmem"
	StoreRedis = "redis"
)

// Open returns the configured session store and the func releasing its resources.
func Open(ctx context.Context, conf *core.Config) (parent.SessionStore, func() error, error) {
	switch conf.Session.Store {
	case "", StoreInMem:
		return inmem.NewStore(conf.Session.TTL), func() error { return nil }, nil
	case StoreRedis:
		rdb := redisstore.Open(conf.Redis)
		if err := redisstore.Ping(ctx, rdb, 10); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return redisstore.NewStore(rdb, conf.Session.TTL), rdb.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown session store %q", conf.Session.Store)
	}
}

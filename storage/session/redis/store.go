package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
)

const (
	keyPrefix  = "masomo:parents:session:"
	lockPrefix = "masomo:parents:lock:"

	// a lock outlives a crashed holder by this much at most
	DefaultLockTTL = 30 * time.Second

	maxLockWait = 200 * time.Millisecond
)

// releases the lock only if still held by the caller's token
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Store keeps sessions as JSON values, expiring after ttl.
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	LockTTL time.Duration
}

var _ parent.SessionStore = (*Store)(nil)

func Open(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

// Ping waits for redis to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, rdb *redis.Client, maxAttempts int) error {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "redis ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "redis ping timeout")
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, LockTTL: DefaultLockTTL}
}

func key(parentID string) string {
	return keyPrefix + parentID
}

func (s *Store) GetSession(ctx context.Context, parentID string) (parent.Session, error) {
	data, err := s.rdb.Get(ctx, key(parentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return parent.Session{}, parent.ErrSessionNotFound
		}
		return parent.Session{}, errors.Wrap(err, "getting session")
	}

	var sess parent.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return parent.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess parent.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = s.rdb.Set(ctx, key(sess.ParentID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, parentID string) error {
	if err := s.rdb.Del(ctx, key(parentID)).Err(); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func lockKey(parentID string) string {
	return lockPrefix + parentID
}

// Lock takes the parent's session lock, shared by every process using the same redis.
func (s *Store) Lock(ctx context.Context, parentID string) (func(), error) {
	k, token := lockKey(parentID), uuid.New().String()
	wait := 5 * time.Millisecond
	for {
		ok, err := s.rdb.SetNX(ctx, k, token, s.LockTTL).Result()
		if err != nil {
			return nil, errors.Wrap(err, "taking session lock")
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "waiting for session lock")
		case <-time.After(wait):
		}
		if wait *= 2; wait > maxLockWait {
			wait = maxLockWait
		}
	}

	return func() {
		// the request context may be done already
		_ = unlockScript.Run(context.Background(), s.rdb, []string{k}, token).Err()
	}, nil
}

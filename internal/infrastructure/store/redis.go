package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/ports"
)

const (
	redisTimeout = 5 * time.Second

	credentialKeyPrefix = "session:credentials:"
	changeChannelPrefix = "session:changed:"
)

// RedisConfig captures the settings for establishing a Redis connection.
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// ConnectRedis initialises a Redis client and validates connectivity with
// a ping. A default timeout is applied when none is provided.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = redisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// RedisStore keeps the credential record in Redis under a per-profile
// key and publishes a change signal on every mutation, so other surfaces
// sharing the profile observe logins and logouts as they happen. This is
// the cross-surface analog of the file store's in-process fan-out.
type RedisStore struct {
	client  *redis.Client
	profile string
	log     zerolog.Logger
	now     func() time.Time
}

// NewRedisStore builds a RedisStore scoped to the given profile name.
func NewRedisStore(client *redis.Client, profile string, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		client:  client,
		profile: profile,
		log:     log,
		now:     time.Now,
	}
}

var _ ports.WatchableStore = (*RedisStore)(nil)

func (s *RedisStore) key() string     { return credentialKeyPrefix + s.profile }
func (s *RedisStore) channel() string { return changeChannelPrefix + s.profile }

func (s *RedisStore) AccessToken() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Tokens.AccessToken
}

func (s *RedisStore) RefreshToken() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Tokens.RefreshToken
}

func (s *RedisStore) User() *domain.SessionUser {
	creds, err := s.Credentials()
	if err != nil {
		return nil
	}
	return creds.User
}

func (s *RedisStore) OrganizationID() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Org.ID
}

func (s *RedisStore) OrganizationSlug() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Org.Slug
}

func (s *RedisStore) TokenExpired() bool {
	creds, err := s.Credentials()
	if err != nil {
		return true
	}
	return creds.Tokens.Expired(s.now())
}

// Credentials fetches and decodes the stored record. Absence and
// transport failures both degrade to "no credentials": a read that cannot
// reach Redis must not surface as an authenticated-looking error.
func (s *RedisStore) Credentials() (domain.Credentials, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("store: redis read failed, treating as absent")
		}
		return domain.Credentials{}, domain.ErrNoCredentials
	}

	var creds domain.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		s.log.Warn().Err(err).Msg("store: corrupt redis record, treating as absent")
		return domain.Credentials{}, domain.ErrNoCredentials
	}
	return creds, nil
}

func (s *RedisStore) SetCredentials(creds domain.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(), raw, 0).Err(); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	s.publish(ctx)
	return nil
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	s.publish(ctx)
	return nil
}

// Watch subscribes to the profile's change channel. Every publish maps to
// at most one pending signal; the channel closes when ctx is cancelled.
func (s *RedisStore) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	sub := s.client.Subscribe(ctx, s.channel())

	go func() {
		defer close(ch)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch
}

func (s *RedisStore) publish(ctx context.Context) {
	if err := s.client.Publish(ctx, s.channel(), "changed").Err(); err != nil {
		s.log.Warn().Err(err).Msg("store: change publish failed")
	}
}

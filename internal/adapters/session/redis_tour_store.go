package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/platform/obs"
)

const keyPrefix = "tour:session:"

// RedisTourStore keeps each computed TourPlan as one JSON blob with a TTL.
type RedisTourStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTourStore(client *redis.Client, ttl time.Duration) *RedisTourStore {
	return &RedisTourStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return keyPrefix + id }

func (s *RedisTourStore) Save(ctx context.Context, sessionID string, plan domain.TourPlan) (err error) {
	defer obs.Time(ctx, "session.Save")(&err)

	if sessionID == "" {
		return errors.New("save tour: session id is empty")
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("save tour: marshal plan: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save tour %q: %w", sessionID, err)
	}
	return nil
}

func (s *RedisTourStore) Load(ctx context.Context, sessionID string) (_ domain.TourPlan, err error) {
	defer obs.Time(ctx, "session.Load")(&err)

	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.TourPlan{}, fmt.Errorf("load tour %q: %w", sessionID, domain.ErrTourNotFound)
	}
	if err != nil {
		return domain.TourPlan{}, fmt.Errorf("load tour %q: %w", sessionID, err)
	}

	var plan domain.TourPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return domain.TourPlan{}, fmt.Errorf("load tour %q: decode plan: %w", sessionID, err)
	}
	return plan, nil
}

func (s *RedisTourStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete tour %q: %w", sessionID, err)
	}
	return nil
}

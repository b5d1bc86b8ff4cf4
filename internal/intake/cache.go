package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dentalstack/intake-platform/pkg/logging"
)

// DefaultSessionCacheTTL bounds how long a cached session may serve reads.
const DefaultSessionCacheTTL = 30 * time.Minute

// CachedSessionStore layers a Redis read-through cache over a SessionStore.
// The inner store stays the source of truth: every write goes through it
// first, then the cached copy is dropped so the next read refills. Cache
// failures degrade to the inner store and never fail the operation.
type CachedSessionStore struct {
	inner  SessionStore
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

// NewCachedSessionStore wraps inner with a Redis cache.
func NewCachedSessionStore(inner SessionStore, rdb *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSessionStore {
	if inner == nil {
		panic("intake: inner session store cannot be nil")
	}
	if rdb == nil {
		panic("intake: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSessionStore{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		tracer: otel.Tracer("dental.internal.intake.cache"),
		logger: logger,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("intake_session:%s", sessionID)
}

// Create delegates to the inner store and primes the cache.
func (c *CachedSessionStore) Create(ctx context.Context, businessID, patientID string) (*IntakeSession, error) {
	session, err := c.inner.Create(ctx, businessID, patientID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, session)
	return session, nil
}

// Get serves from the cache when possible, falling back to the inner store
// on a miss or a cache error.
func (c *CachedSessionStore) Get(ctx context.Context, sessionID string) (*IntakeSession, error) {
	ctx, span := c.tracer.Start(ctx, "intake.cache.get_session")
	defer span.End()

	data, err := c.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == nil {
		var session IntakeSession
		if err := json.Unmarshal(data, &session); err == nil {
			return &session, nil
		}
		c.logger.Warn("corrupt cached session, falling back to store", "session_id", sessionID)
	} else if err != redis.Nil {
		span.RecordError(err)
		c.logger.Warn("session cache read failed", "session_id", sessionID, "error", err)
	}

	session, err := c.inner.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, session)
	return session, nil
}

// Update writes through to the inner store, then invalidates.
func (c *CachedSessionStore) Update(ctx context.Context, sessionID string, patch SessionPatch) error {
	if err := c.inner.Update(ctx, sessionID, patch); err != nil {
		return err
	}
	c.invalidate(ctx, sessionID)
	return nil
}

// ListByBusiness is served straight from the inner store; aggregate reads
// are not cached.
func (c *CachedSessionStore) ListByBusiness(ctx context.Context, businessID string, start, end *time.Time) ([]IntakeSession, error) {
	return c.inner.ListByBusiness(ctx, businessID, start, end)
}

// MarkMatchSelected writes through to the inner store, then invalidates.
func (c *CachedSessionStore) MarkMatchSelected(ctx context.Context, sessionID, dentistID string) error {
	if err := c.inner.MarkMatchSelected(ctx, sessionID, dentistID); err != nil {
		return err
	}
	c.invalidate(ctx, sessionID)
	return nil
}

func (c *CachedSessionStore) fill(ctx context.Context, session *IntakeSession) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, sessionKey(session.SessionID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache write failed", "session_id", session.SessionID, "error", err)
	}
}

func (c *CachedSessionStore) invalidate(ctx context.Context, sessionID string) {
	if err := c.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		c.logger.Warn("session cache invalidation failed", "session_id", sessionID, "error", err)
	}
}

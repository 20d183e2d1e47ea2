// Package services – MarketplaceService
//
// MarketplaceService owns every state transition of the marketplace: users,
// prompts, purchases, likes and ratings. Each operation runs to completion
// before the next one starts and executes inside a single database
// transaction, so either every affected record is written or none is.
//
// Observability: every operation opens an OpenTelemetry span and increments
// marketplace_operations_total{operation,result}.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/events"
	"github.com/tbourn/prompt-vault/internal/observability"
)

// MarketplaceService implements the marketplace use-cases on top of the
// record store. The zero value is not usable; set DB at least.
type MarketplaceService struct {
	// DB is the record store handle.
	DB *gorm.DB
	// Now supplies the current time. Defaults to time.Now in UTC.
	Now func() time.Time
	// Events receives post-commit notifications. Defaults to events.Noop.
	Events events.Publisher

	mu sync.Mutex
}

// NewMarketplaceService returns a service bound to db with the wall clock and
// no event publisher.
func NewMarketplaceService(db *gorm.DB) *MarketplaceService {
	return &MarketplaceService{DB: db}
}

func (s *MarketplaceService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MarketplaceService) publisher() events.Publisher {
	if s.Events != nil {
		return s.Events
	}
	return events.Noop{}
}

// run serialises op against every other operation and executes fn in one
// transaction. Returning an error from fn rolls back all of its writes.
func (s *MarketplaceService) run(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context, tx *gorm.DB) error) (err error) {
	ctx, span := observability.Tracer().Start(ctx, op, trace.WithAttributes(attrs...))
	defer func() {
		opsTotal.WithLabelValues(op, resultLabel(err)).Inc()
		if err != nil {
			span.RecordError(err)
			if resultLabel(err) == "error" {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
}

// emit publishes ev after commit. Failures are logged and dropped.
func (s *MarketplaceService) emit(ctx context.Context, ev events.Event) {
	if err := s.publisher().Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("event publish failed")
	}
}

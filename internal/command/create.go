package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/canonico/internal/observability"
	"github.com/pitabwire/canonico/model"
)

// Creator creates a record in the backend.
type Creator interface {
	Create(ctx context.Context, rec model.Canonico) (model.Canonico, error)
}

// IdempotentCreator replays the stored result when a create is resubmitted
// with the same idempotency key and the same record.
type IdempotentCreator struct {
	creator Creator
	store   IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentCreator wraps creator. A nil store disables deduplication.
func NewIdempotentCreator(creator Creator, store IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentCreator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentCreator{creator: creator, store: store, ttl: ttl, logger: logger}
}

// Create forwards rec to the backend unless key has already been used. It
// reports whether the result was replayed from the store. Failed creates are
// not stored, so the same key may be retried.
func (c *IdempotentCreator) Create(ctx context.Context, key string, rec model.Canonico) (out model.Canonico, replayed bool, err error) {
	if key == "" || c.store == nil {
		out, err = c.creator.Create(ctx, rec)
		return out, false, err
	}

	ctx, span := observability.StartSpan(ctx, "idempotent create",
		observability.AttrCanonicoName.String(rec.Name),
	)
	defer func() {
		span.SetAttributes(observability.AttrReplayed.Bool(replayed))
		observability.EndSpanWithError(span, err)
	}()

	hash, err := HashInput(rec)
	if err != nil {
		return model.Canonico{}, false, model.NewBadRequestError("record cannot be encoded")
	}
	storeKey := FormatIdempotencyKey(CreateCommandID, key)

	cached, found, err := c.store.Check(ctx, storeKey, hash)
	if err != nil {
		return model.Canonico{}, false, err
	}
	if found {
		return *cached, true, nil
	}

	out, err = c.creator.Create(ctx, rec)
	if err != nil {
		return model.Canonico{}, false, err
	}
	// The record exists in the backend at this point; a store failure only
	// loses deduplication for this key.
	if serr := c.store.Store(ctx, storeKey, hash, out, c.ttl); serr != nil {
		c.logger.Warn("failed to store idempotency result",
			zap.String("key", storeKey),
			zap.Error(serr),
		)
	}
	return out, false, nil
}

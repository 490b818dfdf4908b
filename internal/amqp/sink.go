package amqp

import (
	"context"

	"flowcast/internal/core"
)

// EnqueueOverride publishes an override upsert onto the mutation queue.
func (c *Client) EnqueueOverride(ctx context.Context, ov core.RecurrenceOverride) error {
	return c.PublishMutation(ctx, NewOverrideUpsertMessage(ov))
}

// EnqueueTransaction publishes a transaction create onto the mutation queue.
func (c *Client) EnqueueTransaction(ctx context.Context, tx core.Transaction) error {
	return c.PublishMutation(ctx, NewTransactionCreateMessage(tx))
}

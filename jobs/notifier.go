package jobs

import (
	"context"

	"github.com/helios-erp/helios-erp/internal/inventory"
)

// ShortageNotifier adapts the queue client to the inventory service's
// notification hook.
type ShortageNotifier struct {
	client *Client
}

// NewShortageNotifier constructs a ShortageNotifier.
func NewShortageNotifier(client *Client) *ShortageNotifier {
	return &ShortageNotifier{client: client}
}

// ShortageRequested enqueues the notification task.
func (n *ShortageNotifier) ShortageRequested(ctx context.Context, req inventory.ShortageRequest) error {
	_, err := n.client.EnqueueShortageRequested(ctx, ShortageRequestedPayload{
		ShortageID: req.ID,
		BranchID:   req.BranchID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	return err
}

package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"facturacion/internal/domain"
)

const (
	SaleCreated = "sale.created"
	SaleUpdated = "sale.updated"
	SaleDeleted = "sale.deleted"
)

// SaleEvent is published after a sale change has been committed.
type SaleEvent struct {
	EventID    string     `json:"event_id"`
	Type       string     `json:"type"`
	SaleID     int64      `json:"sale_id"`
	CustomerID int64      `json:"customer_id"`
	Total      int64      `json:"total"`
	Timestamp  string     `json:"timestamp"`
	Items      []SaleItem `json:"items"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type SaleItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

func NewSaleEvent(eventType string, v domain.SaleView) SaleEvent {
	items := make([]SaleItem, 0, len(v.Products))
	for _, p := range v.Products {
		items = append(items, SaleItem{
			ProductID:   p.ProductID,
			ProductName: p.Name,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
		})
	}
	return SaleEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		SaleID:     v.ID,
		CustomerID: v.CustomerID,
		Total:      v.Total,
		Timestamp:  v.Timestamp,
		Items:      items,
		OccurredAt: time.Now().UTC(),
	}
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, SaleEvent) {}

func (Nop) Close() error { return nil }

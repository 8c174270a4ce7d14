package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/toymarket/pkg/messaging"
	"go.opentelemetry.io/otel/propagation"
)

// ToyCreatedEvent is published after a toy listing is inserted.
type ToyCreatedEvent struct {
	Carrier     propagation.MapCarrier `json:"carrier,omitempty"`
	ToyID       string                 `json:"toy_id"`
	ProductName string                 `json:"product_name"`
	SubCategory string                 `json:"sub_category"`
	SellerEmail string                 `json:"seller_email"`
	CreatedAt   time.Time              `json:"created_at"`
}

func (e ToyCreatedEvent) Subject() string {
	return messaging.ToyCreatedSubject
}

func (e ToyCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// ToyUpdatedEvent is published after an update matched a toy listing.
type ToyUpdatedEvent struct {
	Carrier            propagation.MapCarrier `json:"carrier,omitempty"`
	ToyID              string                 `json:"toy_id"`
	Price              float64                `json:"price"`
	AvailableQuantity  int64                  `json:"available_quantity"`
	DetailsDescription string                 `json:"details_description"`
	Modified           bool                   `json:"modified"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

func (e ToyUpdatedEvent) Subject() string {
	return messaging.ToyUpdatedSubject
}

func (e ToyUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// ToyDeletedEvent is published after a toy listing is removed.
type ToyDeletedEvent struct {
	Carrier   propagation.MapCarrier `json:"carrier,omitempty"`
	ToyID     string                 `json:"toy_id"`
	DeletedAt time.Time              `json:"deleted_at"`
}

func (e ToyDeletedEvent) Subject() string {
	return messaging.ToyDeletedSubject
}

func (e ToyDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

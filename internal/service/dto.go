package service

import (
	"encoding/json"
	"fmt"

	"github.com/abgdnv/toymarket/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// ToyDto is a toy listing as returned to clients: every stored attribute plus "_id" as a hex string.
type ToyDto map[string]any

// ID returns the listing identifier.
func (d ToyDto) ID() string {
	id, _ := d[store.FieldID].(string)
	return id
}

// ToyCreateDto represents a new toy listing.
// Attributes without a typed field are kept in Extra and stored unchanged.
type ToyCreateDto struct {
	ProductName        string   `json:"productName"        validate:"required,max=200"`
	SubCategory        string   `json:"subCategory"        validate:"required,max=100"`
	SellerEmail        string   `json:"sellerEmail"        validate:"required,email"`
	Price              *float64 `json:"price"              validate:"required,gte=0"`
	AvailableQuantity  *int64   `json:"availableQuantity"  validate:"required,gte=0"`
	DetailsDescription *string  `json:"detailsDescription" validate:"omitempty,max=2000"`

	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed attributes from their exact keys and collects the rest into Extra.
// A key differing from a typed attribute only in case is an extra attribute. A client supplied "_id" is dropped.
func (d *ToyCreateDto) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, store.FieldID)

	var t ToyCreateDto
	fields := []struct {
		key string
		dst any
	}{
		{store.FieldProductName, &t.ProductName},
		{store.FieldSubCategory, &t.SubCategory},
		{store.FieldSellerEmail, &t.SellerEmail},
		{store.FieldPrice, &t.Price},
		{store.FieldAvailableQuantity, &t.AvailableQuantity},
		{store.FieldDetailsDescription, &t.DetailsDescription},
	}
	for _, f := range fields {
		if err := takeField(raw, f.key, f.dst); err != nil {
			return err
		}
	}

	t.Extra = make(map[string]any, len(raw))
	for key, value := range raw {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return err
		}
		t.Extra[key] = v
	}
	*d = t
	return nil
}

// takeField decodes raw[key] into dst and removes the key. Keys match exactly.
func takeField(raw map[string]json.RawMessage, key string, dst any) error {
	value, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	if err := json.Unmarshal(value, dst); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

// document builds the stored form of the listing. Only submitted attributes are included.
func (d ToyCreateDto) document() bson.M {
	doc := make(bson.M, len(d.Extra)+6)
	for k, v := range d.Extra {
		doc[k] = v
	}
	doc[store.FieldProductName] = d.ProductName
	doc[store.FieldSubCategory] = d.SubCategory
	doc[store.FieldSellerEmail] = d.SellerEmail
	if d.Price != nil {
		doc[store.FieldPrice] = *d.Price
	}
	if d.AvailableQuantity != nil {
		doc[store.FieldAvailableQuantity] = *d.AvailableQuantity
	}
	if d.DetailsDescription != nil {
		doc[store.FieldDetailsDescription] = *d.DetailsDescription
	}
	return doc
}

// ToyUpdateDto carries the attributes an update replaces. Other submitted attributes are ignored.
type ToyUpdateDto struct {
	Price              *float64 `json:"price"              validate:"required,gte=0"`
	AvailableQuantity  *int64   `json:"availableQuantity"  validate:"required,gte=0"`
	DetailsDescription *string  `json:"detailsDescription" validate:"required,max=2000"`
}

// UnmarshalJSON reads the three attributes from their exact keys only.
func (d *ToyUpdateDto) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var u ToyUpdateDto
	if err := takeField(raw, store.FieldPrice, &u.Price); err != nil {
		return err
	}
	if err := takeField(raw, store.FieldAvailableQuantity, &u.AvailableQuantity); err != nil {
		return err
	}
	if err := takeField(raw, store.FieldDetailsDescription, &u.DetailsDescription); err != nil {
		return err
	}
	*d = u
	return nil
}

// InsertAck acknowledges a created listing.
type InsertAck struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateAck reports the outcome of an update. Updates never upsert.
type UpdateAck struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

// DeleteAck reports the outcome of a delete.
type DeleteAck struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// toDto converts a store.Toy to a ToyDto.
func toDto(toy *store.Toy) ToyDto {
	dto := make(ToyDto, len(toy.Fields)+1)
	for k, v := range toy.Fields {
		dto[k] = v
	}
	dto[store.FieldID] = toy.ID.Hex()
	return dto
}

func toDtos(toys []store.Toy) []ToyDto {
	dtos := make([]ToyDto, len(toys))
	for i := range toys {
		dtos[i] = toDto(&toys[i])
	}
	return dtos
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"github.com/abgdnv/toymarket/internal/store"
	"github.com/abgdnv/toymarket/pkg/messaging"
	"github.com/abgdnv/toymarket/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockToyStore is a mock implementation of the ToyStore interface
type mockToyStore struct {
	toys     []store.Toy
	toy      store.Toy
	inserted bson.M
	insertID primitive.ObjectID
	update   *store.UpdateResult
	deleted  int64
	limit    int64
	calls    int
	error    error
}

func (m *mockToyStore) FindAll(_ context.Context, limit int64) ([]store.Toy, error) {
	m.calls++
	m.limit = limit
	return m.toys, m.error
}

func (m *mockToyStore) FindBySubCategory(_ context.Context, _ string) ([]store.Toy, error) {
	m.calls++
	return m.toys, m.error
}

func (m *mockToyStore) SearchByName(_ context.Context, _ string) ([]store.Toy, error) {
	m.calls++
	return m.toys, m.error
}

func (m *mockToyStore) FindByID(_ context.Context, _ primitive.ObjectID) (*store.Toy, error) {
	m.calls++
	if m.error != nil {
		return nil, m.error
	}
	return &m.toy, nil
}

func (m *mockToyStore) FindBySeller(_ context.Context, _ string) ([]store.Toy, error) {
	m.calls++
	return m.toys, m.error
}

func (m *mockToyStore) Insert(_ context.Context, fields bson.M) (primitive.ObjectID, error) {
	m.calls++
	m.inserted = fields
	return m.insertID, m.error
}

func (m *mockToyStore) UpdateByID(_ context.Context, _ primitive.ObjectID, _ store.ToyUpdate) (*store.UpdateResult, error) {
	m.calls++
	return m.update, m.error
}

func (m *mockToyStore) DeleteByID(_ context.Context, _ primitive.ObjectID) (int64, error) {
	m.calls++
	return m.deleted, m.error
}

func (m *mockToyStore) Ping(_ context.Context) error {
	return m.error
}

// mockPublisher records published events
type mockPublisher struct {
	events []messaging.Event
	error  error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	m.events = append(m.events, event)
	return m.error
}

func ptr[T any](v T) *T {
	return &v
}

func Test_ToyService_FindAll(t *testing.T) {
	id := primitive.NewObjectID()
	storeErr := errors.New("boom")
	testCases := []struct {
		name          string
		mockStore     *mockToyStore
		limit         int64
		expected      []ToyDto
		expectedCalls int
		expectError   error
	}{
		{
			name:          "Success - listings found",
			mockStore:     &mockToyStore{toys: []store.Toy{{ID: id, Fields: bson.M{"productName": "Robot"}}}},
			limit:         5,
			expected:      []ToyDto{{"_id": id.Hex(), "productName": "Robot"}},
			expectedCalls: 1,
		},
		{
			name:          "Success - zero limit skips the store",
			mockStore:     &mockToyStore{},
			limit:         0,
			expected:      []ToyDto{},
			expectedCalls: 0,
		},
		{
			name:          "Error - store failure",
			mockStore:     &mockToyStore{error: storeErr},
			limit:         20,
			expectedCalls: 1,
			expectError:   storeErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := NewService(tc.mockStore, &mockPublisher{})

			// when
			result, err := svc.FindAll(context.Background(), tc.limit)

			// then
			assert.Equal(t, tc.expectedCalls, tc.mockStore.calls)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
			if tc.expectedCalls > 0 {
				assert.Equal(t, tc.limit, tc.mockStore.limit)
			}
		})
	}
}

func Test_ToyService_FindByID(t *testing.T) {
	id := primitive.NewObjectID()
	testCases := []struct {
		name        string
		mockStore   *mockToyStore
		id          string
		expected    ToyDto
		expectError error
	}{
		{
			name:      "Success - listing found",
			mockStore: &mockToyStore{toy: store.Toy{ID: id, Fields: bson.M{"productName": "Robot", "price": 9.5}}},
			id:        id.Hex(),
			expected:  ToyDto{"_id": id.Hex(), "productName": "Robot", "price": 9.5},
		},
		{
			name:        "Error - listing not found",
			mockStore:   &mockToyStore{error: perrors.ErrToyNotFound},
			id:          id.Hex(),
			expectError: perrors.ErrToyNotFound,
		},
		{
			name:        "Error - malformed id",
			mockStore:   &mockToyStore{},
			id:          "not-an-id",
			expectError: perrors.ErrInvalidIdentifier,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := NewService(tc.mockStore, &mockPublisher{})

			// when
			result, err := svc.FindByID(context.Background(), tc.id)

			// then
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
			assert.Equal(t, id.Hex(), result.ID())
		})
	}
}

func Test_ToyService_FindByID_MalformedIDSkipsStore(t *testing.T) {
	// given
	mockStore := &mockToyStore{}
	svc := NewService(mockStore, &mockPublisher{})

	// when
	_, err := svc.FindByID(context.Background(), "123")

	// then
	require.ErrorIs(t, err, perrors.ErrInvalidIdentifier)
	assert.Zero(t, mockStore.calls)
}

func Test_ToyService_Filters(t *testing.T) {
	id := primitive.NewObjectID()
	mockStore := &mockToyStore{toys: []store.Toy{{ID: id, Fields: bson.M{"subCategory": "Cars"}}}}
	svc := NewService(mockStore, &mockPublisher{})
	expected := []ToyDto{{"_id": id.Hex(), "subCategory": "Cars"}}

	byCategory, err := svc.FindByCategory(context.Background(), "Cars")
	require.NoError(t, err)
	assert.Equal(t, expected, byCategory)

	byName, err := svc.SearchByName(context.Background(), "car")
	require.NoError(t, err)
	assert.Equal(t, expected, byName)

	bySeller, err := svc.FindBySeller(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, bySeller)
}

func Test_ToyService_Create(t *testing.T) {
	// given
	id := primitive.NewObjectID()
	mockStore := &mockToyStore{insertID: id}
	publisher := &mockPublisher{}
	svc := NewService(mockStore, publisher)
	dto := ToyCreateDto{
		ProductName:       "Lego Castle",
		SubCategory:       "Lego",
		SellerEmail:       "a@example.com",
		Price:             ptr(49.5),
		AvailableQuantity: ptr(int64(3)),
		Extra:             map[string]any{"rating": 4.5},
	}

	// when
	created, err := svc.Create(context.Background(), dto)

	// then
	require.NoError(t, err)
	expectedDoc := bson.M{
		"productName":       "Lego Castle",
		"subCategory":       "Lego",
		"sellerEmail":       "a@example.com",
		"price":             49.5,
		"availableQuantity": int64(3),
		"rating":            4.5,
	}
	assert.Equal(t, expectedDoc, mockStore.inserted)
	assert.NotContains(t, mockStore.inserted, "detailsDescription", "absent attributes are not stored")
	assert.Equal(t, id.Hex(), created.ID())
	assert.Equal(t, "Lego Castle", created["productName"])

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(events.ToyCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, id.Hex(), event.ToyID)
	assert.Equal(t, "a@example.com", event.SellerEmail)
}

func Test_ToyService_Create_StoreErrorPublishesNothing(t *testing.T) {
	// given
	mockStore := &mockToyStore{error: perrors.ErrStoreUnavailable}
	publisher := &mockPublisher{}
	svc := NewService(mockStore, publisher)

	// when
	_, err := svc.Create(context.Background(), ToyCreateDto{Price: ptr(1.0), AvailableQuantity: ptr(int64(1))})

	// then
	require.ErrorIs(t, err, perrors.ErrStoreUnavailable)
	assert.Empty(t, publisher.events)
}

func Test_ToyService_Create_PublishFailureIsIgnored(t *testing.T) {
	// given
	svc := NewService(&mockToyStore{insertID: primitive.NewObjectID()}, &mockPublisher{error: errors.New("broker down")})

	// when
	_, err := svc.Create(context.Background(), ToyCreateDto{Price: ptr(1.0), AvailableQuantity: ptr(int64(1))})

	// then
	require.NoError(t, err)
}

func Test_ToyService_UpdateByID(t *testing.T) {
	id := primitive.NewObjectID()
	update := ToyUpdateDto{Price: ptr(5.0), AvailableQuantity: ptr(int64(2)), DetailsDescription: ptr("new")}
	testCases := []struct {
		name           string
		mockStore      *mockToyStore
		id             string
		expected       *UpdateAck
		expectedEvents int
		expectError    error
	}{
		{
			name:           "Success - listing updated",
			mockStore:      &mockToyStore{update: &store.UpdateResult{MatchedCount: 1, ModifiedCount: 1}},
			id:             id.Hex(),
			expected:       &UpdateAck{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1},
			expectedEvents: 1,
		},
		{
			name:           "Success - listing missing",
			mockStore:      &mockToyStore{update: &store.UpdateResult{}},
			id:             id.Hex(),
			expected:       &UpdateAck{Acknowledged: true},
			expectedEvents: 0,
		},
		{
			name:        "Error - malformed id",
			mockStore:   &mockToyStore{},
			id:          "zzz",
			expectError: perrors.ErrInvalidIdentifier,
		},
		{
			name:        "Error - store unavailable",
			mockStore:   &mockToyStore{error: perrors.ErrStoreUnavailable},
			id:          id.Hex(),
			expectError: perrors.ErrStoreUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &mockPublisher{}
			svc := NewService(tc.mockStore, publisher)

			// when
			ack, err := svc.UpdateByID(context.Background(), tc.id, update)

			// then
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				assert.Empty(t, publisher.events)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ack)
			assert.Len(t, publisher.events, tc.expectedEvents)
		})
	}
}

func Test_ToyService_UpdateByID_Incomplete(t *testing.T) {
	// given
	mockStore := &mockToyStore{}
	svc := NewService(mockStore, &mockPublisher{})

	// when
	_, err := svc.UpdateByID(context.Background(), primitive.NewObjectID().Hex(), ToyUpdateDto{Price: ptr(1.0)})

	// then
	require.Error(t, err)
	assert.Zero(t, mockStore.calls)
}

func Test_ToyService_DeleteByID(t *testing.T) {
	id := primitive.NewObjectID()
	testCases := []struct {
		name           string
		mockStore      *mockToyStore
		id             string
		expected       *DeleteAck
		expectedEvents int
		expectError    error
	}{
		{
			name:           "Success - listing deleted",
			mockStore:      &mockToyStore{deleted: 1},
			id:             id.Hex(),
			expected:       &DeleteAck{Acknowledged: true, DeletedCount: 1},
			expectedEvents: 1,
		},
		{
			name:      "Success - listing missing",
			mockStore: &mockToyStore{},
			id:        id.Hex(),
			expected:  &DeleteAck{Acknowledged: true},
		},
		{
			name:        "Error - malformed id",
			mockStore:   &mockToyStore{},
			id:          "",
			expectError: perrors.ErrInvalidIdentifier,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &mockPublisher{}
			svc := NewService(tc.mockStore, publisher)

			// when
			ack, err := svc.DeleteByID(context.Background(), tc.id)

			// then
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ack)
			require.Len(t, publisher.events, tc.expectedEvents)
			if tc.expectedEvents > 0 {
				assert.Equal(t, messaging.ToyDeletedSubject, publisher.events[0].Subject())
			}
		})
	}
}

func Test_ToyCreateDto_UnmarshalJSON(t *testing.T) {
	// given
	body := `{"_id":"64b000000000000000000000","productName":"Robot","subCategory":"Tech",` +
		`"sellerEmail":"a@example.com","price":12.5,"availableQuantity":4,` +
		`"pictureUrl":"http://img","rating":4.8,"tags":["a","b"]}`

	// when
	var dto ToyCreateDto
	err := json.Unmarshal([]byte(body), &dto)

	// then
	require.NoError(t, err)
	assert.Equal(t, "Robot", dto.ProductName)
	require.NotNil(t, dto.Price)
	assert.Equal(t, 12.5, *dto.Price)
	require.NotNil(t, dto.AvailableQuantity)
	assert.Equal(t, int64(4), *dto.AvailableQuantity)
	assert.Nil(t, dto.DetailsDescription)
	assert.Equal(t, map[string]any{"pictureUrl": "http://img", "rating": 4.8, "tags": []any{"a", "b"}}, dto.Extra)
}

func Test_ToyCreateDto_UnmarshalJSON_WrongType(t *testing.T) {
	var dto ToyCreateDto
	err := json.Unmarshal([]byte(`{"availableQuantity":1.5}`), &dto)
	require.Error(t, err)
}

func Test_ToyCreateDto_UnmarshalJSON_KeysMatchExactly(t *testing.T) {
	// given
	body := `{"productname":"Red Car","productName":"Blue Car","subCategory":"Cars",` +
		`"SELLEREMAIL":"b@example.com","sellerEmail":"a@example.com","price":3,"availableQuantity":1}`

	// when
	var dto ToyCreateDto
	err := json.Unmarshal([]byte(body), &dto)

	// then
	require.NoError(t, err)
	assert.Equal(t, "Blue Car", dto.ProductName)
	assert.Equal(t, "a@example.com", dto.SellerEmail)
	assert.Equal(t, bson.M{
		"productName":       "Blue Car",
		"productname":       "Red Car",
		"subCategory":       "Cars",
		"sellerEmail":       "a@example.com",
		"SELLEREMAIL":       "b@example.com",
		"price":             float64(3),
		"availableQuantity": int64(1),
	}, dto.document(), "every submitted key is stored once")
}

func Test_ToyCreateDto_UnmarshalJSON_CaseVariantOnly(t *testing.T) {
	// given
	body := `{"productname":"Red Car","subCategory":"Cars","sellerEmail":"a@example.com","price":3,"availableQuantity":1}`

	// when
	var dto ToyCreateDto
	err := json.Unmarshal([]byte(body), &dto)

	// then
	require.NoError(t, err)
	assert.Empty(t, dto.ProductName, "a case variant does not fill the typed attribute")
	assert.Equal(t, map[string]any{"productname": "Red Car"}, dto.Extra)
}

func Test_ToyUpdateDto_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		expectedPrice *float64
		expectedQty   *int64
		expectErr     bool
	}{
		{
			name:          "exact keys",
			body:          `{"price":7.5,"availableQuantity":2,"detailsDescription":"x","productName":"ignored"}`,
			expectedPrice: ptr(7.5),
			expectedQty:   ptr(int64(2)),
		},
		{
			name:          "case variants are ignored",
			body:          `{"PRICE":99,"price":7.5,"AvailableQuantity":9,"detailsDescription":"x"}`,
			expectedPrice: ptr(7.5),
		},
		{
			name:      "wrong type",
			body:      `{"price":"cheap"}`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			var dto ToyUpdateDto
			err := json.Unmarshal([]byte(tc.body), &dto)

			// then
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPrice, dto.Price)
			assert.Equal(t, tc.expectedQty, dto.AvailableQuantity)
		})
	}
}

func Test_ParseID(t *testing.T) {
	id := primitive.NewObjectID()

	parsed, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "abc", "64b00000000000000000000g", id.Hex() + "00"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, perrors.ErrInvalidIdentifier, "id %q", bad)
	}
}

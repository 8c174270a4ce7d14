package store

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"github.com/abgdnv/toymarket/migrations"
	"github.com/abgdnv/toymarket/pkg/bootstrap"
	"github.com/abgdnv/toymarket/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const skipIntegrationTests = "TOY_SKIP_INTEGRATION_TESTS"

// ToyStoreSuite is a test suite for the MongoStore implementation.
type ToyStoreSuite struct {
	suite.Suite
	mongoContainer *mongodb.MongoDBContainer
	client         *mongo.Client
	coll           *mongo.Collection
	store          ToyStore
	logger         *slog.Logger
	ctx            context.Context
}

// SetupSuite starts a MongoDB container, applies the migrations and creates the store.
func (s *ToyStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a MongoDB container
	s.mongoContainer, err = mongodb.Run(s.ctx, "mongo:7.0")
	require.NoError(s.T(), err, "Failed to run MongoDB container")

	uri, err := s.mongoContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get connection string from container")

	cfg := config.DatabaseConfig{
		URI:        uri,
		Name:       config.DefaultDatabaseName,
		Collection: config.DefaultCollectionName,
		Timeout:    30 * time.Second,
	}

	// 2. Connect with the production client options
	s.client, err = bootstrap.NewMongoClient(s.ctx, cfg)
	require.NoError(s.T(), err, "Failed to connect to MongoDB")

	// 3. Apply migrations
	require.NoError(s.T(), bootstrap.RunMigrations(cfg, migrations.FS), "Failed to apply migrations")
	s.logger.Info("Migrations applied for integration tests")

	s.coll = s.client.Database(cfg.Name).Collection(cfg.Collection)
	s.store = NewMongoStore(s.coll, 5*time.Second)
}

// TearDownSuite disconnects the client and terminates the container.
func (s *ToyStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.mongoContainer != nil {
		if err := s.mongoContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate MongoDB container", "error", err)
		}
	}
}

// SetupTest empties the collection before each test.
func (s *ToyStoreSuite) SetupTest() {
	_, err := s.coll.DeleteMany(s.ctx, bson.M{})
	require.NoError(s.T(), err, "Failed to clean toys collection")
}

// TestToyStoreIntegration runs the ToyStore integration tests.
func TestToyStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(ToyStoreSuite))
}

func (s *ToyStoreSuite) insertToy(name, category, seller string) primitive.ObjectID {
	s.T().Helper()
	id, err := s.store.Insert(s.ctx, bson.M{
		FieldProductName:       name,
		FieldSubCategory:       category,
		FieldSellerEmail:       seller,
		FieldPrice:             19.99,
		FieldAvailableQuantity: int64(3),
	})
	require.NoError(s.T(), err, "insertToy helper failed")
	return id
}

func (s *ToyStoreSuite) TestMigrationsCreateIndexes() {
	cursor, err := s.coll.Indexes().List(s.ctx)
	require.NoError(s.T(), err)
	var indexes []bson.M
	require.NoError(s.T(), cursor.All(s.ctx, &indexes))

	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		names = append(names, idx["name"].(string))
	}
	assert.ElementsMatch(s.T(), []string{"_id_", "subCategory_1", "sellerEmail_1", "productName_1"}, names)
}

func (s *ToyStoreSuite) TestInsertAndFindByID() {
	// given
	fields := bson.M{
		FieldProductName: "Lego Castle",
		FieldSubCategory: "Lego",
		FieldSellerEmail: "a@example.com",
		FieldPrice:       49.5,
		"rating":         4.5,
		"tags":           bson.A{"castle", "medieval"},
	}

	// when
	id, err := s.store.Insert(s.ctx, fields)
	require.NoError(s.T(), err)
	fetched, err := s.store.FindByID(s.ctx, id)

	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, fetched.ID)
	assert.Equal(s.T(), "Lego Castle", fetched.Fields[FieldProductName])
	assert.Equal(s.T(), 4.5, fetched.Fields["rating"])
	assert.Equal(s.T(), bson.A{"castle", "medieval"}, fetched.Fields["tags"])
	assert.NotContains(s.T(), fetched.Fields, FieldID, "identifier is decoded into ID only")
	assert.NotContains(s.T(), fields, FieldID, "caller's map must not be modified")
}

func (s *ToyStoreSuite) TestFindByID_NotFound() {
	_, err := s.store.FindByID(s.ctx, primitive.NewObjectID())
	require.ErrorIs(s.T(), err, perrors.ErrToyNotFound)
}

func (s *ToyStoreSuite) TestFindAll_Limit() {
	for _, name := range []string{"A", "B", "C"} {
		s.insertToy(name, "Cars", "a@example.com")
	}

	all, err := s.store.FindAll(s.ctx, 20)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 3)

	limited, err := s.store.FindAll(s.ctx, 2)
	require.NoError(s.T(), err)
	assert.Len(s.T(), limited, 2)

	none, err := s.store.FindAll(s.ctx, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), none)
}

func (s *ToyStoreSuite) TestFindBySubCategory_ExactMatch() {
	s.insertToy("Truck", "Cars", "a@example.com")
	s.insertToy("Racer", "Cars", "b@example.com")
	s.insertToy("Teddy", "Plush", "a@example.com")

	toys, err := s.store.FindBySubCategory(s.ctx, "Cars")
	require.NoError(s.T(), err)
	assert.Len(s.T(), toys, 2)

	toys, err = s.store.FindBySubCategory(s.ctx, "cars")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), toys, "category match is case-sensitive")
	assert.NotNil(s.T(), toys)
}

func (s *ToyStoreSuite) TestSearchByName_CaseInsensitiveLiteral() {
	s.insertToy("Lego Castle", "Lego", "a@example.com")
	s.insertToy("Super Car (Red)", "Cars", "a@example.com")
	s.insertToy("Teddy", "Plush", "a@example.com")

	toys, err := s.store.SearchByName(s.ctx, "lego")
	require.NoError(s.T(), err)
	require.Len(s.T(), toys, 1)
	assert.Equal(s.T(), "Lego Castle", toys[0].Fields[FieldProductName])

	toys, err = s.store.SearchByName(s.ctx, "(red)")
	require.NoError(s.T(), err)
	assert.Len(s.T(), toys, 1, "metacharacters are matched literally")

	toys, err = s.store.SearchByName(s.ctx, ".*")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), toys)
}

func (s *ToyStoreSuite) TestFindBySeller() {
	s.insertToy("Truck", "Cars", "a@example.com")
	s.insertToy("Teddy", "Plush", "b@example.com")

	toys, err := s.store.FindBySeller(s.ctx, "a@example.com")
	require.NoError(s.T(), err)
	require.Len(s.T(), toys, 1)
	assert.Equal(s.T(), "Truck", toys[0].Fields[FieldProductName])
}

func (s *ToyStoreSuite) TestUpdateByID() {
	// given
	id := s.insertToy("Truck", "Cars", "a@example.com")
	update := ToyUpdate{Price: 5.25, AvailableQuantity: 7, DetailsDescription: "Red truck"}

	// when
	res, err := s.store.UpdateByID(s.ctx, id, update)

	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), res.MatchedCount)
	assert.Equal(s.T(), int64(1), res.ModifiedCount)
	assert.Zero(s.T(), res.UpsertedCount)

	fetched, err := s.store.FindByID(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5.25, fetched.Fields[FieldPrice])
	assert.Equal(s.T(), int64(7), fetched.Fields[FieldAvailableQuantity])
	assert.Equal(s.T(), "Red truck", fetched.Fields[FieldDetailsDescription])
	assert.Equal(s.T(), "Truck", fetched.Fields[FieldProductName], "other fields are unchanged")

	// an identical update matches but modifies nothing
	res, err = s.store.UpdateByID(s.ctx, id, update)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), res.MatchedCount)
	assert.Zero(s.T(), res.ModifiedCount)
}

func (s *ToyStoreSuite) TestUpdateByID_Missing() {
	res, err := s.store.UpdateByID(s.ctx, primitive.NewObjectID(), ToyUpdate{Price: 1})
	require.NoError(s.T(), err)
	assert.Zero(s.T(), res.MatchedCount)
	assert.Zero(s.T(), res.ModifiedCount)
}

func (s *ToyStoreSuite) TestDeleteByID() {
	id := s.insertToy("Truck", "Cars", "a@example.com")

	deleted, err := s.store.DeleteByID(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), deleted)

	deleted, err = s.store.DeleteByID(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), deleted)

	_, err = s.store.FindByID(s.ctx, id)
	require.ErrorIs(s.T(), err, perrors.ErrToyNotFound)
}

func (s *ToyStoreSuite) TestPing() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
}

//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/consumer"
	listingDomain "github.com/izygear/service-reservation/internal/domain/listing"
	"github.com/izygear/service-reservation/internal/events"
	"github.com/izygear/service-reservation/internal/kafka"
	"github.com/izygear/service-reservation/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// reservationStack holds wired-up reservation service components.
type reservationStack struct {
	Service         *application.ReservationService
	ReviewService   *application.ReviewService
	Consumer        *consumer.SettlementEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_reservation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_reservation sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, db.AutoMigrate(&repository.ReservationModel{}, &repository.UserModel{}))
	require.NoError(t, repository.MigrateListingTables(db))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicReservationEvents, events.TopicPaymentEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupReservationStack wires up the full reservation service stack.
func setupReservationStack(t *testing.T, db *gorm.DB, brokers []string) *reservationStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	reservationRepo := repository.NewGormReservationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	listingStores := repository.NewListingStoreRegistry(db)
	producer := kafka.NewProducer(brokers, logger)

	reservationSvc := application.NewReservationService(reservationRepo, listingStores, userRepo, producer, logger)
	reviewSvc := application.NewReviewService(reservationRepo, listingStores, userRepo, producer, logger)

	groupID := fmt.Sprintf("test-reservation-%s", uuid.New().String()[:8])
	settlementConsumer := consumer.NewSettlementEventConsumer(brokers, groupID, reservationSvc, logger)

	return &reservationStack{
		Service:         reservationSvc,
		ReviewService:   reviewSvc,
		Consumer:        settlementConsumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedListing inserts an active listing into the given category's table.
func seedListing(t *testing.T, db *gorm.DB, category listingDomain.Category, listingID, creatorID uuid.UUID, bookedDates []map[string]interface{}) {
	t.Helper()
	now := time.Now().UTC()

	booked, _ := json.Marshal(bookedDates)
	if bookedDates == nil {
		booked = []byte("[]")
	}

	model := repository.ListingModel{
		ID:                 listingID,
		CreatorID:          creatorID,
		Category:           category.String(),
		Title:              "Test Gear",
		PriceCents:         4500,
		Address:            "12 Trailhead Rd, Boulder, CO",
		Condition:          "good",
		Description:        "integration test listing",
		PhotoURLs:          []byte(`["https://cdn.example.com/gear.jpg"]`),
		BookedDates:        booked,
		Reviews:            []byte("[]"),
		Status:             "active",
		CreatorFirebaseUID: "host-firebase-uid",
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	table := repository.ListingTableName(category)
	require.NoError(t, db.Table(table).Create(&model).Error, "failed to seed listing")
}

// seedUser inserts a user with an empty reservation history.
func seedUser(t *testing.T, db *gorm.DB, userID uuid.UUID, email string) {
	t.Helper()
	now := time.Now().UTC()
	model := repository.UserModel{
		ID:              userID,
		Email:           email,
		Name:            "Test Customer",
		FirebaseUID:     "customer-firebase-uid",
		ReservationList: []byte("[]"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed user")
}

// seedPendingReservation inserts a reservation in "pending" state.
func seedPendingReservation(t *testing.T, db *gorm.DB, reservationID, customerID, hostID, listingID uuid.UUID, category listingDomain.Category) {
	t.Helper()
	now := time.Now().UTC()
	model := repository.ReservationModel{
		ID:                  reservationID,
		CustomerID:          customerID,
		HostID:              hostID,
		ListingID:           listingID,
		Category:            category.String(),
		StartDate:           now.AddDate(0, 0, 7),
		EndDate:             now.AddDate(0, 0, 10),
		TotalPriceCents:     13500,
		Status:              "pending",
		CreatorFirebaseUID:  "host-firebase-uid",
		CustomerFirebaseUID: "customer-firebase-uid",
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed reservation")
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForReservationStatus polls the reservations table until the status matches.
func waitForReservationStatus(t *testing.T, db *gorm.DB, reservationID uuid.UUID, expectedStatus string, timeout time.Duration) repository.ReservationModel {
	t.Helper()
	var result repository.ReservationModel
	require.Eventually(t, func() bool {
		var model repository.ReservationModel
		err := db.Where("id = ?", reservationID).First(&model).Error
		if err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "reservation did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}

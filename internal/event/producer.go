package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonymousminati/finly-backend/internal/domain"
	pkgkafka "github.com/anonymousminati/finly-backend/pkg/kafka"
)

// Kafka topic constants for user domain events.
const (
	TopicUserRegistered      = "finly.user.registered"
	TopicUserPasswordChanged = "finly.user.password_changed"
	TopicUserLoggedOutAll    = "finly.user.logged_out_everywhere"
	TopicTransactionRecorded = "finly.transaction.recorded"
)

// Subject kinds for the envelope.
const (
	SubjectKindUser        = "user"
	SubjectKindTransaction = "transaction"
)

// Source identifier for events originating from this backend.
const SourceFinlyBackend = "finly-backend"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UUID     string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// UserPasswordChangedData is the payload for a user.password_changed event.
type UserPasswordChangedData struct {
	UUID  string `json:"id"`
	Email string `json:"email"`
}

// UserLoggedOutAllData is the payload for a user.logged_out_everywhere event.
type UserLoggedOutAllData struct {
	UUID            string `json:"id"`
	SessionsRevoked int64  `json:"sessions_revoked"`
}

// TransactionRecordedData is the payload for a transaction.recorded event.
type TransactionRecordedData struct {
	TransactionID int64  `json:"transaction_id"`
	UserUUID      string `json:"user_id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		UUID:     user.UUID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}

	env, err := pkgkafka.Seal(ctx, TopicUserRegistered, user.UUID, SubjectKindUser, SourceFinlyBackend, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, env); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	return nil
}

// PublishPasswordChanged publishes a user.password_changed event.
func (p *Producer) PublishPasswordChanged(ctx context.Context, user *domain.User) error {
	data := UserPasswordChangedData{
		UUID:  user.UUID,
		Email: user.Email,
	}

	env, err := pkgkafka.Seal(ctx, TopicUserPasswordChanged, user.UUID, SubjectKindUser, SourceFinlyBackend, data)
	if err != nil {
		return fmt.Errorf("create user.password_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserPasswordChanged, env); err != nil {
		return fmt.Errorf("publish user.password_changed event: %w", err)
	}

	return nil
}

// PublishLoggedOutEverywhere publishes a user.logged_out_everywhere event.
func (p *Producer) PublishLoggedOutEverywhere(ctx context.Context, userUUID string, revoked int64) error {
	data := UserLoggedOutAllData{
		UUID:            userUUID,
		SessionsRevoked: revoked,
	}

	env, err := pkgkafka.Seal(ctx, TopicUserLoggedOutAll, userUUID, SubjectKindUser, SourceFinlyBackend, data)
	if err != nil {
		return fmt.Errorf("create user.logged_out_everywhere event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedOutAll, env); err != nil {
		return fmt.Errorf("publish user.logged_out_everywhere event: %w", err)
	}

	return nil
}

// PublishTransactionRecorded publishes a transaction.recorded event.
func (p *Producer) PublishTransactionRecorded(ctx context.Context, userUUID string, tx *domain.Transaction) error {
	data := TransactionRecordedData{
		TransactionID: tx.ID,
		UserUUID:      userUUID,
		Type:          tx.Type,
		Amount:        tx.Amount,
	}

	env, err := pkgkafka.Seal(ctx, TopicTransactionRecorded, userUUID, SubjectKindTransaction, SourceFinlyBackend, data)
	if err != nil {
		return fmt.Errorf("create transaction.recorded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicTransactionRecorded, env); err != nil {
		return fmt.Errorf("publish transaction.recorded event: %w", err)
	}

	return nil
}

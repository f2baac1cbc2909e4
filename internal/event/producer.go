package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/IdentityGo/pkg/kafka"
)

// Kafka topic constants for identity audit events.
const (
	TopicUserRegistered  = "identity.user.registered"
	TopicUserLogin       = "identity.user.login"
	TopicTokenRefreshed  = "identity.user.token_refreshed"
	TopicUserLoggedOut   = "identity.user.logged_out"
	TopicPasswordChanged = "identity.user.password_changed"
	TopicProfileUpdated  = "identity.user.profile_updated"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the identity service.
const SourceIdentityService = "identity-service"

// AuditData is the shared payload of identity audit events. It carries
// only non-sensitive identifiers: the email appears as its lookup hash,
// never as plaintext.
type AuditData struct {
	UserID    string `json:"user_id"`
	EmailHash string `json:"email_hash,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ProfileUpdatedData is the payload for a profile_updated event. Fields
// lists the names of the changed attributes, not their values.
type ProfileUpdatedData struct {
	UserID string   `json:"user_id"`
	Fields []string `json:"fields"`
}

// Producer publishes identity audit events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new audit event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, data AuditData) error {
	return p.publish(ctx, TopicUserRegistered, data.UserID, data)
}

// PublishUserLogin publishes a user.login event.
func (p *Producer) PublishUserLogin(ctx context.Context, data AuditData) error {
	return p.publish(ctx, TopicUserLogin, data.UserID, data)
}

// PublishTokenRefreshed publishes a token_refreshed event.
func (p *Producer) PublishTokenRefreshed(ctx context.Context, data AuditData) error {
	return p.publish(ctx, TopicTokenRefreshed, data.UserID, data)
}

// PublishUserLoggedOut publishes a logged_out event.
func (p *Producer) PublishUserLoggedOut(ctx context.Context, data AuditData) error {
	return p.publish(ctx, TopicUserLoggedOut, data.UserID, data)
}

// PublishPasswordChanged publishes a password_changed event.
func (p *Producer) PublishPasswordChanged(ctx context.Context, data AuditData) error {
	return p.publish(ctx, TopicPasswordChanged, data.UserID, data)
}

// PublishProfileUpdated publishes a profile_updated event naming the
// changed fields.
func (p *Producer) PublishProfileUpdated(ctx context.Context, data ProfileUpdatedData) error {
	return p.publish(ctx, TopicProfileUpdated, data.UserID, data)
}

func (p *Producer) publish(ctx context.Context, topic, userID string, payload any) error {
	event, err := pkgkafka.NewEvent(topic, userID, AggregateTypeUser, SourceIdentityService, payload)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "audit event published",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)

	return nil
}

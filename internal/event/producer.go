package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinylen2/ellabib-server/internal/domain"
	pkgkafka "github.com/vinylen2/ellabib-server/pkg/kafka"
)

// Kafka topics for review lifecycle and rating events.
var (
	TopicReviewSubmitted   = pkgkafka.Topic("review", "submitted")
	TopicReviewActivated   = pkgkafka.Topic("review", "activated")
	TopicReviewDeleted     = pkgkafka.Topic("review", "deleted")
	TopicBookRatingUpdated = pkgkafka.Topic("book", "rating_updated")
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeBook   = "book"
)

// Source identifier for events originating from this server.
const SourceReviewServer = "ellabib-server"

// ReviewEventData is the payload for review lifecycle events.
type ReviewEventData struct {
	ID           string `json:"id"`
	BookID       string `json:"book_id"`
	UserID       string `json:"user_id"`
	Rating       int    `json:"rating"`
	State        string `json:"state"`
	Completeness string `json:"completeness"`
}

// BookRatingUpdatedData is the payload for a book.rating_updated event.
type BookRatingUpdatedData struct {
	BookID string   `json:"book_id"`
	Rating *float64 `json:"rating"`
}

// Producer publishes review and book domain events to Kafka.
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

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewSubmitted, review)
}

// PublishReviewActivated publishes a review.activated event.
func (p *Producer) PublishReviewActivated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewActivated, review)
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewDeleted, review)
}

// PublishBookRatingUpdated publishes a book.rating_updated event.
func (p *Producer) PublishBookRatingUpdated(ctx context.Context, bookID string, rating *float64) error {
	data := BookRatingUpdatedData{
		BookID: bookID,
		Rating: rating,
	}

	event, err := pkgkafka.NewEvent(TopicBookRatingUpdated, bookID, AggregateTypeBook, SourceReviewServer, data)
	if err != nil {
		return fmt.Errorf("create book.rating_updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookRatingUpdated, event); err != nil {
		return fmt.Errorf("publish book.rating_updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published book.rating_updated event",
		slog.String("book_id", bookID),
	)

	return nil
}

func (p *Producer) publishReview(ctx context.Context, topic string, review *domain.Review) error {
	data := ReviewEventData{
		ID:           review.ID,
		BookID:       review.BookID,
		UserID:       review.UserID,
		Rating:       review.Rating,
		State:        review.State(),
		Completeness: review.Completeness(),
	}

	event, err := pkgkafka.NewEvent(topic, review.ID, AggregateTypeReview, SourceReviewServer, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)

	return nil
}

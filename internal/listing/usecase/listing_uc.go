package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/gammazero/workerpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("listing-service/usecase")

const (
	defaultOperationTimeout = 30 * time.Second
	defaultUploadTimeout    = 5 * time.Minute
	defaultDeleteWorkers    = 8
)

type Config struct {
	Listings domain.ListingRepository
	Users    domain.UserRepository
	Cleanup  domain.CleanupIntentRepository
	Storage  Storage

	// Optional collaborators.
	Cache    ListingCache
	Events   EventPublisher
	Notifier Notifier
	Metrics  *metrics.MetricsManager

	// Pool runs media deletions. When nil the usecase owns a pool of DeleteWorkers workers.
	Pool          *workerpool.WorkerPool
	DeleteWorkers int

	OperationTimeout time.Duration
	UploadTimeout    time.Duration

	Logger *logger.Logger
}

type ListingUsecase struct {
	listings domain.ListingRepository
	users    domain.UserRepository
	cleanup  domain.CleanupIntentRepository
	storage  Storage

	cache    ListingCache
	events   EventPublisher
	notifier Notifier
	metrics  *metrics.MetricsManager

	pool     *workerpool.WorkerPool
	ownsPool bool

	opTimeout     time.Duration
	uploadTimeout time.Duration

	logger *logger.Logger
}

func NewListingUsecase(cfg Config) (*ListingUsecase, error) {
	if cfg.Listings == nil || cfg.Users == nil || cfg.Cleanup == nil || cfg.Storage == nil {
		return nil, errors.New("listing usecase: listings, users, cleanup and storage are required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	uc := &ListingUsecase{
		listings:      cfg.Listings,
		users:         cfg.Users,
		cleanup:       cfg.Cleanup,
		storage:       cfg.Storage,
		cache:         cfg.Cache,
		events:        cfg.Events,
		notifier:      cfg.Notifier,
		metrics:       cfg.Metrics,
		pool:          cfg.Pool,
		opTimeout:     cfg.OperationTimeout,
		uploadTimeout: cfg.UploadTimeout,
		logger:        log.Named("listing_usecase"),
	}
	if uc.opTimeout <= 0 {
		uc.opTimeout = defaultOperationTimeout
	}
	if uc.uploadTimeout <= 0 {
		uc.uploadTimeout = defaultUploadTimeout
	}
	if uc.pool == nil {
		workers := cfg.DeleteWorkers
		if workers <= 0 {
			workers = defaultDeleteWorkers
		}
		uc.pool = workerpool.New(workers)
		uc.ownsPool = true
	}
	return uc, nil
}

// Close waits for in-flight media deletions when the usecase owns its pool.
func (uc *ListingUsecase) Close() {
	if uc.ownsPool {
		uc.pool.StopWait()
	}
}

// CreateListing validates the input, uploads media in order, persists the listing and
// appends it to the owner's index.
func (uc *ListingUsecase) CreateListing(ctx context.Context, ownerID string, in CreateListingInput) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.CreateListing", trace.WithAttributes(
		attribute.String("owner_id", ownerID),
		attribute.Int("media_count", len(in.Media)),
	))
	defer span.End()

	listing, err := validateCreate(in)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	listing.OwnerID = ownerID

	locators, err := uc.uploadAll(ctx, "", in.Media)
	if err != nil {
		uc.logger.Error("Media upload failed, listing not created", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, recordSpanError(span, err)
	}
	listing.Media = locators

	if err := uc.withTimeout(ctx, func(ctx context.Context) error {
		return uc.listings.Create(ctx, listing)
	}); err != nil {
		uc.logger.Error("Failed to persist listing", zap.String("owner_id", ownerID), zap.Error(err))
		uc.recordCleanup(ctx, "", domain.CleanupReasonOrphanedUpload, locators, err)
		return nil, recordSpanError(span, err)
	}
	span.SetAttributes(attribute.String("listing_id", listing.ID))

	if err := uc.withTimeout(ctx, func(ctx context.Context) error {
		return uc.users.AppendListing(ctx, ownerID, listing.ID)
	}); err != nil {
		uc.logger.Error("Listing persisted but owner index not updated",
			zap.String("listing_id", listing.ID), zap.String("owner_id", ownerID), zap.Error(err))
		return nil, recordSpanError(span, err)
	}

	uc.metrics.ListingCreated()
	uc.publish(ctx, SubjectListingCreated, newListingEvent(listing))
	uc.notifyCreated(ctx, listing)

	uc.logger.Info("Listing created",
		zap.String("listing_id", listing.ID),
		zap.String("owner_id", ownerID),
		zap.Int("media_count", len(listing.Media)))
	return listing, nil
}

// FetchOwned returns the caller's listings, newest first. No listings is ErrListingNotFound.
func (uc *ListingUsecase) FetchOwned(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.FetchOwned", trace.WithAttributes(attribute.String("owner_id", ownerID)))
	defer span.End()

	var listings []*domain.Listing
	if err := uc.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		listings, err = uc.listings.FindByOwner(ctx, ownerID)
		return err
	}); err != nil {
		return nil, recordSpanError(span, err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no listings for user %s", domain.ErrListingNotFound, ownerID)
	}
	return listings, nil
}

// FetchByID returns a listing. Unavailable listings require a token to be present.
func (uc *ListingUsecase) FetchByID(ctx context.Context, id string, tokenPresent bool) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.FetchByID", trace.WithAttributes(attribute.String("listing_id", id)))
	defer span.End()

	listing, err := uc.load(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if listing.Status == domain.StatusUnavailable && !tokenPresent {
		return nil, recordSpanError(span, fmt.Errorf("%w: listing is unavailable", domain.ErrUnauthenticated))
	}
	return listing, nil
}

// load reads a listing through the cache.
func (uc *ListingUsecase) load(ctx context.Context, id string) (*domain.Listing, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, id)
		if err != nil {
			uc.logger.Warn("Listing cache read failed", zap.String("listing_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	listing, err := uc.findForMutation(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, listing); err != nil {
			uc.logger.Warn("Listing cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return listing, nil
}

// findForMutation always reads the record store so ownership checks and media merges
// never see a stale cached copy.
func (uc *ListingUsecase) findForMutation(ctx context.Context, id string) (*domain.Listing, error) {
	var listing *domain.Listing
	err := uc.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		listing, err = uc.listings.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrListingNotFound, id)
	}
	return listing, nil
}

func (uc *ListingUsecase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, id); err != nil {
		uc.logger.Warn("Listing cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, event ListingEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, subject, event); err != nil {
		uc.logger.Warn("Failed to publish listing event", zap.String("subject", subject), zap.String("listing_id", event.ListingID), zap.Error(err))
	}
}

// notifyCreated mails the owner in the background. Delivery failures are only logged.
func (uc *ListingUsecase) notifyCreated(ctx context.Context, listing *domain.Listing) {
	if uc.notifier == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, uc.opTimeout)
		defer cancel()

		email, err := uc.users.GetEmailByID(ctx, listing.OwnerID)
		if err != nil || email == "" {
			uc.logger.Warn("Owner email not available, skipping notification", zap.String("owner_id", listing.OwnerID), zap.Error(err))
			return
		}
		if err := uc.notifier.SendListingCreated(ctx, email, listing.Title); err != nil {
			uc.logger.Warn("Failed to send listing created email", zap.String("listing_id", listing.ID), zap.Error(err))
		}
	}()
}

// withTimeout runs fn under the per-operation deadline and reports an expired
// deadline as ErrTimeout.
func (uc *ListingUsecase) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.opTimeout)
	defer cancel()
	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

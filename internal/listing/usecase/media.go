package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UpdateResult struct {
	Listing        *domain.Listing
	FailedRemovals []domain.MediaFailure
}

type DeleteResult struct {
	FailedDeletions []domain.MediaFailure
}

// UpdateListing applies a partial update. New media is uploaded and the record persisted
// before removed media is deleted, so the record never references a deleted object.
// Failed removals are recorded as cleanup intents and reported in the result.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, callerID, id string, in UpdateListingInput) (*UpdateResult, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.UpdateListing", trace.WithAttributes(
		attribute.String("listing_id", id),
		attribute.Int("media_added", len(in.Media)),
		attribute.Int("media_removed", len(in.ImagesRemove)),
	))
	defer span.End()

	listing, err := uc.findForMutation(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if !listing.IsOwnedBy(callerID) {
		uc.logger.Warn("Forbidden listing update",
			zap.String("listing_id", id), zap.String("owner_id", listing.OwnerID), zap.String("caller_id", callerID))
		return nil, recordSpanError(span, fmt.Errorf("%w: not the owner of listing %s", domain.ErrForbidden, id))
	}

	patch, err := validateUpdate(in)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	added, err := uc.uploadAll(ctx, id, in.Media)
	if err != nil {
		uc.logger.Error("Media upload failed, listing not updated", zap.String("listing_id", id), zap.Error(err))
		return nil, recordSpanError(span, err)
	}

	removals := membersToRemove(listing, in.ImagesRemove)
	if skipped := len(in.ImagesRemove) - len(removals); skipped > 0 {
		uc.logger.Info("Ignoring removal locators not attached to the listing", zap.String("listing_id", id), zap.Int("skipped", skipped))
	}

	patch.applyTo(listing)
	listing.Media = append(withoutLocators(listing.Media, removals), added...)

	if err := uc.withTimeout(ctx, func(ctx context.Context) error {
		return uc.listings.Update(ctx, listing)
	}); err != nil {
		uc.logger.Error("Failed to persist listing update", zap.String("listing_id", id), zap.Error(err))
		uc.recordCleanup(ctx, id, domain.CleanupReasonOrphanedUpload, added, err)
		return nil, recordSpanError(span, err)
	}

	failed := uc.deleteAll(ctx, id, removals, domain.CleanupReasonRemovalFailed)

	uc.invalidate(ctx, id)
	uc.metrics.ListingUpdated()
	event := newListingEvent(listing)
	event.Removed = removals
	uc.publish(ctx, SubjectListingUpdated, event)

	uc.logger.Info("Listing updated",
		zap.String("listing_id", id),
		zap.Int("media_added", len(added)),
		zap.Int("media_removed", len(removals)-len(failed)),
		zap.Int("media_remove_failed", len(failed)))
	return &UpdateResult{Listing: listing, FailedRemovals: failed}, nil
}

// DeleteListing deletes every media object, then the record and the owner's index entry.
// Media failures never block the record deletion; they are recorded and reported.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, callerID, id string) (*DeleteResult, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.DeleteListing", trace.WithAttributes(attribute.String("listing_id", id)))
	defer span.End()

	listing, err := uc.findForMutation(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if !listing.IsOwnedBy(callerID) {
		uc.logger.Warn("Forbidden listing delete",
			zap.String("listing_id", id), zap.String("owner_id", listing.OwnerID), zap.String("caller_id", callerID))
		return nil, recordSpanError(span, fmt.Errorf("%w: not the owner of listing %s", domain.ErrForbidden, id))
	}

	failed := uc.deleteAll(ctx, id, listing.Media, domain.CleanupReasonDeleteFailed)

	if err := uc.withTimeout(ctx, func(ctx context.Context) error {
		return uc.listings.Delete(ctx, id)
	}); err != nil {
		uc.logger.Error("Failed to delete listing record", zap.String("listing_id", id), zap.Error(err))
		return nil, recordSpanError(span, err)
	}

	if err := uc.withTimeout(ctx, func(ctx context.Context) error {
		return uc.users.RemoveListing(ctx, listing.OwnerID, id)
	}); err != nil {
		uc.logger.Warn("Listing deleted but owner index not pruned",
			zap.String("listing_id", id), zap.String("owner_id", listing.OwnerID), zap.Error(err))
	}

	uc.invalidate(ctx, id)
	uc.metrics.ListingDeleted()
	uc.publish(ctx, SubjectListingDeleted, ListingEvent{ListingID: id, OwnerID: listing.OwnerID, OccurredAt: time.Now().UTC()})

	uc.logger.Info("Listing deleted",
		zap.String("listing_id", id),
		zap.Int("media_deleted", len(listing.Media)-len(failed)),
		zap.Int("media_delete_failed", len(failed)))
	return &DeleteResult{FailedDeletions: failed}, nil
}

// RemoveImage deletes one object from the store and then drops it from the listing.
// The store delete is attempted even when the locator is not attached to the listing.
func (uc *ListingUsecase) RemoveImage(ctx context.Context, callerID, id, locator string) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.RemoveImage", trace.WithAttributes(attribute.String("listing_id", id)))
	defer span.End()

	if strings.TrimSpace(locator) == "" {
		return nil, recordSpanError(span, fmt.Errorf("%w: image locator", domain.ErrMissingParameter))
	}

	listing, err := uc.findForMutation(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if !listing.IsOwnedBy(callerID) {
		return nil, recordSpanError(span, fmt.Errorf("%w: not the owner of listing %s", domain.ErrForbidden, id))
	}

	if member, ok := resolveMember(listing, locator); ok {
		locator = member
	}

	err = uc.withTimeout(ctx, func(ctx context.Context) error {
		return uc.storage.Delete(ctx, locator)
	})
	uc.metrics.MediaOperation("delete", err)
	if err != nil {
		uc.logger.Error("Failed to delete image", zap.String("listing_id", id), zap.String("locator", locator), zap.Error(err))
		return nil, recordSpanError(span, fmt.Errorf("%w: %w", domain.ErrMediaDeleteFailed, err))
	}

	if listing.HasMedia(locator) {
		listing.Media = withoutLocators(listing.Media, []string{locator})
		if err := uc.withTimeout(ctx, func(ctx context.Context) error {
			return uc.listings.Update(ctx, listing)
		}); err != nil {
			uc.logger.Error("Image deleted but listing not updated", zap.String("listing_id", id), zap.Error(err))
			return nil, recordSpanError(span, err)
		}
	}

	uc.invalidate(ctx, id)
	uc.metrics.ImageRemoved()
	event := newListingEvent(listing)
	event.Removed = []string{locator}
	uc.publish(ctx, SubjectListingMediaRemoved, event)
	return listing, nil
}

// uploadAll stores files in order. On the first failure the objects already stored are
// recorded for cleanup and ErrMediaUploadFailed is returned.
func (uc *ListingUsecase) uploadAll(ctx context.Context, listingID string, files []domain.MediaFile) ([]string, error) {
	locators := make([]string, 0, len(files))
	for i, f := range files {
		loc, err := uc.upload(ctx, f)
		uc.metrics.MediaOperation("upload", err)
		if err != nil {
			uc.recordCleanup(ctx, listingID, domain.CleanupReasonOrphanedUpload, locators, err)
			if domain.IsTimeout(err) {
				err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
			}
			return nil, fmt.Errorf("%w: file %d (%s): %w", domain.ErrMediaUploadFailed, i+1, f.OriginalName, err)
		}
		locators = append(locators, loc)
	}
	return locators, nil
}

func (uc *ListingUsecase) upload(ctx context.Context, f domain.MediaFile) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.uploadTimeout)
	defer cancel()
	return uc.storage.Put(ctx, f.Data, f.ContentType, f.OriginalName)
}

// deleteAll deletes locators concurrently on the worker pool and waits for all of them.
// Failures are returned in input order and recorded as cleanup intents.
func (uc *ListingUsecase) deleteAll(ctx context.Context, listingID string, locators []string, reason string) []domain.MediaFailure {
	if len(locators) == 0 {
		return nil
	}

	errs := make([]error, len(locators))
	var wg sync.WaitGroup
	for i, loc := range locators {
		wg.Add(1)
		uc.pool.Submit(func() {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, uc.opTimeout)
			defer cancel()
			errs[i] = uc.storage.Delete(dctx, loc)
		})
	}
	wg.Wait()

	var failed []domain.MediaFailure
	var intents []*domain.CleanupIntent
	now := time.Now().UTC()
	for i, err := range errs {
		uc.metrics.MediaOperation("delete", err)
		if err == nil {
			continue
		}
		uc.logger.Warn("Media delete failed", zap.String("listing_id", listingID), zap.String("locator", locators[i]), zap.Error(err))
		failed = append(failed, domain.MediaFailure{Locator: locators[i], Err: fmt.Errorf("%w: %w", domain.ErrMediaDeleteFailed, err)})
		intents = append(intents, &domain.CleanupIntent{
			Locator:       locators[i],
			ListingID:     listingID,
			Reason:        reason,
			LastError:     err.Error(),
			CreatedAt:     now,
			NextAttemptAt: now,
		})
	}
	uc.recordIntents(ctx, intents)
	return failed
}

// recordCleanup writes one cleanup intent per locator.
func (uc *ListingUsecase) recordCleanup(ctx context.Context, listingID, reason string, locators []string, cause error) {
	now := time.Now().UTC()
	intents := make([]*domain.CleanupIntent, 0, len(locators))
	for _, loc := range locators {
		ci := &domain.CleanupIntent{
			Locator:       loc,
			ListingID:     listingID,
			Reason:        reason,
			CreatedAt:     now,
			NextAttemptAt: now,
		}
		if cause != nil {
			ci.LastError = cause.Error()
		}
		intents = append(intents, ci)
	}
	uc.recordIntents(ctx, intents)
}

// recordIntents outlives request cancellation. A failure here leaves the objects
// orphaned, so it is logged at error level with every locator.
func (uc *ListingUsecase) recordIntents(ctx context.Context, intents []*domain.CleanupIntent) {
	if len(intents) == 0 {
		return
	}
	err := uc.withTimeout(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return uc.cleanup.Record(ctx, intents...)
	})
	if err != nil {
		locators := make([]string, 0, len(intents))
		for _, ci := range intents {
			locators = append(locators, ci.Locator)
		}
		uc.logger.Error("Failed to record media cleanup intents", zap.Strings("locators", locators), zap.Error(err))
		return
	}
	uc.metrics.CleanupIntent("recorded", len(intents))
}

// resolveMember finds the media entry a caller-supplied locator refers to. Besides the
// exact locator it accepts its URL-encoded form and the bare object key (the last path
// segment), so the entry dropped from the listing is the one whose object gets deleted.
func resolveMember(l *domain.Listing, locator string) (string, bool) {
	if l.HasMedia(locator) {
		return locator, true
	}
	if decoded, err := url.PathUnescape(locator); err == nil {
		if l.HasMedia(decoded) {
			return decoded, true
		}
		locator = decoded
	}
	if locator == "" || strings.Contains(locator, "/") {
		return "", false
	}
	for _, m := range l.Media {
		if strings.HasSuffix(m, "/"+locator) {
			return m, true
		}
	}
	return "", false
}

// membersToRemove resolves the requested removals against the listing's media
// and drops duplicates and locators the listing does not own.
func membersToRemove(l *domain.Listing, requested []string) []string {
	seen := make(map[string]struct{}, len(requested))
	var out []string
	for _, raw := range requested {
		loc, ok := resolveMember(l, raw)
		if !ok {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	return out
}

func withoutLocators(media, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		drop[r] = struct{}{}
	}
	out := make([]string, 0, len(media))
	for _, m := range media {
		if _, ok := drop[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}

package rest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/rest/middleware"
	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/listing/usecase"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ListingService is the listing lifecycle as seen by the HTTP layer.
type ListingService interface {
	CreateListing(ctx context.Context, ownerID string, in usecase.CreateListingInput) (*domain.Listing, error)
	FetchOwned(ctx context.Context, ownerID string) ([]*domain.Listing, error)
	FetchByID(ctx context.Context, id string, tokenPresent bool) (*domain.Listing, error)
	UpdateListing(ctx context.Context, callerID, id string, in usecase.UpdateListingInput) (*usecase.UpdateResult, error)
	DeleteListing(ctx context.Context, callerID, id string) (*usecase.DeleteResult, error)
	RemoveImage(ctx context.Context, callerID, id, locator string) (*domain.Listing, error)
}

// ListingHandler serves the /listings routes.
type ListingHandler struct {
	service ListingService
	limits  FormLimits
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewListingHandler(service ListingService, limits FormLimits, m *metrics.MetricsManager, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		limits:  limits,
		metrics: m,
		logger:  log.Named("http"),
	}
}

// HandleCreateListing handles POST /listings/add.
func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	form, err := readListingForm(w, r, h.limits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	listing, err := h.service.CreateListing(r.Context(), userID, usecase.CreateListingInput{
		Title:       form.value("title"),
		Description: form.value("description"),
		Rent:        form.value("rent"),
		Rooms:       form.value("rooms"),
		Location:    form.value("location"),
		Status:      form.value("status"),
		Media:       form.files,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

// HandleListOwned handles GET /listings/.
func (h *ListingHandler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	listings, err := h.service.FetchOwned(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// HandleGetListing handles GET /listings/{id}. Unavailable listings need a token.
func (h *ListingHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := h.service.FetchByID(r.Context(), id, middleware.TokenPresent(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleUpdateListing handles PUT /listings/{id}. The body is either multipart with the
// changes as JSON in the "data" field plus optional media files, or plain JSON.
func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var (
		raw   []byte
		files []domain.MediaFile
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFieldSize))
		if err != nil {
			h.writeError(w, r, formError(err))
			return
		}
		raw = body
	} else {
		form, err := readListingForm(w, r, h.limits)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		raw = []byte(form.value(dataField))
		files = form.files
	}

	payload, err := decodeUpdatePayload(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	in := usecase.UpdateListingInput{
		Title:        payload.Title,
		Description:  payload.Description,
		Rooms:        payload.Rooms,
		Location:     payload.Location,
		Status:       payload.Status,
		ImagesRemove: payload.ImagesRemove,
		Media:        files,
	}
	if payload.Rent != nil {
		rent := string(*payload.Rent)
		in.Rent = &rent
	}

	result, err := h.service.UpdateListing(r.Context(), userID, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updateResponse{
		Listing:        toListingResponse(result.Listing),
		FailedRemovals: toFailureResponses(result.FailedRemovals),
	})
}

// HandleDeleteListing handles DELETE /listings/{id}.
func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	result, err := h.service.DeleteListing(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deleteResponse{
		Message:         "Listing successfully removed.",
		FailedDeletions: toFailureResponses(result.FailedDeletions),
	})
}

// HandleRemoveImage handles DELETE /listings/{id}/{imageName}. imageName is the
// URL-encoded media locator.
func (h *ListingHandler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	locator := chi.URLParam(r, "imageName")
	if decoded, err := url.PathUnescape(locator); err == nil {
		locator = decoded
	} else {
		h.logger.Debug("Image locator is not valid percent-encoding, using it as sent",
			zap.String("listing_id", id), zap.Error(err))
	}

	listing, err := h.service.RemoveImage(r.Context(), userID, id, locator)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, removeImageResponse{
		Message: "Image successfully removed.",
		Listing: toListingResponse(listing),
	})
}

func (h *ListingHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ListingHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, fmt.Errorf("%w: no route for %s %s", errNoRoute, r.Method, r.URL.Path))
}

package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/rest/middleware"
	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"go.uber.org/zap"
)

var (
	errTooManyFiles = errors.New("too many media files")
	errFileTooLarge = errors.New("media file too large")
	errBadForm      = errors.New("malformed request body")
	errNoRoute      = errors.New("route not found")
)

type listingResponse struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rent        float64   `json:"rent"`
	Rooms       string    `json:"rooms"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Media       []string  `json:"media"`
	User        string    `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type mediaFailureResponse struct {
	Locator string `json:"locator"`
	Error   string `json:"error"`
}

type updateResponse struct {
	Listing        listingResponse        `json:"listing"`
	FailedRemovals []mediaFailureResponse `json:"failedRemovals"`
}

type deleteResponse struct {
	Message         string                 `json:"message"`
	FailedDeletions []mediaFailureResponse `json:"failedDeletions"`
}

type removeImageResponse struct {
	Message string          `json:"message"`
	Listing listingResponse `json:"listing"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	media := l.Media
	if media == nil {
		media = []string{}
	}
	return listingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Rent:        l.Rent,
		Rooms:       string(l.Rooms),
		Location:    l.Location,
		Status:      string(l.Status),
		Media:       media,
		User:        l.OwnerID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toListingResponses(ls []*domain.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingResponse(l))
	}
	return out
}

// Failure causes stay in the logs; clients only see which locators were left behind.
func toFailureResponses(failures []domain.MediaFailure) []mediaFailureResponse {
	out := make([]mediaFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, mediaFailureResponse{Locator: f.Locator, Error: domain.ErrMediaDeleteFailed.Error()})
	}
	return out
}

// errorResponse maps an error to its status, client message and metric label.
// Timeouts are checked first since they may wrap any other kind.
func errorResponse(err error) (status int, msg, kind string) {
	switch {
	case domain.IsTimeout(err):
		return http.StatusGatewayTimeout, "Request timed out.", "timeout"
	case errors.Is(err, errTooManyFiles), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error(), "too_large"
	case errors.Is(err, errNoRoute):
		return http.StatusNotFound, "Not found.", "no_route"
	case errors.Is(err, errBadForm):
		return http.StatusBadRequest, err.Error(), "bad_request"
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, err.Error(), "missing_fields"
	case errors.Is(err, domain.ErrInvalidType):
		return http.StatusBadRequest, err.Error(), "invalid_type"
	case errors.Is(err, domain.ErrInvalidEnum):
		return http.StatusBadRequest, err.Error(), "invalid_enum"
	case errors.Is(err, domain.ErrNoMedia):
		return http.StatusBadRequest, err.Error(), "no_media"
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return http.StatusBadRequest, err.Error(), "unsupported_media_type"
	case errors.Is(err, domain.ErrMissingParameter):
		return http.StatusBadRequest, err.Error(), "missing_parameter"
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token is blacklisted", "token_revoked"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized", "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden", "forbidden"
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound, "Listing not found.", "not_found"
	case errors.Is(err, domain.ErrOwnerNotFound):
		return http.StatusNotFound, "User not found.", "owner_not_found"
	case errors.Is(err, domain.ErrMediaUploadFailed):
		return http.StatusInternalServerError, "Error uploading files to storage.", "media_upload"
	case errors.Is(err, domain.ErrMediaDeleteFailed):
		return http.StatusInternalServerError, "Failed to remove image from storage.", "media_delete"
	default:
		return http.StatusInternalServerError, "Internal server error.", "internal"
	}
}

func (h *ListingHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ListingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, kind := errorResponse(err)
	h.metrics.APIError(middleware.RoutePattern(r), kind)

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Debug("Request rejected", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

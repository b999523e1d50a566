package helpers

import (
	"errors"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// identityKey is where the auth middleware parks the caller's identity.
const identityKey = "identity"

// SetIdentity stores the authenticated caller id on the request context.
func SetIdentity(c *gin.Context, id string) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller id set by the auth middleware, or ""
// for anonymous requests.
func IdentityFrom(c *gin.Context) string {
	id, _ := c.Get(identityKey)
	s, _ := id.(string)
	return s
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, "validation", err)
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to an HTTP status code and a
// machine-readable reason.
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing_not_found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no_bids"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid_too_low"
	case errors.Is(err, auctionerrors.ErrAlreadyLiked):
		return http.StatusConflict, "already_liked"
	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "not_owner"
	case errors.Is(err, auctionerrors.ErrInvalidListing),
		errors.Is(err, auctionerrors.ErrInvalidBid),
		errors.Is(err, auctionerrors.ErrInvalidComment):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, auctionerrors.ErrStorageFailure):
		return http.StatusServiceUnavailable, "storage_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// JSONBidTooLow reports a rejected bid together with the price the
// proposal failed to exceed.
func JSONBidTooLow(c *gin.Context, err error, tooLow *auctionerrors.BidTooLowError) {
	c.JSON(http.StatusConflict, gin.H{
		"status":        http.StatusConflict,
		"reason":        "bid_too_low",
		"errors":        []string{err.Error()},
		"current_price": tooLow.CurrentPrice.String(),
	})
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

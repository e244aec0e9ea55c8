package handlers

import (
	"errors"
	"log"

	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/core/terminal"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

var notFoundErrors = []error{
	domain.ErrNotFound,
	services.ErrUserNotFound,
	services.ErrProductNotFound,
	services.ErrRecipeNotFound,
	services.ErrTabNotFound,
	services.ErrTabItemNotFound,
	services.ErrSaleNotFound,
	services.ErrReminderNotFound,
	services.ErrAlertNotFound,
	services.ErrNotificationNotFound,
	services.ErrInviteNotFound,
	services.ErrCheckoutNotFound,
	services.ErrNoStoredKey,
}

var badRequestErrors = []error{
	domain.ErrInvalidInput,
	services.ErrMissingFields,
	services.ErrWeakPassword,
	services.ErrInviteRequired,
	services.ErrInviteInvalid,
	services.ErrInvalidInviteRole,
	services.ErrInvalidInviteTTL,
	services.ErrInvalidRole,
	services.ErrOldPasswordWrong,
	services.ErrProductName,
	services.ErrInvalidQuantity,
	services.ErrNegativeQuantity,
	services.ErrNegativePrice,
	services.ErrRestockAmount,
	services.ErrEmptyImport,
	services.ErrRecipeName,
	services.ErrRecipeIngredient,
	services.ErrTabName,
	services.ErrTabEmpty,
	services.ErrSaleEmpty,
	services.ErrSaleItem,
	services.ErrInvalidPayMethod,
	services.ErrCardNeedsCheckout,
	services.ErrReminderTitle,
	services.ErrInvalidSecretKey,
	services.ErrInvalidPublishableKey,
	services.ErrKeyModeMismatch,
	services.ErrCurrencyMismatch,
	services.ErrAmountPrecision,
	services.ErrMissingIntentID,
	services.ErrCheckoutAmount,
	services.ErrPurgeNotConfirmed,
	services.ErrUnknownReport,
	terminal.ErrInvalidAmount,
}

var conflictErrors = []error{
	domain.ErrDuplicateEntry,
	services.ErrUserAlreadyExists,
	services.ErrEmailAlreadyExists,
	services.ErrBarcodeTaken,
	services.ErrTabNotOpen,
	services.ErrAlertClosed,
}

var forbiddenErrors = []error{
	domain.ErrForbidden,
	services.ErrIntentForbidden,
	services.ErrCannotDeleteSelf,
	services.ErrCannotChangeOwnRole,
	services.ErrRoleAboveOwn,
	services.ErrUserInactive,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// fail maps a service error to a response. Unknown errors are logged and
// answered with fallback so internals never reach the client.
func fail(c *fiber.Ctx, err error, fallback string) error {
	var importErr *services.ImportError
	var termErr *terminal.Error

	switch {
	case errors.As(err, &importErr):
		return response.ValidationFailed(c, "Import rejected; nothing was written", importErr.Rows)
	case errors.Is(err, domain.ErrPaymentsNotConfigured), errors.Is(err, domain.ErrAnalyticsNotConfigured):
		return response.ServiceUnavailable(c, err.Error())
	case isAny(err, forbiddenErrors):
		return response.Forbidden(c, err.Error())
	case isAny(err, notFoundErrors):
		return response.NotFound(c, err.Error())
	case isAny(err, conflictErrors):
		return response.Conflict(c, err.Error())
	case isAny(err, badRequestErrors):
		return response.BadRequest(c, err.Error())
	case errors.As(err, &termErr):
		log.Printf("⚠️ terminal error on %s %s: %v", c.Method(), c.Path(), err)
		return response.Unprocessable(c, termErr.UserMessage())
	default:
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, fallback)
	}
}

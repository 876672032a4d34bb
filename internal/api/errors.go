package api

import (
	"errors"
	"net/http"

	"github.com/example/celulex-store/internal/auth"
	"github.com/example/celulex-store/internal/cart"
	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/checkout"
)

// respondDomainError maps domain errors onto HTTP statuses. Every outcome in
// the taxonomy is user-displayable, so the error text goes straight through.
func respondDomainError(w http.ResponseWriter, err error) {
	respondJSONError(w, err.Error(), statusForError(err))
}

func statusForError(err error) int {
	var validationErr *checkout.ValidationError
	var stockErr *checkout.InsufficientStockError

	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock):
		return http.StatusBadRequest
	case errors.As(err, &stockErr):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

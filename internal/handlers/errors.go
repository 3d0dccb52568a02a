// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/utils"
)

// respondError maps the service error taxonomy onto HTTP responses. Anything
// unrecognized is treated as an infrastructure failure, never a silent 4xx.
func respondError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		utils.BadRequestResponse(c, validationErr.Message, gin.H{"field": validationErr.Field})
		return
	}

	var authErr *apperrors.AuthorizationError
	if errors.As(err, &authErr) {
		utils.ForbiddenResponse(c, authErr.Message)
		return
	}

	var notFoundErr *apperrors.NotFoundError
	if errors.As(err, &notFoundErr) {
		utils.NotFoundResponse(c, notFoundErr.Resource)
		return
	}

	var stateErr *apperrors.StateError
	if errors.As(err, &stateErr) {
		utils.ConflictResponse(c, stateErr.Message)
		return
	}

	utils.InternalErrorResponse(c, "")
}

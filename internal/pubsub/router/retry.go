package router

import (
	"encoding/json"
	"net"

	"github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
)

func shouldRetry(logger *logger.Logger, err error) bool {
	// Malformed payloads never decode on a second attempt
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		logger.Debugw("non-retryable payload error", "error", err)
		return false
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	// Business logic errors (don't retry)
	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsPermissionDenied(err) ||
		errors.IsInvalidTransition(err) ||
		errors.IsConflict(err) {
		return false
	}

	// By default, retry unknown errors
	return true
}

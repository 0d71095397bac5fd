// Package handlers is the HTTP boundary: request decoding, service calls and
// response shaping. All error-to-status translation lives in RespondError.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
)

// RespondError maps a service error to its HTTP status and JSON body. The
// key-not-found case carries the full document back so clients can reconcile
// without a second read.
func RespondError(c *gin.Context, err error) {
	var knf *apperr.KeyNotFoundError
	if errors.As(err, &knf) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     knf.Error(),
			"full_data": knf.Doc,
		})
		return
	}

	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)

	msg := "internal server error"
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" && code != apperr.CodeInternal {
		msg = ae.Message
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg, "code": string(code)})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

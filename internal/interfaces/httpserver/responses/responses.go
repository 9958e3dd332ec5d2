package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/infrastructure/logger"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// HandleError maps an error to an HTTP response. Platform errors carry their
// own type and UUID; anything else becomes an internal error.
func HandleError(c *gin.Context, err error, message string) {
	log := logger.GetLogger()

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		platformerrors.LogError(log, platformErr)
		c.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), ErrorResponse{
			Error: &ErrorDetail{
				Message: message,
				Type:    errorTypeToString(platformErr.Type),
				Code:    platformErr.UUID,
			},
		})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: &ErrorDetail{
			Message: message,
			Type:    "internal_error",
		},
	})
}

// HandleNewError writes a typed error response without an underlying error.
// Use this for route-level failures like binding or authorization.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message, code string) {
	c.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(errorType), ErrorResponse{
		Error: &ErrorDetail{
			Message: message,
			Type:    errorTypeToString(errorType),
			Code:    code,
		},
	})
}

// HandleErrorWithStatus writes an error response with an explicit status code.
func HandleErrorWithStatus(c *gin.Context, statusCode int, err error, message string) {
	if err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error: &ErrorDetail{
			Message: message,
			Type:    statusToErrorType(statusCode),
		},
	})
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized_error"
	case http.StatusForbidden:
		return "forbidden_error"
	case http.StatusNotFound:
		return "not_found_error"
	case http.StatusConflict:
		return "conflict_error"
	default:
		return "internal_error"
	}
}

func errorTypeToString(t platformerrors.ErrorType) string {
	switch t {
	case platformerrors.ErrorTypeNotFound:
		return "not_found_error"
	case platformerrors.ErrorTypeValidation:
		return "validation_error"
	case platformerrors.ErrorTypeConflict:
		return "conflict_error"
	case platformerrors.ErrorTypeUnauthorized:
		return "unauthorized_error"
	case platformerrors.ErrorTypeForbidden:
		return "forbidden_error"
	case platformerrors.ErrorTypeExternal:
		return "external_error"
	default:
		return "internal_error"
	}
}

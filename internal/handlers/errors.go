package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by dto requests.
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", validators.NotBlank)
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Status: status, Message: msg})
}

// respondError maps service errors to HTTP statuses. Anything unrecognised is
// a 500 with a generic message; the cause is logged.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dom.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, dom.ErrInvalidArgument):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "internal server error")
	}
}

// bindError renders a ShouldBindJSON failure as a 400 with a readable message.
func bindError(c *gin.Context, err error) {
	var (
		verrs   validator.ValidationErrors
		syntax  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		writeError(c, http.StatusBadRequest, "request body is required")
	case errors.As(err, &verrs):
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		writeError(c, http.StatusBadRequest, strings.Join(msgs, "; "))
	case errors.As(err, &syntax):
		writeError(c, http.StatusBadRequest, fmt.Sprintf("malformed JSON at offset %d", syntax.Offset))
	case errors.As(err, &typeErr):
		writeError(c, http.StatusBadRequest, fmt.Sprintf("%s: expected %s", typeErr.Field, typeErr.Type))
	default:
		writeError(c, http.StatusBadRequest, err.Error())
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": is required"
	case "notblank":
		return fe.Field() + ": must not be blank"
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}

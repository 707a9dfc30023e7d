// Package respond writes JSON error responses for handlers.
package respond

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"freelancer-hub/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Error maps err to a status and writes {"error": ...}. Internal errors are
// logged and replaced by a generic message.
func Error(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": ae.Message}
	if len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	c.JSON(apperr.Status(ae), body)
}

// BindError turns a ShouldBindJSON failure into a 400 with field errors.
func BindError(c *gin.Context, err error) {
	Error(c, Validation(err))
}

// Validation converts validator errors into an apperr validation error.
func Validation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonField(fe)] = fe.Tag()
		}
		return apperr.Validation("Invalid input", fields)
	}
	return apperr.Validation("Malformed request body", nil)
}

// jsonField is the field path as the client sent it, without the root struct.
func jsonField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

// ParamID reads a positive integer path parameter.
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := parseUint(c.Param(name))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// QueryID reads a positive integer query parameter.
func QueryID(c *gin.Context, name string) (uint, bool) {
	id, err := parseUint(c.Query(name))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

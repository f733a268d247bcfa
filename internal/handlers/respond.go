package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/middleware"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// Report request fields by their wire names rather than Go field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

// respondError answers with the status and message that match err's kind.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindUnexpected {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextRequestID),
			"path":       c.FullPath(),
		}).Error("Request failed")
	}
	_ = c.Error(err)
	c.JSON(kind.HTTPStatus(), utils.ErrorResponse(domain.PublicMessage(err)))
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, utils.SuccessResponse(message, data))
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, utils.SuccessResponse(message, data))
}

var fieldRules = map[string]string{
	"required": "required",
	"email":    "not a valid email",
	"oneof":    "not an allowed value",
	"min":      "too short or too small",
	"max":      "too long or too large",
	"gt":       "too small",
	"gte":      "too small",
	"lte":      "too large",
}

// bindingError turns a gin binding failure into a validation error naming
// the first offending field.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule, ok := fieldRules[fe.Tag()]
		if !ok {
			rule = "invalid"
		}
		return domain.Validation("%s is %s", fe.Field(), rule)
	}
	return domain.Validation("Invalid request body")
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

// bind picks JSON or form binding from the Content-Type.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

func pathID(c *gin.Context, param, what string) (primitive.ObjectID, bool) {
	id, err := domain.ParseID(c.Param(param), what)
	if err != nil {
		respondError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.Validation("%s must be a number", key)
	}
	return &v, nil
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor := middleware.Actor(c)
	if actor.UserID.IsZero() {
		respondError(c, domain.Unauthorized("Authentication required"))
		return actor, false
	}
	return actor, true
}

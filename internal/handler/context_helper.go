package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
	"github.com/noah-isme/scholarship-api/pkg/response"
)

// actorFromContext returns the verified caller; the zero Actor when the route
// is not behind the JWT middleware.
func actorFromContext(c *gin.Context) models.Actor {
	return middleware.ClaimsFrom(c).Actor()
}

// bindJSON decodes the body into dest and writes a 400 on failure. An empty
// body is accepted for requests whose fields are all optional.
func bindJSON(c *gin.Context, dest interface{}, allowEmpty bool) bool {
	if allowEmpty && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return false
	}
	return true
}

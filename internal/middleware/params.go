package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
)

// RequireIDParam parses the :id path parameter. Malformed ids are answered
// with 404, the same as ids that do not exist or belong to someone else.
func RequireIDParam(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.NotFound(c, resource+" not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIDParam, id)
		c.Next()
	}
}

// GetIDParam returns the id parsed by RequireIDParam
func GetIDParam(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeyIDParam)
}

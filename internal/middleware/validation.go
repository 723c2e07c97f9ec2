package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/volunnet/volunnet/internal/app/models/dto"
)

const validatedBodyKey = "validatedBody"

// ValidateRequest binds and validates the JSON body into a fresh T for every request.
// Handlers read it back with ValidatedBody.
func ValidateRequest[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := new(T)
		if err := c.ShouldBindJSON(body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}

		c.Set(validatedBodyKey, body)
		c.Next()
	}
}

// ValidatedBody returns the body stored by ValidateRequest[T], or nil when the route does not use it
func ValidatedBody[T any](c *gin.Context) *T {
	value, exists := c.Get(validatedBodyKey)
	if !exists {
		return nil
	}
	body, _ := value.(*T)
	return body
}

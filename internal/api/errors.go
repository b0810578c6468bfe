package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/socialgate/internal/domain"
)

// writeError renders err as the uniform 400 body. Every handler failure is a
// 400; code distinguishes them.
func writeError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  domain.KindOf(err),
	})
}

func writeDispatchError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    domain.KindOf(err),
	})
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/cartcookie"
)

const ctxKeyCartCount = "cart_count"

// CartCount exposes the number of items in the cart cookie to the layout.
func CartCount(ck *cartcookie.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyCartCount, ck.Get(c).Count())
		c.Next()
	}
}

func GetCartCount(c *gin.Context) int { return c.GetInt(ctxKeyCartCount) }

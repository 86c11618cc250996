package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

func Home() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "coffeeshop", "status": "ok"})
	}
}

// Health checks each dependency and answers 503 when any of them fails.
func Health(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /health"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		status := http.StatusOK
		report := make(gin.H, len(checks))
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}

		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
	}
}

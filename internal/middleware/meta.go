package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey   = "response_meta"
	gradingSystemKey  = "grading_system"
	processingTimeKey = "processing_time_ms"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta[processingTimeKey]; !exists {
			meta[processingTimeKey] = time.Since(start).Milliseconds()
		}
	}
}

// SetGradingSystem records which grading system served the request.
func SetGradingSystem(c *gin.Context, code string, version int) {
	meta := ensureMeta(c)
	meta[gradingSystemKey] = map[string]interface{}{"code": code, "version": version}
}

// SetProcessingTime records the handler's processing time.
func SetProcessingTime(c *gin.Context, d time.Duration) {
	ensureMeta(c)[processingTimeKey] = d.Milliseconds()
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}

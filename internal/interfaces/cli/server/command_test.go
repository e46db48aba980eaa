package server

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMapEnvToGinMode(t *testing.T) {
	tests := map[string]string{
		"production":  gin.ReleaseMode,
		"prod":        gin.ReleaseMode,
		"release":     gin.ReleaseMode,
		"development": gin.DebugMode,
		"dev":         gin.DebugMode,
		"test":        gin.TestMode,
		"testing":     gin.TestMode,
		"staging":     gin.DebugMode,
	}

	for env, want := range tests {
		t.Run(env, func(t *testing.T) {
			assert.Equal(t, want, mapEnvToGinMode(env))
		})
	}
}

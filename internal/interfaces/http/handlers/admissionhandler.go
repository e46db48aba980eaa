package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdmissionHandler answers forward-auth requests from the proxy in front of
// the portal. The rate limit middleware has already decided by the time it
// runs, so reaching it means the request is admitted.
type AdmissionHandler struct{}

func NewAdmissionHandler() *AdmissionHandler {
	return &AdmissionHandler{}
}

// Admit handles ANY /api/admission/:endpoint
func (h *AdmissionHandler) Admit(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

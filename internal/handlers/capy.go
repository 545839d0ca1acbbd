package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/happycapy/capy-community-backend/internal/services"
)

type CapyHandler struct {
	capyService services.CapyService
}

func NewCapyHandler(capyService services.CapyService) *CapyHandler {
	return &CapyHandler{capyService: capyService}
}

// Get returns {"capy": null} rather than 404 when the user has not created
// an agent yet, so clients can branch without treating it as an error.
func (ch *CapyHandler) Get(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	agent, err := ch.capyService.GetForUser(c.Request.Context(), user)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"capy": agent})
}

func (ch *CapyHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	var input services.CreateCapyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	agent, err := ch.capyService.Create(c.Request.Context(), user, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"capy": agent})
}

func (ch *CapyHandler) ListRecommendations(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	recs, err := ch.capyService.ListRecommendations(c.Request.Context(), user, queryInt(c, "limit"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

func (ch *CapyHandler) GenerateRecommendations(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	recs, err := ch.capyService.GenerateRecommendations(c.Request.Context(), user)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

func (ch *CapyHandler) ListInteractions(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	interactions, err := ch.capyService.ListInteractions(c.Request.Context(), user, queryInt(c, "limit"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"interactions": interactions})
}

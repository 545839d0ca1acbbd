package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/happycapy/capy-community-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	me, err := uh.userService.GetMe(c.Request.Context(), user)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"me": me})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/happycapy/capy-community-backend/internal/services"
)

type CommentHandler struct {
	commentService services.CommentService
}

func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (ch *CommentHandler) List(c *gin.Context) {
	comments, pagination, err := ch.commentService.ListByPost(
		c.Request.Context(),
		c.Query("post_id"),
		queryInt(c, "page"),
		queryInt(c, "limit"),
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"comments": comments, "pagination": pagination})
}

func (ch *CommentHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	var input services.CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	comment, err := ch.commentService.Create(c.Request.Context(), user, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"comment": comment})
}

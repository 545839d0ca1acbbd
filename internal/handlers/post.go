package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/requestdata"
	"github.com/happycapy/capy-community-backend/internal/services"
	"github.com/happycapy/capy-community-backend/internal/types"
)

type PostHandler struct {
	postService services.PostService
}

func NewPostHandler(postService services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (ph *PostHandler) List(c *gin.Context) {
	params := repos.ListPostsParams{
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
	}
	posts, pagination, err := ph.postService.List(c.Request.Context(), params)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"posts": posts, "pagination": pagination})
}

func (ph *PostHandler) Get(c *gin.Context) {
	post, err := ph.postService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"post": post})
}

func (ph *PostHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	var input services.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	post, err := ph.postService.Create(c.Request.Context(), user, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"post": post})
}

func (ph *PostHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		RespondError(c, http.StatusForbidden, "unauthorized", nil)
		return
	}
	if err := ph.postService.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func currentUser(c *gin.Context) *types.User {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		return nil
	}
	return rd.User
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

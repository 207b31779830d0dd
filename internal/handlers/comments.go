package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"realworld/internal/metrics"
	"realworld/internal/middlewares"
)

type addCommentRequest struct {
	Comment struct {
		Body string `json:"body" binding:"required"`
	} `json:"comment"`
}

// @Summary      评论列表
// @Tags         comments
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Success      200 {object} map[string][]services.CommentView
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug}/comments [get]
func (h *Handler) listComments(c *gin.Context) {
	list, err := h.comments.List(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

// @Summary      发表评论
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Param        body body addCommentRequest true "{comment:{body}}"
// @Success      201 {object} map[string]services.CommentView
// @Failure      404 {object} map[string]interface{}
// @Failure      422 {object} map[string]interface{}
// @Router       /api/articles/{slug}/comments [post]
func (h *Handler) addComment(c *gin.Context) {
	var req addCommentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	cm, err := h.comments.Create(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c), req.Comment.Body)
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	metrics.CommentsPosted.Inc()
	c.JSON(http.StatusCreated, gin.H{"comment": cm})
}

// deleteComment 评论必须属于该 slug 对应的文章且由当前用户发表。
// @Summary      删除评论（仅作者）
// @Tags         comments
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Param        id   path int    true "评论 ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug}/comments/{id} [delete]
func (h *Handler) deleteComment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		writeErrors(c, http.StatusNotFound, commentNotOwned)
		return
	}
	if err := h.comments.Delete(c.Request.Context(), c.Param("slug"), id, middlewares.ViewerID(c)); err != nil {
		respondError(c, err, commentNotOwned)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": commentDeletedMsg})
}

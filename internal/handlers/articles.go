package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realworld/internal/metrics"
	"realworld/internal/middlewares"
	"realworld/internal/services"
)

const (
	articleNotFound   = "Article not found"
	articleNotOwned   = "Article not found or you are not the author"
	commentNotOwned   = "Comment not found or you are not the author"
	articleDeletedMsg = "Article successfully deleted"
	commentDeletedMsg = "Comment successfully deleted"
)

type createArticleRequest struct {
	Article struct {
		Title       string   `json:"title" binding:"required,max=255"`
		Description string   `json:"description" binding:"required"`
		Body        string   `json:"body" binding:"required"`
		TagList     []string `json:"tagList" binding:"omitempty,dive,required,max=190"`
	} `json:"article"`
}

type updateArticleRequest struct {
	Article struct {
		Title       *string   `json:"title" binding:"omitempty,max=255"`
		Description *string   `json:"description"`
		Body        *string   `json:"body"`
		TagList     *[]string `json:"tagList" binding:"omitempty,dive,required,max=190"`
	} `json:"article"`
}

// listArticles 文章列表：支持 tag/author/favorited 过滤与 limit/offset 分页。
// @Summary      文章列表
// @Tags         articles
// @Produce      json
// @Param        tag       query string false "标签"
// @Param        author    query string false "作者用户名"
// @Param        favorited query string false "收藏者用户名"
// @Param        limit     query int    false "每页数量（默认 20）"
// @Param        offset    query int    false "偏移量（默认 0）"
// @Success      200 {object} services.ArticlePage
// @Router       /api/articles [get]
func (h *Handler) listArticles(c *gin.Context) {
	limit, offset := h.pagination(c)
	page, err := h.articles.List(c.Request.Context(), services.ListArticlesInput{
		Tag:         c.Query("tag"),
		Author:      c.Query("author"),
		FavoritedBy: c.Query("favorited"),
		Limit:       limit,
		Offset:      offset,
	}, middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	c.JSON(http.StatusOK, page)
}

// feed 关注作者的文章流。
// @Summary      订阅流
// @Tags         articles
// @Produce      json
// @Param        limit  query int false "每页数量（默认 20）"
// @Param        offset query int false "偏移量（默认 0）"
// @Success      200 {object} services.ArticlePage
// @Failure      401 {object} map[string]interface{}
// @Router       /api/articles/feed [get]
func (h *Handler) feed(c *gin.Context) {
	limit, offset := h.pagination(c)
	page, err := h.articles.Feed(c.Request.Context(), middlewares.ViewerID(c), limit, offset)
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary      文章详情
// @Tags         articles
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Success      200 {object} map[string]services.ArticleView
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug} [get]
func (h *Handler) getArticle(c *gin.Context) {
	a, err := h.articles.Get(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": a})
}

// @Summary      发布文章
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body body createArticleRequest true "{article:{title,description,body,tagList?}}"
// @Success      201 {object} map[string]services.ArticleView
// @Failure      401 {object} map[string]interface{}
// @Failure      422 {object} map[string]interface{}
// @Router       /api/articles [post]
func (h *Handler) createArticle(c *gin.Context) {
	var req createArticleRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	a, err := h.articles.Create(c.Request.Context(), middlewares.ViewerID(c), services.NewArticle{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	metrics.ArticlesPublished.Inc()
	c.JSON(http.StatusCreated, gin.H{"article": a})
}

// @Summary      修改文章（仅作者）
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Param        body body updateArticleRequest true "{article:{title?,description?,body?,tagList?}}"
// @Success      200 {object} map[string]services.ArticleView
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug} [put]
func (h *Handler) updateArticle(c *gin.Context) {
	var req updateArticleRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	a, err := h.articles.Update(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c), services.ArticleUpdate{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		respondError(c, err, articleNotOwned)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": a})
}

// @Summary      删除文章（仅作者）
// @Tags         articles
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Success      200 {object} map[string]string
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug} [delete]
func (h *Handler) deleteArticle(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c)); err != nil {
		respondError(c, err, articleNotOwned)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": articleDeletedMsg})
}

// @Summary      收藏文章
// @Tags         favorites
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Success      200 {object} map[string]services.ArticleView
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug}/favorite [post]
func (h *Handler) favorite(c *gin.Context) {
	a, err := h.articles.Favorite(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": a})
}

// @Summary      取消收藏
// @Tags         favorites
// @Produce      json
// @Param        slug path string true "文章 slug"
// @Success      200 {object} map[string]services.ArticleView
// @Failure      404 {object} map[string]interface{}
// @Router       /api/articles/{slug}/favorite [delete]
func (h *Handler) unfavorite(c *gin.Context) {
	a, err := h.articles.Unfavorite(c.Request.Context(), c.Param("slug"), middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, articleNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": a})
}

// @Summary      标签列表
// @Tags         tags
// @Produce      json
// @Success      200 {object} map[string][]string
// @Router       /api/tags [get]
func (h *Handler) listTags(c *gin.Context) {
	names, err := h.tags.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": names})
}

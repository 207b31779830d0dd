package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realworld/internal/middlewares"
	"realworld/internal/services"
)

const profileNotFound = "Profile not found"

// getProfile 读取公开资料，following 相对当前观察者。
// @Summary      用户资料
// @Tags         profiles
// @Produce      json
// @Param        username path string true "用户名"
// @Success      200 {object} map[string]services.ProfileView
// @Failure      404 {object} map[string]interface{}
// @Router       /api/profiles/{username} [get]
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), c.Param("username"), middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, profileNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// follow 关注用户（幂等）。
// @Summary      关注
// @Tags         profiles
// @Produce      json
// @Param        username path string true "用户名"
// @Success      200 {object} map[string]services.ProfileView
// @Failure      401 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/profiles/{username}/follow [post]
func (h *Handler) follow(c *gin.Context) {
	u, err := h.users.Follow(c.Request.Context(), middlewares.ViewerID(c), c.Param("username"))
	if err != nil {
		respondError(c, err, profileNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": services.NewProfileView(u, true)})
}

// unfollow 取消关注（幂等）。
// @Summary      取消关注
// @Tags         profiles
// @Produce      json
// @Param        username path string true "用户名"
// @Success      200 {object} map[string]services.ProfileView
// @Failure      401 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/profiles/{username}/follow [delete]
func (h *Handler) unfollow(c *gin.Context) {
	u, err := h.users.Unfollow(c.Request.Context(), middlewares.ViewerID(c), c.Param("username"))
	if err != nil {
		respondError(c, err, profileNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": services.NewProfileView(u, false)})
}

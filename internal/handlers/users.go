package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realworld/internal/metrics"
	"realworld/internal/middlewares"
	"realworld/internal/services"
	"realworld/internal/storage"
)

type registerRequest struct {
	User struct {
		Username string `json:"username" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email,max=190"`
		Password string `json:"password" binding:"required,max=72"`
	} `json:"user"`
}

type loginRequest struct {
	User struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	} `json:"user"`
}

type updateUserRequest struct {
	User struct {
		Username *string `json:"username" binding:"omitempty,max=50"`
		Email    *string `json:"email" binding:"omitempty,email,max=190"`
		Password *string `json:"password" binding:"omitempty,max=72"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image" binding:"omitempty,max=512"`
	} `json:"user"`
}

// register 注册新用户并返回令牌。
// @Summary      注册
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body body registerRequest true "{user:{username,email,password}}"
// @Success      201 {object} map[string]services.UserView
// @Failure      422 {object} map[string]interface{}
// @Router       /api/users [post]
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	u, err := h.users.Create(c.Request.Context(), services.NewUser{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	metrics.UsersRegistered.Inc()
	h.writeUser(c, http.StatusCreated, u)
}

// login 邮箱 + 口令登录；邮箱不存在与口令错误返回相同的 401。
// @Summary      登录
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body body loginRequest true "{user:{email,password}}"
// @Success      200 {object} map[string]services.UserView
// @Failure      401 {object} map[string]interface{}
// @Router       /api/users/login [post]
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	u, err := h.users.Login(c.Request.Context(), req.User.Email, req.User.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			metrics.AuthFailures.WithLabelValues("bad_credentials").Inc()
		}
		respondError(c, err, "")
		return
	}
	h.writeUser(c, http.StatusOK, u)
}

// currentUser 返回当前用户并重新签发令牌。
// @Summary      当前用户
// @Tags         users
// @Produce      json
// @Success      200 {object} map[string]services.UserView
// @Failure      401 {object} map[string]interface{}
// @Router       /api/user [get]
func (h *Handler) currentUser(c *gin.Context) {
	u, err := h.users.FindByID(c.Request.Context(), middlewares.ViewerID(c))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	h.writeUser(c, http.StatusOK, u)
}

// updateUser 部分更新当前用户资料。
// @Summary      更新当前用户
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body body updateUserRequest true "{user:{username?,email?,password?,bio?,image?}}"
// @Success      200 {object} map[string]services.UserView
// @Failure      401 {object} map[string]interface{}
// @Failure      422 {object} map[string]interface{}
// @Router       /api/user [put]
func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	u, err := h.users.Update(c.Request.Context(), middlewares.ViewerID(c), services.UserUpdate{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	h.writeUser(c, http.StatusOK, u)
}

func (h *Handler) writeUser(c *gin.Context, status int, u *storage.User) {
	tok, err := h.tokens.Issue(u)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(status, gin.H{"user": services.NewUserView(u, tok)})
}

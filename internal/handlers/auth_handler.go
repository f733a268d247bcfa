package handlers

import (
	"net/http"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/auth"
	"github.com/gin-gonic/gin"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	Service *auth.Service
	Files   FileStore
	Cookie  CookieConfig
}

func NewAuthHandler(service *auth.Service, files FileStore, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{Service: service, Files: files, Cookie: cookie}
}

func (h *AuthHandler) setSession(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, token, int(ttl.Seconds()), "/", "", h.Cookie.Secure, true)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	up := &requestFiles{store: h.Files}
	image, err := up.first(c, "profileImage")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.SignupInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.ProfileImage = image

	user, err := h.Service.Signup(c.Request.Context(), input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondCreated(c, "Signup successful, check your email for the verification code", user)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.Service.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, session.Token, h.Service.TokenTTL())
	respondOK(c, "Email verified successfully", session)
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Service.ResendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "A new verification code has been sent", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	session, err := h.Service.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, session.Token, h.Service.TokenTTL())
	respondOK(c, "Login successful", session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, "", -1, "/", "", h.Cookie.Secure, true)
	respondOK(c, "Logged out", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Service.ForgotPassword(c.Request.Context(), req.Email, c.GetHeader("Origin")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Password reset link sent to your email", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Service.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Password has been reset", nil)
}

func (h *AuthHandler) UserDetails(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.Service.Profile(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	up := &requestFiles{store: h.Files}
	image, err := up.first(c, "profileImage")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.UpdateProfileInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}

	updated, err := h.Service.UpdateProfile(c.Request.Context(), actor.UserID, input, image)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondOK(c, "Profile updated", updated)
}

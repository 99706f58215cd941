package user

import (
	"net/http"
	"strings"
	"time"

	"LinkChat/logger"
	"LinkChat/middleware"
	"LinkChat/module/user/service"
	"LinkChat/tools/errs"
	"LinkChat/tools/ids"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie = "jwt"
	stateCookie   = "oauth_state"
	sessionMaxAge = int(7 * 24 * time.Hour / time.Second)
)

type Handler struct {
	svc       *service.Service
	google    *service.GoogleAuth
	clientURL string
}

func NewHandler(svc *service.Service, google *service.GoogleAuth, clientURL string) *Handler {
	return &Handler{svc: svc, google: google, clientURL: clientURL}
}

// RegisterRoutes mounts /api/auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.PUT("/update-profile", auth, h.UpdateProfile)
	rg.GET("/check", auth, h.Check)

	rg.GET("/google", h.GoogleRedirect)
	rg.GET("/google/callback", h.GoogleCallback)
	rg.POST("/google/login", h.GoogleLogin)

	rg.GET("/verify-email", h.VerifyEmail)
	rg.POST("/resend-verification", h.ResendVerification)
	rg.POST("/request-password-reset", h.RequestPasswordReset)
	rg.POST("/reset-password", h.ResetPassword)
}

type signupReq struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := h.svc.Signup(c.Request.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your inbox to verify your email.",
		"user":    u,
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		renderErr(c, err)
		return
	}
	h.setSession(c, token)
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.secureCookies(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type updateProfileReq struct {
	ProfilePic string `json:"profilePic" binding:"required"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.ProfilePic)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Check(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) GoogleRedirect(c *gin.Context) {
	if !h.google.Enabled() {
		renderErr(c, errs.ErrState.WithDetail("google sign-in not configured"))
		return
	}
	state := ids.NewToken()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", h.secureCookies(), true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		renderErr(c, errs.ErrUnauthorized.WithDetail("oauth state mismatch"))
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.secureCookies(), true)

	_, token, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		logger.Errorf("[user] google callback: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.clientURL+"/login?error=oauth")
		return
	}
	h.setSession(c, token)
	c.Redirect(http.StatusTemporaryRedirect, h.clientURL)
}

type googleLoginReq struct {
	Token string `json:"token" binding:"required"`
}

// GoogleLogin signs in with an access token obtained client-side, for
// frontends that run the Google flow in the browser instead of the
// redirect dance.
func (h *Handler) GoogleLogin(c *gin.Context) {
	if !h.google.Enabled() {
		renderErr(c, errs.ErrState.WithDetail("google sign-in not configured"))
		return
	}
	var req googleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, token, err := h.google.LoginWithToken(c.Request.Context(), req.Token)
	if err != nil {
		renderErr(c, err)
		return
	}
	h.setSession(c, token)
	c.JSON(http.StatusOK, u)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	if err := h.svc.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified. You can log in now."})
}

type emailReq struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a verification mail was sent."})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset mail was sent."})
}

type resetReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated. You can log in now."})
}

func (h *Handler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, sessionMaxAge, "/", "", h.secureCookies(), true)
}

func (h *Handler) secureCookies() bool {
	return strings.HasPrefix(h.clientURL, "https://")
}

func renderErr(c *gin.Context, err error) {
	e := errs.AsCodeError(err)
	if e.Code == errs.ErrInternal.Code {
		logger.Errorf("[user] %v", err)
	}
	c.JSON(errs.HTTPStatus(e), e)
}

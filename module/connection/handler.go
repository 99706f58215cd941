package connection

import (
	"net/http"

	"LinkChat/logger"
	"LinkChat/middleware"
	"LinkChat/module/connection/service"
	"LinkChat/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /api/connections; every route requires auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.Use(auth)
	rg.GET("/users", h.ListUsers)
	rg.GET("", h.List)
	rg.GET("/requests/pending", h.Pending)
	rg.GET("/requests/sent", h.Sent)
	rg.POST("/request", h.Send)
	rg.POST("/accept", h.Accept)
	rg.POST("/reject", h.Reject)
	rg.DELETE("/:connectionId", h.Remove)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsersWithStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.svc.ConnectedUsers(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": users})
}

func (h *Handler) Pending(c *gin.Context) {
	reqs, err := h.svc.Pending(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (h *Handler) Sent(c *gin.Context) {
	reqs, err := h.svc.Sent(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

type sendReq struct {
	RecipientID string `json:"recipientId" binding:"required"`
}

func (h *Handler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	conn, err := h.svc.Send(c.Request.Context(), middleware.UserID(c), req.RecipientID)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Connection request sent", "connection": conn})
}

type handleReq struct {
	RequestID string `json:"requestId" binding:"required"`
}

func (h *Handler) Accept(c *gin.Context) {
	var req handleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	conn, err := h.svc.Accept(c.Request.Context(), middleware.UserID(c), req.RequestID)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection request accepted", "connection": conn})
}

func (h *Handler) Reject(c *gin.Context) {
	var req handleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	conn, err := h.svc.Reject(c.Request.Context(), middleware.UserID(c), req.RequestID)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection request rejected", "connection": conn})
}

func (h *Handler) Remove(c *gin.Context) {
	err := h.svc.Remove(c.Request.Context(), middleware.UserID(c), c.Param("connectionId"))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection removed"})
}

func renderErr(c *gin.Context, err error) {
	e := errs.AsCodeError(err)
	if e.Code == errs.ErrInternal.Code {
		logger.Errorf("[connection] %v", err)
	}
	c.JSON(errs.HTTPStatus(e), e)
}

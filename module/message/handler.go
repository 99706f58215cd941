package message

import (
	"net/http"

	"LinkChat/logger"
	"LinkChat/middleware"
	"LinkChat/module/message/service"
	"LinkChat/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /api/messages; every route requires auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.Use(auth)
	rg.GET("/users", h.SidebarUsers)
	rg.GET("/:id", h.History)
	rg.POST("/send/:id", h.Send)
}

func (h *Handler) SidebarUsers(c *gin.Context) {
	users, err := h.svc.SidebarUsers(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) History(c *gin.Context) {
	msgs, err := h.svc.History(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type sendReq struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (h *Handler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	msg, err := h.svc.Send(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Text, req.Image)
	if err != nil {
		renderErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func renderErr(c *gin.Context, err error) {
	e := errs.AsCodeError(err)
	if e.Code == errs.ErrInternal.Code {
		logger.Errorf("[message] %v", err)
	}
	c.JSON(errs.HTTPStatus(e), e)
}

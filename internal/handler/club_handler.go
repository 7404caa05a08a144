package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/service"
)

type ClubHandler struct {
	svc *service.ClubService
	log *zap.Logger
}

type ClubReq struct {
	Name    *string `json:"name"`
	Bio     *string `json:"bio"`
	LogoRef *string `json:"logoRef"`
}

func NewClubHandler(svc *service.ClubService, log *zap.Logger) *ClubHandler {
	return &ClubHandler{svc: svc, log: log}
}

func (h *ClubHandler) Create(c *gin.Context) {
	var req ClubReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil {
		badRequest(c, "invalid params")
		return
	}

	club, err := h.svc.Create(c.Request.Context(), actor(c), service.CreateClubInput{
		Name:    *req.Name,
		Bio:     req.Bio,
		LogoRef: req.LogoRef,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, club)
}

func (h *ClubHandler) Mine(c *gin.Context) {
	club, err := h.svc.Mine(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

func (h *ClubHandler) Get(c *gin.Context) {
	club, err := h.svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

func (h *ClubHandler) Update(c *gin.Context) {
	var req ClubReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	club, err := h.svc.Update(c.Request.Context(), actor(c), c.Param("slug"), service.UpdateClubInput{
		Name:    req.Name,
		Bio:     req.Bio,
		LogoRef: req.LogoRef,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

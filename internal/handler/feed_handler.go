package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/model"
	"UEvents/internal/service"
)

type FeedHandler struct {
	svc *service.FeedService
	log *zap.Logger
}

func NewFeedHandler(svc *service.FeedService, log *zap.Logger) *FeedHandler {
	return &FeedHandler{svc: svc, log: log}
}

func (h *FeedHandler) respond(c *gin.Context, page *service.EventPage, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Day lists published events on ?date=YYYY-MM-DD.
func (h *FeedHandler) Day(c *gin.Context) {
	page, err := h.svc.Day(c.Request.Context(), c.Query("date"), listQuery(c))
	h.respond(c, page, err)
}

func (h *FeedHandler) Search(c *gin.Context) {
	page, err := h.svc.Search(c.Request.Context(), service.SearchQuery{
		ListQuery: listQuery(c),
		From:      c.Query("from"),
		To:        c.Query("to"),
		Tag:       c.Query("tag"),
		ClubSlug:  c.Query("club"),
		Q:         c.Query("q"),
	})
	h.respond(c, page, err)
}

func (h *FeedHandler) Following(c *gin.Context) {
	page, err := h.svc.Following(c.Request.Context(), actor(c), c.Query("date"), listQuery(c))
	h.respond(c, page, err)
}

func (h *FeedHandler) Saved(c *gin.Context) {
	page, err := h.svc.Saved(c.Request.Context(), actor(c), listQuery(c))
	h.respond(c, page, err)
}

func (h *FeedHandler) Going(c *gin.Context) {
	page, err := h.svc.Going(c.Request.Context(), actor(c), listQuery(c))
	h.respond(c, page, err)
}

func (h *FeedHandler) ClubPublic(c *gin.Context) {
	page, err := h.svc.ClubPublic(c.Request.Context(), c.Param("slug"), listQuery(c))
	h.respond(c, page, err)
}

// ClubOwned lists the owner's events, drafts included; ?status= narrows it.
func (h *FeedHandler) ClubOwned(c *gin.Context) {
	status := model.EventStatus(c.Query("status"))
	page, err := h.svc.ClubOwned(c.Request.Context(), actor(c), c.Param("slug"), status, listQuery(c))
	h.respond(c, page, err)
}

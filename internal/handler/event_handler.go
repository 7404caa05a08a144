package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/model"
	"UEvents/internal/service"
)

type EventHandler struct {
	svc  *service.EventService
	feed *service.FeedService
	log  *zap.Logger
}

type TranslationReq struct {
	Lang        string  `json:"lang"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PosterRef   *string `json:"posterRef"`
}

type CreateEventReq struct {
	StartAt      time.Time        `json:"startAt" binding:"required"`
	EndAt        *time.Time       `json:"endAt"`
	LocationName string           `json:"locationName"`
	Tags         []string         `json:"tags"`
	Status       string           `json:"status"`
	Translations []TranslationReq `json:"translations"`
}

// UpdateEventReq is partial. Setting clearEndAt removes the end time.
type UpdateEventReq struct {
	StartAt      *time.Time `json:"startAt"`
	EndAt        *time.Time `json:"endAt"`
	ClearEndAt   bool       `json:"clearEndAt"`
	LocationName *string    `json:"locationName"`
	Tags         *[]string  `json:"tags"`
	Status       *string    `json:"status"`
}

func NewEventHandler(svc *service.EventService, feed *service.FeedService, log *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, feed: feed, log: log}
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	in := service.CreateEventInput{
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		LocationName: req.LocationName,
		Tags:         req.Tags,
		Status:       model.EventStatus(req.Status),
	}
	for _, t := range req.Translations {
		in.Translations = append(in.Translations, translationInput(t.Lang, t))
	}

	view, err := h.svc.Create(c.Request.Context(), actor(c), c.Param("slug"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get serves a published event, or a draft to its owner.
func (h *EventHandler) Get(c *gin.Context) {
	view, err := h.feed.Get(c.Request.Context(), actor(c), c.Param("id"), lang(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EventHandler) Update(c *gin.Context) {
	var req UpdateEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	in := service.UpdateEventInput{
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		ClearEndAt:   req.ClearEndAt,
		LocationName: req.LocationName,
		Tags:         req.Tags,
	}
	if req.Status != nil {
		st := model.EventStatus(*req.Status)
		in.Status = &st
	}

	view, err := h.svc.Update(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) Publish(c *gin.Context) {
	view, err := h.svc.Publish(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EventHandler) Unpublish(c *gin.Context) {
	view, err := h.svc.Unpublish(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EventHandler) Validate(c *gin.Context) {
	report, err := h.svc.Validate(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// PutTranslation creates or replaces the content for :lang.
func (h *EventHandler) PutTranslation(c *gin.Context) {
	var req TranslationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	view, err := h.svc.UpsertTranslation(c.Request.Context(), actor(c), c.Param("id"), translationInput(c.Param("lang"), req))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EventHandler) DeleteTranslation(c *gin.Context) {
	if err := h.svc.DeleteTranslation(c.Request.Context(), actor(c), c.Param("id"), c.Param("lang")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func translationInput(lang string, t TranslationReq) service.TranslationInput {
	return service.TranslationInput{Lang: lang, Title: t.Title, Description: t.Description, PosterRef: t.PosterRef}
}

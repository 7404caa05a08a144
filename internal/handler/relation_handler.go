package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/service"
)

type RelationHandler struct {
	svc *service.RelationService
	log *zap.Logger
}

func NewRelationHandler(svc *service.RelationService, log *zap.Logger) *RelationHandler {
	return &RelationHandler{svc: svc, log: log}
}

type toggleFunc func(c *gin.Context, a service.Actor, id string) (*service.Toggle, error)

func (h *RelationHandler) toggle(param string, fn toggleFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := fn(c, actor(c), c.Param(param))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *RelationHandler) Follow() gin.HandlerFunc {
	return h.toggle("slug", func(c *gin.Context, a service.Actor, slug string) (*service.Toggle, error) {
		return h.svc.Follow(c.Request.Context(), a, slug)
	})
}

func (h *RelationHandler) Unfollow() gin.HandlerFunc {
	return h.toggle("slug", func(c *gin.Context, a service.Actor, slug string) (*service.Toggle, error) {
		return h.svc.Unfollow(c.Request.Context(), a, slug)
	})
}

func (h *RelationHandler) Save() gin.HandlerFunc {
	return h.toggle("id", func(c *gin.Context, a service.Actor, id string) (*service.Toggle, error) {
		return h.svc.Save(c.Request.Context(), a, id)
	})
}

func (h *RelationHandler) Unsave() gin.HandlerFunc {
	return h.toggle("id", func(c *gin.Context, a service.Actor, id string) (*service.Toggle, error) {
		return h.svc.Unsave(c.Request.Context(), a, id)
	})
}

func (h *RelationHandler) RSVP() gin.HandlerFunc {
	return h.toggle("id", func(c *gin.Context, a service.Actor, id string) (*service.Toggle, error) {
		return h.svc.RSVP(c.Request.Context(), a, id)
	})
}

func (h *RelationHandler) CancelRSVP() gin.HandlerFunc {
	return h.toggle("id", func(c *gin.Context, a service.Actor, id string) (*service.Toggle, error) {
		return h.svc.CancelRSVP(c.Request.Context(), a, id)
	})
}

func (h *RelationHandler) FollowStatus(c *gin.Context) {
	following, err := h.svc.FollowStatus(c.Request.Context(), actor(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

func (h *RelationHandler) FollowerCount(c *gin.Context) {
	n, err := h.svc.FollowerCount(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *RelationHandler) EventStatus(c *gin.Context) {
	st, err := h.svc.EventStatus(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *RelationHandler) RSVPCount(c *gin.Context) {
	n, err := h.svc.RSVPCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// ListRSVPs lists attendees for the owning club.
func (h *RelationHandler) ListRSVPs(c *gin.Context) {
	q := listQuery(c)
	page, err := h.svc.ListRSVPs(c.Request.Context(), actor(c), c.Param("id"), q.Page, q.Size)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

package service

import (
	"context"

	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

type Access int

const (
	AccessOK Access = iota
	AccessNotFound
	AccessForbidden
)

// Guard ties every mutation to club ownership.
type Guard struct {
	events repository.EventStore
	clubs  repository.ClubStore
}

func NewGuard(events repository.EventStore, clubs repository.ClubStore) *Guard {
	return &Guard{events: events, clubs: clubs}
}

// CheckEventOwnership looks up the owner of the event's club.
func (g *Guard) CheckEventOwnership(ctx context.Context, actorID, eventID string) (Access, error) {
	owner, err := g.events.OwnerOf(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			return AccessNotFound, nil
		}
		return 0, err
	}
	if owner != actorID {
		return AccessForbidden, nil
	}
	return AccessOK, nil
}

// RequireEventOwner turns the ownership check into an error result. Role is checked
// before the lookup so non-club callers learn nothing about the event.
func (g *Guard) RequireEventOwner(ctx context.Context, actor Actor, eventID string) error {
	if err := actor.requireRole(model.RoleClub); err != nil {
		return err
	}
	access, err := g.CheckEventOwnership(ctx, actor.UserID, eventID)
	if err != nil {
		return err
	}
	switch access {
	case AccessNotFound:
		return pkg.NotFound("event not found")
	case AccessForbidden:
		return pkg.Forbidden("not the owner of this event")
	}
	return nil
}

// RequireClubOwner loads the club by slug and checks the actor owns it.
func (g *Guard) RequireClubOwner(ctx context.Context, actor Actor, slug string) (*model.Club, error) {
	if err := actor.requireRole(model.RoleClub); err != nil {
		return nil, err
	}
	club, err := g.clubs.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.NotFound("club not found")
		}
		return nil, err
	}
	if club.OwnerUserID != actor.UserID {
		return nil, pkg.Forbidden("not the owner of this club")
	}
	return club, nil
}

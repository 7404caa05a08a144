package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

const (
	maxSlugLen      = 80
	maxSlugAttempts = 50
	maxInsertRaces  = 3
)

// reservedSlugs collide with fixed routes under /api/clubs.
var reservedSlugs = map[string]bool{
	"mine": true, "new": true, "admin": true, "api": true, "me": true,
	"events": true, "search": true, "feed": true, "login": true, "register": true,
}

type CreateClubInput struct {
	Name    string
	Bio     *string
	LogoRef *string
}

type UpdateClubInput struct {
	Name    *string
	Bio     *string
	LogoRef *string
}

type ClubService struct {
	clubs repository.ClubStore
	lock  repository.Locker
	guard *Guard
	log   *zap.Logger
	now   func() time.Time
}

// NewClubService builds the service; lock may be nil.
func NewClubService(clubs repository.ClubStore, lock repository.Locker, guard *Guard, log *zap.Logger) *ClubService {
	return &ClubService{clubs: clubs, lock: lock, guard: guard, log: log, now: time.Now}
}

// baseSlug derives the URL-safe stem from a club name.
func (s *ClubService) baseSlug(name string) string {
	base := slug.Make(name)
	if len(base) > maxSlugLen {
		base = strings.TrimRight(base[:maxSlugLen], "-")
	}
	if base == "" {
		return fmt.Sprintf("club-%d", s.now().Unix())
	}
	if reservedSlugs[base] {
		return base + "-club"
	}
	return base
}

// Create registers the actor's club. The slug is the first free of base, base-2,
// base-3... Checking then inserting can race with a concurrent create of the same name;
// the unique index catches it and the search restarts a bounded number of times.
func (s *ClubService) Create(ctx context.Context, actor Actor, in CreateClubInput) (*ClubView, error) {
	if err := actor.requireRole(model.RoleClub); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, pkg.InvalidInput("name is required")
	}
	if _, err := s.clubs.FindByOwner(ctx, actor.UserID); err == nil {
		return nil, pkg.Conflict("user already owns a club", nil)
	} else if !isNotFound(err) {
		return nil, err
	}

	base := s.baseSlug(name)
	if s.lock != nil {
		token := uuid.NewString()
		ok, err := s.lock.Acquire(ctx, "club:slug:"+base, token)
		if err != nil {
			s.log.Warn("slug lock unavailable", zap.String("base", base), zap.Error(err))
		} else if !ok {
			return nil, pkg.Conflict("a club with this name is being created, retry", nil)
		} else {
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), "club:slug:"+base, token); err != nil {
					s.log.Warn("slug lock release failed", zap.String("base", base), zap.Error(err))
				}
			}()
		}
	}

	club := &model.Club{Name: name, OwnerUserID: actor.UserID, Bio: trimPtr(in.Bio), LogoRef: trimPtr(in.LogoRef)}
	for race := 0; race < maxInsertRaces; race++ {
		candidate, err := s.freeSlug(ctx, base)
		if err != nil {
			return nil, err
		}
		club.ID = ""
		club.Slug = candidate
		err = s.clubs.Create(ctx, club)
		if err == nil {
			s.log.Info("club created", zap.String("club_id", club.ID), zap.String("slug", club.Slug))
			return newClubView(club), nil
		}
		if !isDuplicate(err) {
			return nil, err
		}
		// duplicate owner is final, duplicate slug means another writer won the race
		if _, ferr := s.clubs.FindByOwner(ctx, actor.UserID); ferr == nil {
			return nil, pkg.Conflict("user already owns a club", err)
		}
		s.log.Warn("slug taken concurrently, retrying", zap.String("slug", candidate))
	}
	return nil, pkg.Conflict("could not allocate a unique slug", nil)
}

func (s *ClubService) freeSlug(ctx context.Context, base string) (string, error) {
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := s.clubs.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", pkg.Conflict("could not allocate a unique slug", nil)
}

func (s *ClubService) Get(ctx context.Context, slug string) (*ClubView, error) {
	club, err := s.clubs.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.NotFound("club not found")
		}
		return nil, err
	}
	return newClubView(club), nil
}

// Mine returns the actor's club.
func (s *ClubService) Mine(ctx context.Context, actor Actor) (*ClubView, error) {
	if err := actor.requireRole(model.RoleClub); err != nil {
		return nil, err
	}
	club, err := s.clubs.FindByOwner(ctx, actor.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.NotFound("no club for this account")
		}
		return nil, err
	}
	return newClubView(club), nil
}

// Update changes name, bio or logo. The slug never changes after creation.
func (s *ClubService) Update(ctx context.Context, actor Actor, slug string, in UpdateClubInput) (*ClubView, error) {
	club, err := s.guard.RequireClubOwner(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, pkg.InvalidInput("name must not be empty")
		}
		club.Name = name
		fields["name"] = name
	}
	if in.Bio != nil {
		club.Bio = trimPtr(in.Bio)
		fields["bio"] = club.Bio
	}
	if in.LogoRef != nil {
		club.LogoRef = trimPtr(in.LogoRef)
		fields["logo_ref"] = club.LogoRef
	}
	if err := s.clubs.Update(ctx, club.ID, fields); err != nil {
		return nil, err
	}
	return newClubView(club), nil
}

// trimPtr trims *p; empty results become nil.
func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

package service

import (
	"context"

	"go.uber.org/zap"

	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

// RelationService toggles follows, saves and RSVPs. Add and remove are idempotent:
// repeating either one succeeds and changes nothing.
type RelationService struct {
	rel    repository.RelationStore
	events repository.EventStore
	clubs  repository.ClubStore
	counts repository.CountCache
	guard  *Guard
	cfg    FeedConfig
	log    *zap.Logger
}

func NewRelationService(rel repository.RelationStore, events repository.EventStore, clubs repository.ClubStore,
	counts repository.CountCache, guard *Guard, cfg FeedConfig, log *zap.Logger) *RelationService {
	return &RelationService{
		rel:    rel,
		events: events,
		clubs:  clubs,
		counts: counts,
		guard:  guard,
		cfg:    cfg.withDefaults(),
		log:    log,
	}
}

// Toggle reports the state after the call and whether a row was written.
type Toggle struct {
	Active  bool `json:"active"`
	Changed bool `json:"changed"`
}

func (s *RelationService) Follow(ctx context.Context, actor Actor, slug string) (*Toggle, error) {
	club, err := s.club(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	return s.add(ctx, model.RelationFollow, actor.UserID, club.ID)
}

func (s *RelationService) Unfollow(ctx context.Context, actor Actor, slug string) (*Toggle, error) {
	club, err := s.club(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	return s.remove(ctx, model.RelationFollow, actor.UserID, club.ID)
}

func (s *RelationService) Save(ctx context.Context, actor Actor, eventID string) (*Toggle, error) {
	if err := s.publishedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.add(ctx, model.RelationSave, actor.UserID, eventID)
}

// Unsave does not look at the event; removing a missing pair succeeds.
func (s *RelationService) Unsave(ctx context.Context, actor Actor, eventID string) (*Toggle, error) {
	if err := actor.requireRole(model.RoleStudent); err != nil {
		return nil, err
	}
	return s.remove(ctx, model.RelationSave, actor.UserID, eventID)
}

func (s *RelationService) RSVP(ctx context.Context, actor Actor, eventID string) (*Toggle, error) {
	if err := s.publishedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.add(ctx, model.RelationRSVP, actor.UserID, eventID)
}

func (s *RelationService) CancelRSVP(ctx context.Context, actor Actor, eventID string) (*Toggle, error) {
	if err := actor.requireRole(model.RoleStudent); err != nil {
		return nil, err
	}
	return s.remove(ctx, model.RelationRSVP, actor.UserID, eventID)
}

// FollowStatus is false for anonymous callers.
func (s *RelationService) FollowStatus(ctx context.Context, actor Actor, slug string) (bool, error) {
	club, err := s.clubBySlug(ctx, slug)
	if err != nil {
		return false, err
	}
	if actor.Anonymous() {
		return false, nil
	}
	return s.rel.Exists(ctx, model.RelationFollow, actor.UserID, club.ID)
}

// EventStatus tells whether the actor saved and RSVP'd to a visible event.
type EventStatus struct {
	Going bool `json:"going"`
	Saved bool `json:"saved"`
}

func (s *RelationService) EventStatus(ctx context.Context, actor Actor, eventID string) (*EventStatus, error) {
	if err := s.visibleEvent(ctx, eventID); err != nil {
		return nil, err
	}
	st := &EventStatus{}
	if actor.Anonymous() {
		return st, nil
	}
	var err error
	if st.Going, err = s.rel.Exists(ctx, model.RelationRSVP, actor.UserID, eventID); err != nil {
		return nil, err
	}
	if st.Saved, err = s.rel.Exists(ctx, model.RelationSave, actor.UserID, eventID); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *RelationService) FollowerCount(ctx context.Context, slug string) (int64, error) {
	club, err := s.clubBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, model.RelationFollow, club.ID)
}

func (s *RelationService) RSVPCount(ctx context.Context, eventID string) (int64, error) {
	if err := s.visibleEvent(ctx, eventID); err != nil {
		return 0, err
	}
	return s.count(ctx, model.RelationRSVP, eventID)
}

// ListRSVPs lists who is going to an event. Owner only.
func (s *RelationService) ListRSVPs(ctx context.Context, actor Actor, eventID string, page, size int) (*pkg.PageResult[repository.Attendee], error) {
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return nil, err
	}
	p := pkg.NewPage(page, size, s.cfg.DefaultSize, s.cfg.OwnerMax)
	rows, total, err := s.rel.ListForTarget(ctx, model.RelationRSVP, eventID, p.Offset(), p.Size)
	if err != nil {
		return nil, err
	}
	res := pkg.NewPageResult(p, total, rows)
	return &res, nil
}

// ListFollowedClubs lists the clubs the actor follows.
func (s *RelationService) ListFollowedClubs(ctx context.Context, actor Actor, page, size int) (*pkg.PageResult[*ClubSummary], error) {
	if actor.Anonymous() {
		return nil, pkg.Unauthorized("login required")
	}
	p := pkg.NewPage(page, size, s.cfg.DefaultSize, s.cfg.MaxSize)
	list, total, err := s.clubs.ListFollowedBy(ctx, actor.UserID, p.Offset(), p.Size)
	if err != nil {
		return nil, err
	}
	items := make([]*ClubSummary, 0, len(list))
	for i := range list {
		items = append(items, newClubSummary(&list[i]))
	}
	res := pkg.NewPageResult(p, total, items)
	return &res, nil
}

func (s *RelationService) add(ctx context.Context, kind model.RelationKind, userID, targetID string) (*Toggle, error) {
	changed, err := s.rel.Add(ctx, kind, userID, targetID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.invalidate(ctx, kind, targetID)
	}
	return &Toggle{Active: true, Changed: changed}, nil
}

func (s *RelationService) remove(ctx context.Context, kind model.RelationKind, userID, targetID string) (*Toggle, error) {
	changed, err := s.rel.Remove(ctx, kind, userID, targetID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.invalidate(ctx, kind, targetID)
	}
	return &Toggle{Active: false, Changed: changed}, nil
}

// count reads through the cache; cache failures fall back to the database.
func (s *RelationService) count(ctx context.Context, kind model.RelationKind, targetID string) (int64, error) {
	if s.counts != nil {
		n, ok, err := s.counts.Get(ctx, kind, targetID)
		if err != nil {
			s.log.Warn("count cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		} else if ok {
			return n, nil
		}
	}
	n, err := s.rel.Count(ctx, kind, targetID)
	if err != nil {
		return 0, err
	}
	if s.counts != nil {
		if err := s.counts.Set(ctx, kind, targetID, n); err != nil {
			s.log.Warn("count cache fill failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return n, nil
}

func (s *RelationService) invalidate(ctx context.Context, kind model.RelationKind, targetID string) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx, kind, targetID); err != nil {
		s.log.Warn("count cache invalidate failed", zap.String("kind", string(kind)), zap.String("target", targetID), zap.Error(err))
	}
}

func (s *RelationService) club(ctx context.Context, actor Actor, slug string) (*model.Club, error) {
	if err := actor.requireRole(model.RoleStudent); err != nil {
		return nil, err
	}
	return s.clubBySlug(ctx, slug)
}

func (s *RelationService) clubBySlug(ctx context.Context, slug string) (*model.Club, error) {
	club, err := s.clubs.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.NotFound("club not found")
		}
		return nil, err
	}
	return club, nil
}

// publishedEvent checks the actor may save or RSVP to eventID. Drafts read as missing.
func (s *RelationService) publishedEvent(ctx context.Context, actor Actor, eventID string) error {
	if err := actor.requireRole(model.RoleStudent); err != nil {
		return err
	}
	return s.visibleEvent(ctx, eventID)
}

func (s *RelationService) visibleEvent(ctx context.Context, eventID string) error {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			return pkg.NotFound("event not found")
		}
		return err
	}
	if e.Status != model.EventPublished {
		return pkg.NotFound("event not found")
	}
	return nil
}

package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"UEvents/internal/locale"
	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

const dateLayout = "2006-01-02"

type FeedConfig struct {
	DefaultSize int
	DaySize     int
	MaxSize     int
	OwnerMax    int
	SearchScan  int // rows resolved in memory when a free-text query is present
}

func (c FeedConfig) withDefaults() FeedConfig {
	if c.DefaultSize <= 0 {
		c.DefaultSize = 20
	}
	if c.DaySize <= 0 {
		c.DaySize = 50
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.OwnerMax <= 0 {
		c.OwnerMax = 200
	}
	if c.SearchScan <= 0 {
		c.SearchScan = 1000
	}
	return c
}

// ListQuery carries what every listing shares: reader language and paging.
type ListQuery struct {
	Lang locale.Lang
	Page int
	Size int
}

type SearchQuery struct {
	ListQuery
	From     string // date or RFC3339, inclusive
	To       string // date (whole day included) or RFC3339, exclusive
	Tag      string
	ClubSlug string
	Q        string
}

type EventPage = pkg.PageResult[*EventView]

// FeedService composes localized, paginated event listings.
type FeedService struct {
	events repository.EventStore
	clubs  repository.ClubStore
	guard  *Guard
	cfg    FeedConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewFeedService(events repository.EventStore, clubs repository.ClubStore, guard *Guard, cfg FeedConfig, log *zap.Logger) *FeedService {
	return &FeedService{
		events: events,
		clubs:  clubs,
		guard:  guard,
		cfg:    cfg.withDefaults(),
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns one event. Drafts are visible only to the owning club; everyone else
// gets NotFound.
func (s *FeedService) Get(ctx context.Context, actor Actor, eventID string, lang locale.Lang) (*EventView, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.NotFound("event not found")
		}
		return nil, err
	}
	club, err := s.clubs.FindByID(ctx, e.ClubID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	owner := club != nil && !actor.Anonymous() && club.OwnerUserID == actor.UserID
	if e.Status != model.EventPublished && !owner {
		return nil, pkg.NotFound("event not found")
	}
	return newEventView(e, club, lang, owner), nil
}

// Day lists published events starting on date (UTC).
func (s *FeedService) Day(ctx context.Context, date string, q ListQuery) (*EventPage, error) {
	from, before, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	f := repository.EventFilter{Status: model.EventPublished, StartFrom: &from, StartBefore: &before}
	return s.list(ctx, f, pkg.NewPage(q.Page, q.Size, s.cfg.DaySize, s.cfg.MaxSize), q.Lang)
}

// Following lists published events of the clubs the actor follows, on date when given,
// otherwise from now on.
func (s *FeedService) Following(ctx context.Context, actor Actor, date string, q ListQuery) (*EventPage, error) {
	if actor.Anonymous() {
		return nil, pkg.Unauthorized("login required")
	}
	f := repository.EventFilter{
		Status:      model.EventPublished,
		RelatedKind: model.RelationFollow,
		RelatedUser: actor.UserID,
	}
	if date != "" {
		from, before, err := dayRange(date)
		if err != nil {
			return nil, err
		}
		f.StartFrom, f.StartBefore = &from, &before
	} else {
		now := s.now()
		f.StartFrom = &now
	}
	return s.list(ctx, f, pkg.NewPage(q.Page, q.Size, s.cfg.DefaultSize, s.cfg.MaxSize), q.Lang)
}

// Saved lists the published events the actor saved.
func (s *FeedService) Saved(ctx context.Context, actor Actor, q ListQuery) (*EventPage, error) {
	return s.related(ctx, actor, model.RelationSave, q)
}

// Going lists the published events the actor RSVP'd to.
func (s *FeedService) Going(ctx context.Context, actor Actor, q ListQuery) (*EventPage, error) {
	return s.related(ctx, actor, model.RelationRSVP, q)
}

func (s *FeedService) related(ctx context.Context, actor Actor, kind model.RelationKind, q ListQuery) (*EventPage, error) {
	if actor.Anonymous() {
		return nil, pkg.Unauthorized("login required")
	}
	f := repository.EventFilter{Status: model.EventPublished, RelatedKind: kind, RelatedUser: actor.UserID}
	return s.list(ctx, f, pkg.NewPage(q.Page, q.Size, s.cfg.DefaultSize, s.cfg.MaxSize), q.Lang)
}

// ClubPublic lists a club's published events.
func (s *FeedService) ClubPublic(ctx context.Context, slug string, q ListQuery) (*EventPage, error) {
	club, err := s.clubs.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.NotFound("club not found")
		}
		return nil, err
	}
	f := repository.EventFilter{Status: model.EventPublished, ClubID: club.ID}
	return s.list(ctx, f, pkg.NewPage(q.Page, q.Size, s.cfg.DefaultSize, s.cfg.MaxSize), q.Lang)
}

// ClubOwned lists every event of the actor's club, drafts included. status narrows it
// when set.
func (s *FeedService) ClubOwned(ctx context.Context, actor Actor, slug string, status model.EventStatus, q ListQuery) (*EventPage, error) {
	club, err := s.guard.RequireClubOwner(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, pkg.InvalidInput("status must be draft or published")
	}
	p := pkg.NewPage(q.Page, q.Size, s.cfg.DefaultSize, s.cfg.OwnerMax)
	list, total, err := s.events.List(ctx, repository.EventFilter{Status: status, ClubID: club.ID}, p.Offset(), p.Size)
	if err != nil {
		return nil, err
	}
	views := make([]*EventView, 0, len(list))
	for i := range list {
		views = append(views, newEventView(&list[i], club, q.Lang, true))
	}
	page := pkg.NewPageResult(p, total, views)
	return &page, nil
}

// Search lists published events by date range, tag, club and free text. The text is
// matched against the content actually served to the reader, so it runs after
// resolution over a bounded scan and pagination happens in memory.
func (s *FeedService) Search(ctx context.Context, sq SearchQuery) (*EventPage, error) {
	f := repository.EventFilter{Status: model.EventPublished, Tag: strings.ToLower(strings.TrimSpace(sq.Tag))}
	if sq.From != "" {
		from, err := parseBound(sq.From, false)
		if err != nil {
			return nil, err
		}
		f.StartFrom = &from
	}
	if sq.To != "" {
		to, err := parseBound(sq.To, true)
		if err != nil {
			return nil, err
		}
		f.StartBefore = &to
	}
	if f.StartFrom != nil && f.StartBefore != nil && f.StartBefore.Before(*f.StartFrom) {
		return nil, pkg.InvalidInput("to must not be earlier than from")
	}
	if sq.ClubSlug != "" {
		club, err := s.clubs.FindBySlug(ctx, sq.ClubSlug)
		if err != nil {
			if isNotFound(err) {
				return nil, pkg.NotFound("club not found")
			}
			return nil, err
		}
		f.ClubID = club.ID
	}

	p := pkg.NewPage(sq.Page, sq.Size, s.cfg.DefaultSize, s.cfg.MaxSize)
	q := strings.TrimSpace(sq.Q)
	if q == "" {
		return s.list(ctx, f, p, sq.Lang)
	}

	list, scanned, err := s.events.List(ctx, f, 0, s.cfg.SearchScan)
	if err != nil {
		return nil, err
	}
	if scanned > int64(len(list)) {
		s.log.Warn("search scan limit reached, total is understated",
			zap.Int("scan_limit", s.cfg.SearchScan),
			zap.Int64("candidates", scanned),
			zap.String("q", q),
		)
	}
	all, err := s.resolve(ctx, list, sq.Lang)
	if err != nil {
		return nil, err
	}
	needle := fold(q)
	matched := make([]*EventView, 0, len(all))
	for _, v := range all {
		if v.matches(needle) {
			matched = append(matched, v)
		}
	}
	page := pkg.NewPageResult(p, int64(len(matched)), pkg.Slice(p, matched))
	return &page, nil
}

func (s *FeedService) list(ctx context.Context, f repository.EventFilter, p pkg.Page, lang locale.Lang) (*EventPage, error) {
	list, total, err := s.events.List(ctx, f, p.Offset(), p.Size)
	if err != nil {
		return nil, err
	}
	views, err := s.resolve(ctx, list, lang)
	if err != nil {
		return nil, err
	}
	page := pkg.NewPageResult(p, total, views)
	return &page, nil
}

// resolve turns rows into public views, loading each club once.
func (s *FeedService) resolve(ctx context.Context, list []model.Event, lang locale.Lang) ([]*EventView, error) {
	ids := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, e := range list {
		if !seen[e.ClubID] {
			seen[e.ClubID] = true
			ids = append(ids, e.ClubID)
		}
	}
	clubs, err := s.clubs.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*EventView, 0, len(list))
	for i := range list {
		views = append(views, newEventView(&list[i], clubs[list[i].ClubID], lang, false))
	}
	return views, nil
}

func dayRange(date string) (time.Time, time.Time, error) {
	if date == "" {
		return time.Time{}, time.Time{}, pkg.InvalidInput("date is required (YYYY-MM-DD)")
	}
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkg.InvalidInput("date must be YYYY-MM-DD")
	}
	return day, day.AddDate(0, 0, 1), nil
}

// parseBound accepts a date or an RFC3339 timestamp. A bare date used as an upper
// bound includes the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, pkg.InvalidInput("invalid date " + raw)
	}
	if upper {
		day = day.AddDate(0, 0, 1)
	}
	return day, nil
}

func fold(s string) string { return cases.Fold().String(s) }

func containsFold(haystack, foldedNeedle string) bool {
	return strings.Contains(fold(haystack), foldedNeedle)
}

package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

// fakeDB backs every fake store so relations, events and clubs see each other.
type fakeDB struct {
	mu       sync.Mutex
	users    map[string]*model.User
	clubs    map[string]*model.Club
	events   map[string]*model.Event
	rel      map[model.RelationKind]map[[2]string]time.Time
	outbox   []model.Outbox
	seq      int
	clock    time.Time
	failNext error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:  map[string]*model.User{},
		clubs:  map[string]*model.Club{},
		events: map[string]*model.Event{},
		rel:    map[model.RelationKind]map[[2]string]time.Time{},
		clock:  time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (db *fakeDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%03d", prefix, db.seq)
}

func (db *fakeDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func cloneEvent(e *model.Event) *model.Event {
	c := *e
	c.Tags = append([]model.EventTag(nil), e.Tags...)
	c.Translations = append([]model.EventTranslation(nil), e.Translations...)
	if e.EndAt != nil {
		end := *e.EndAt
		c.EndAt = &end
	}
	return &c
}

type snapshot struct {
	events map[string]*model.Event
	outbox []model.Outbox
}

func (db *fakeDB) snapshot() snapshot {
	s := snapshot{events: map[string]*model.Event{}, outbox: append([]model.Outbox(nil), db.outbox...)}
	for id, e := range db.events {
		s.events[id] = cloneEvent(e)
	}
	return s
}

// ---- users

type fakeUsers struct{ db *fakeDB }

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == "" {
		u.ID = f.db.nextID("user")
	}
	c := *u
	f.db.users[u.ID] = &c
	return nil
}

func (f fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeUsers) UpdateProfile(_ context.Context, id string, fields map[string]any) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "locale":
			u.Locale = v.(string)
		}
	}
	return nil
}

// ---- clubs

type fakeClubs struct{ db *fakeDB }

func (f fakeClubs) FindByID(_ context.Context, id string) (*model.Club, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.clubs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeClubs) FindByIDs(_ context.Context, ids []string) (map[string]*model.Club, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := map[string]*model.Club{}
	for _, id := range ids {
		if c, ok := f.db.clubs[id]; ok {
			cp := *c
			out[id] = &cp
		}
	}
	return out, nil
}

func (f fakeClubs) find(match func(*model.Club) bool) (*model.Club, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, c := range f.db.clubs {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeClubs) FindBySlug(_ context.Context, slug string) (*model.Club, error) {
	return f.find(func(c *model.Club) bool { return c.Slug == slug })
}

func (f fakeClubs) FindByOwner(_ context.Context, ownerID string) (*model.Club, error) {
	return f.find(func(c *model.Club) bool { return c.OwnerUserID == ownerID })
}

func (f fakeClubs) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := f.FindBySlug(ctx, slug)
	return err == nil, nil
}

func (f fakeClubs) Create(_ context.Context, c *model.Club) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failNext != nil {
		err := f.db.failNext
		f.db.failNext = nil
		return err
	}
	for _, existing := range f.db.clubs {
		if existing.Slug == c.Slug || existing.OwnerUserID == c.OwnerUserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == "" {
		c.ID = f.db.nextID("club")
	}
	cp := *c
	f.db.clubs[c.ID] = &cp
	return nil
}

func (f fakeClubs) Update(_ context.Context, id string, fields map[string]any) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.clubs[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name = v.(string)
		case "bio":
			c.Bio = v.(*string)
		case "logo_ref":
			c.LogoRef = v.(*string)
		}
	}
	return nil
}

func (f fakeClubs) ListFollowedBy(_ context.Context, userID string, offset, limit int) ([]model.Club, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var all []model.Club
	for pair := range f.db.rel[model.RelationFollow] {
		if pair[0] == userID {
			if c, ok := f.db.clubs[pair[1]]; ok {
				all = append(all, *c)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return pkg.Slice(pkg.Page{Page: offset/max(limit, 1) + 1, Size: limit}, all), int64(len(all)), nil
}

// ---- events

type fakeEvents struct {
	db *fakeDB
}

func (f *fakeEvents) Transaction(ctx context.Context, fn func(tx repository.EventStore) error) error {
	f.db.mu.Lock()
	snap := f.db.snapshot()
	f.db.mu.Unlock()
	if err := fn(f); err != nil {
		f.db.mu.Lock()
		f.db.events, f.db.outbox = snap.events, snap.outbox
		f.db.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeEvents) OwnerOf(_ context.Context, eventID string) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[eventID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	c, ok := f.db.clubs[e.ClubID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return c.OwnerUserID, nil
}

func (f *fakeEvents) FindByID(_ context.Context, id string) (*model.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneEvent(e), nil
}

func (f *fakeEvents) Create(_ context.Context, e *model.Event) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if e.ID == "" {
		e.ID = f.db.nextID("event")
	}
	for i := range e.Tags {
		e.Tags[i].EventID = e.ID
	}
	for i := range e.Translations {
		e.Translations[i].EventID = e.ID
	}
	f.db.events[e.ID] = cloneEvent(e)
	return nil
}

func (f *fakeEvents) Update(_ context.Context, id string, fields map[string]any, tags []string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "start_at":
			e.StartAt = v.(time.Time)
		case "end_at":
			if v == nil {
				e.EndAt = nil
			} else {
				t := v.(time.Time)
				e.EndAt = &t
			}
		case "location_name":
			e.LocationName = v.(string)
		case "status":
			e.Status = v.(model.EventStatus)
		}
	}
	if tags != nil {
		e.Tags = nil
		for _, t := range tags {
			e.Tags = append(e.Tags, model.EventTag{EventID: id, Tag: t})
		}
	}
	return nil
}

func (f *fakeEvents) SetStatus(_ context.Context, id string, status model.EventStatus) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if e, ok := f.db.events[id]; ok {
		e.Status = status
	}
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.events, id)
	for _, kind := range []model.RelationKind{model.RelationSave, model.RelationRSVP} {
		for pair := range f.db.rel[kind] {
			if pair[1] == id {
				delete(f.db.rel[kind], pair)
			}
		}
	}
	return nil
}

func (f *fakeEvents) UpsertTranslation(_ context.Context, tr *model.EventTranslation) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[tr.EventID]
	if !ok {
		return nil
	}
	for i := range e.Translations {
		if e.Translations[i].Lang == tr.Lang {
			e.Translations[i] = *tr
			return nil
		}
	}
	e.Translations = append(e.Translations, *tr)
	return nil
}

func (f *fakeEvents) DeleteTranslation(_ context.Context, eventID, lang string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.events[eventID]
	if !ok {
		return nil
	}
	kept := e.Translations[:0]
	for _, t := range e.Translations {
		if t.Lang != lang {
			kept = append(kept, t)
		}
	}
	e.Translations = kept
	return nil
}

func (f *fakeEvents) List(_ context.Context, flt repository.EventFilter, offset, limit int) ([]model.Event, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var all []model.Event
	for _, e := range f.db.events {
		if flt.Status != "" && e.Status != flt.Status {
			continue
		}
		if flt.ClubID != "" && e.ClubID != flt.ClubID {
			continue
		}
		if flt.StartFrom != nil && e.StartAt.Before(*flt.StartFrom) {
			continue
		}
		if flt.StartBefore != nil && !e.StartAt.Before(*flt.StartBefore) {
			continue
		}
		if flt.Tag != "" && !hasTag(e, flt.Tag) {
			continue
		}
		if flt.RelatedKind != "" {
			target := e.ID
			if flt.RelatedKind == model.RelationFollow {
				target = e.ClubID
			}
			if _, ok := f.db.rel[flt.RelatedKind][[2]string{flt.RelatedUser, target}]; !ok {
				continue
			}
		}
		all = append(all, *cloneEvent(e))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartAt.Equal(all[j].StartAt) {
			return all[i].StartAt.Before(all[j].StartAt)
		}
		return all[i].ID < all[j].ID
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func hasTag(e *model.Event, tag string) bool {
	for _, t := range e.Tags {
		if t.Tag == tag {
			return true
		}
	}
	return false
}

func (f *fakeEvents) AppendOutbox(_ context.Context, ob *model.Outbox) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ob.ID = uint64(len(f.db.outbox) + 1)
	f.db.outbox = append(f.db.outbox, *ob)
	return nil
}

// ---- relations

type fakeRelations struct{ db *fakeDB }

func (f fakeRelations) Add(_ context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.rel[kind] == nil {
		f.db.rel[kind] = map[[2]string]time.Time{}
	}
	key := [2]string{userID, targetID}
	if _, ok := f.db.rel[kind][key]; ok {
		return false, nil
	}
	f.db.rel[kind][key] = f.db.tick()
	return true, nil
}

func (f fakeRelations) Remove(_ context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	key := [2]string{userID, targetID}
	if _, ok := f.db.rel[kind][key]; !ok {
		return false, nil
	}
	delete(f.db.rel[kind], key)
	return true, nil
}

func (f fakeRelations) Exists(_ context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	_, ok := f.db.rel[kind][[2]string{userID, targetID}]
	return ok, nil
}

func (f fakeRelations) Count(_ context.Context, kind model.RelationKind, targetID string) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for pair := range f.db.rel[kind] {
		if pair[1] == targetID {
			n++
		}
	}
	return n, nil
}

func (f fakeRelations) ListForTarget(_ context.Context, kind model.RelationKind, targetID string, offset, limit int) ([]repository.Attendee, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var all []repository.Attendee
	for pair, at := range f.db.rel[kind] {
		if pair[1] != targetID {
			continue
		}
		a := repository.Attendee{UserID: pair[0], CreatedAt: at}
		if u, ok := f.db.users[pair[0]]; ok {
			a.FirstName, a.LastName = u.FirstName, u.LastName
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].UserID < all[j].UserID
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

// ---- cache, tokens, lock

type fakeCounts struct {
	mu   sync.Mutex
	m    map[string]int64
	hits int
}

func newFakeCounts() *fakeCounts { return &fakeCounts{m: map[string]int64{}} }

func (c *fakeCounts) key(kind model.RelationKind, id string) string { return string(kind) + ":" + id }

func (c *fakeCounts) Get(_ context.Context, kind model.RelationKind, id string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.m[c.key(kind, id)]
	if ok {
		c.hits++
	}
	return n, ok, nil
}

func (c *fakeCounts) Set(_ context.Context, kind model.RelationKind, id string, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[c.key(kind, id)] = n
	return nil
}

func (c *fakeCounts) Invalidate(_ context.Context, kind model.RelationKind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, c.key(kind, id))
	return nil
}

type fakeTokens struct {
	mu sync.Mutex
	m  map[string]string
}

func newFakeTokens() *fakeTokens { return &fakeTokens{m: map[string]string{}} }

func (t *fakeTokens) Save(_ context.Context, userID, token string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[userID] = token
	return nil
}

func (t *fakeTokens) Get(_ context.Context, userID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.m[userID]
	if !ok {
		return "", fmt.Errorf("token not found")
	}
	return tok, nil
}

func (t *fakeTokens) Extend(context.Context, string, time.Duration) error { return nil }

func (t *fakeTokens) Delete(_ context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, userID)
	return nil
}

type fakeLock struct {
	mu   sync.Mutex
	held map[string]string
}

func (l *fakeLock) Acquire(_ context.Context, key, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = token
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// ---- wiring

type testEnv struct {
	db       *fakeDB
	users    fakeUsers
	clubs    fakeClubs
	events   *fakeEvents
	rel      fakeRelations
	counts   *fakeCounts
	guard    *Guard
	eventSvc *EventService
	feedSvc  *FeedService
	relSvc   *RelationService
	clubSvc  *ClubService
}

func newTestEnv() *testEnv {
	db := newFakeDB()
	env := &testEnv{
		db:     db,
		users:  fakeUsers{db},
		clubs:  fakeClubs{db},
		events: &fakeEvents{db},
		rel:    fakeRelations{db},
		counts: newFakeCounts(),
	}
	log := zap.NewNop()
	cfg := FeedConfig{DefaultSize: 10, DaySize: 10, MaxSize: 10, OwnerMax: 50, SearchScan: 500}
	env.guard = NewGuard(env.events, env.clubs)
	env.eventSvc = NewEventService(env.events, env.clubs, env.counts, env.guard, log)
	env.feedSvc = NewFeedService(env.events, env.clubs, env.guard, cfg, log)
	env.relSvc = NewRelationService(env.rel, env.events, env.clubs, env.counts, env.guard, cfg, log)
	env.clubSvc = NewClubService(env.clubs, &fakeLock{}, env.guard, log)
	return env
}

func (env *testEnv) user(role model.Role, locale string) Actor {
	u := &model.User{Email: fmt.Sprintf("%s-%d@uni.edu", role, len(env.db.users)), Role: role, Locale: locale, FirstName: "F"}
	if err := env.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return Actor{UserID: u.ID, Role: role, Locale: locale}
}

// clubOwner creates a club account and its club.
func (env *testEnv) clubOwner(name string) (Actor, *ClubView) {
	actor := env.user(model.RoleClub, "en")
	club, err := env.clubSvc.Create(context.Background(), actor, CreateClubInput{Name: name})
	if err != nil {
		panic(err)
	}
	return actor, club
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tp(s string) *time.Time {
	t := ts(s)
	return &t
}

func sp(s string) *string { return &s }

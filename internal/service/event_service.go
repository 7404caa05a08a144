package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"UEvents/internal/locale"
	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

const maxTags = 10

type TranslationInput struct {
	Lang        string
	Title       string
	Description string
	PosterRef   *string
}

type CreateEventInput struct {
	StartAt      time.Time
	EndAt        *time.Time
	LocationName string
	Tags         []string
	Status       model.EventStatus // empty means draft
	Translations []TranslationInput
}

// UpdateEventInput is a partial update; nil fields are left unchanged.
type UpdateEventInput struct {
	StartAt      *time.Time
	EndAt        *time.Time
	ClearEndAt   bool
	LocationName *string
	Tags         *[]string
	Status       *model.EventStatus
}

// ValidationReport lists what stops an event from being published.
type ValidationReport struct {
	Publishable bool     `json:"publishable"`
	Issues      []string `json:"issues"`
}

type EventService struct {
	events repository.EventStore
	clubs  repository.ClubStore
	counts repository.CountCache
	guard  *Guard
	log    *zap.Logger
	now    func() time.Time
}

func NewEventService(events repository.EventStore, clubs repository.ClubStore, counts repository.CountCache, guard *Guard, log *zap.Logger) *EventService {
	return &EventService{
		events: events,
		clubs:  clubs,
		counts: counts,
		guard:  guard,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const (
	issueEndBeforeStart = "endAt must not be earlier than startAt"
	issueNoEnglish      = "an English translation is required to publish"
	issueNoLocation     = "locationName is required"
	issueNoTitle        = "title is required in at least one translation"
	issueNoDescription  = "description is required in at least one translation"
)

// publishIssues returns the unmet publish preconditions of e.
func publishIssues(e *model.Event) []string {
	var issues []string
	if e.EndAt != nil && e.EndAt.Before(e.StartAt) {
		issues = append(issues, issueEndBeforeStart)
	}
	if !e.HasTranslation(string(locale.English)) {
		issues = append(issues, issueNoEnglish)
	}
	return issues
}

// contentIssues reports gaps that do not block publishing but leave the listing thin.
func contentIssues(e *model.Event) []string {
	var issues []string
	if strings.TrimSpace(e.LocationName) == "" {
		issues = append(issues, issueNoLocation)
	}
	var hasTitle, hasDesc bool
	for _, t := range e.Translations {
		hasTitle = hasTitle || strings.TrimSpace(t.Title) != ""
		hasDesc = hasDesc || strings.TrimSpace(t.Description) != ""
	}
	if !hasTitle {
		issues = append(issues, issueNoTitle)
	}
	if !hasDesc {
		issues = append(issues, issueNoDescription)
	}
	return issues
}

func publishError(issues []string) error {
	return pkg.InvalidInput("cannot publish: " + strings.Join(issues, "; "))
}

// Create adds an event to the actor's club. It starts as a draft unless published is
// requested, in which case the publish preconditions must already hold.
func (s *EventService) Create(ctx context.Context, actor Actor, clubSlug string, in CreateEventInput) (*EventView, error) {
	club, err := s.guard.RequireClubOwner(ctx, actor, clubSlug)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = model.EventDraft
	}
	if !status.Valid() {
		return nil, pkg.InvalidInput("status must be draft or published")
	}
	if in.StartAt.IsZero() {
		return nil, pkg.InvalidInput("startAt is required")
	}
	location := strings.TrimSpace(in.LocationName)
	if location == "" {
		return nil, pkg.InvalidInput("locationName is required")
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	e := &model.Event{
		ClubID:       club.ID,
		CreatedBy:    actor.UserID,
		StartAt:      in.StartAt.UTC(),
		EndAt:        utcPtr(in.EndAt),
		LocationName: location,
		Status:       status,
	}
	if e.EndAt != nil && e.EndAt.Before(e.StartAt) {
		return nil, pkg.InvalidInput(issueEndBeforeStart)
	}
	for _, t := range tags {
		e.Tags = append(e.Tags, model.EventTag{Tag: t})
	}
	seen := make(map[string]bool, len(in.Translations))
	for _, tr := range in.Translations {
		row, err := translationRow("", tr)
		if err != nil {
			return nil, err
		}
		if seen[row.Lang] {
			return nil, pkg.InvalidInput("duplicate translation for " + row.Lang)
		}
		seen[row.Lang] = true
		e.Translations = append(e.Translations, *row)
	}
	if status == model.EventPublished {
		if issues := publishIssues(e); len(issues) > 0 {
			return nil, publishError(issues)
		}
	}

	err = s.events.Transaction(ctx, func(tx repository.EventStore) error {
		if err := tx.Create(ctx, e); err != nil {
			return err
		}
		if status == model.EventPublished {
			return s.appendOutbox(ctx, tx, model.TopicEventPublished, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("event created", zap.String("event_id", e.ID), zap.String("club_id", club.ID), zap.String("status", string(status)))
	return newEventView(e, club, preferredOf(actor), true), nil
}

// Update merges in into the stored event. A resulting status of published re-applies
// the publish preconditions.
func (s *EventService) Update(ctx context.Context, actor Actor, eventID string, in UpdateEventInput) (*EventView, error) {
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return nil, err
	}

	var topic string
	err := s.events.Transaction(ctx, func(tx repository.EventStore) error {
		e, err := tx.FindByID(ctx, eventID)
		if err != nil {
			return err
		}
		fields := map[string]any{}
		if in.StartAt != nil {
			e.StartAt = in.StartAt.UTC()
			fields["start_at"] = e.StartAt
		}
		if in.ClearEndAt {
			e.EndAt = nil
			fields["end_at"] = nil
		} else if in.EndAt != nil {
			e.EndAt = utcPtr(in.EndAt)
			fields["end_at"] = *e.EndAt
		}
		if e.EndAt != nil && e.EndAt.Before(e.StartAt) {
			return pkg.InvalidInput(issueEndBeforeStart)
		}
		if in.LocationName != nil {
			loc := strings.TrimSpace(*in.LocationName)
			if loc == "" {
				return pkg.InvalidInput("locationName must not be empty")
			}
			e.LocationName = loc
			fields["location_name"] = loc
		}
		var tags []string
		if in.Tags != nil {
			if tags, err = normalizeTags(*in.Tags); err != nil {
				return err
			}
			if tags == nil {
				tags = []string{}
			}
			e.Tags = e.Tags[:0]
			for _, t := range tags {
				e.Tags = append(e.Tags, model.EventTag{EventID: e.ID, Tag: t})
			}
		}
		if in.Status != nil && *in.Status != e.Status {
			if !in.Status.Valid() {
				return pkg.InvalidInput("status must be draft or published")
			}
			if *in.Status == model.EventPublished {
				if issues := publishIssues(e); len(issues) > 0 {
					return publishError(issues)
				}
				topic = model.TopicEventPublished
			} else {
				topic = model.TopicEventUnpublished
			}
			e.Status = *in.Status
			fields["status"] = e.Status
		}
		if err := tx.Update(ctx, eventID, fields, tags); err != nil {
			return err
		}
		if topic != "" {
			return s.appendOutbox(ctx, tx, topic, e)
		}
		return nil
	})
	if err != nil {
		return nil, s.notFound(err)
	}
	return s.ownerView(ctx, actor, eventID)
}

// Publish moves a draft to published. Publishing a published event writes nothing.
func (s *EventService) Publish(ctx context.Context, actor Actor, eventID string) (*EventView, error) {
	return s.transition(ctx, actor, eventID, model.EventPublished)
}

// Unpublish moves a published event back to draft. Already-draft events are a no-op.
func (s *EventService) Unpublish(ctx context.Context, actor Actor, eventID string) (*EventView, error) {
	return s.transition(ctx, actor, eventID, model.EventDraft)
}

func (s *EventService) transition(ctx context.Context, actor Actor, eventID string, to model.EventStatus) (*EventView, error) {
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return nil, err
	}

	changed := false
	err := s.events.Transaction(ctx, func(tx repository.EventStore) error {
		e, err := tx.FindByID(ctx, eventID)
		if err != nil {
			return err
		}
		if e.Status == to {
			return nil
		}
		topic := model.TopicEventUnpublished
		if to == model.EventPublished {
			if issues := publishIssues(e); len(issues) > 0 {
				return publishError(issues)
			}
			topic = model.TopicEventPublished
		}
		if err := tx.SetStatus(ctx, eventID, to); err != nil {
			return err
		}
		e.Status = to
		changed = true
		return s.appendOutbox(ctx, tx, topic, e)
	})
	if err != nil {
		return nil, s.notFound(err)
	}
	if changed {
		s.log.Info("event status changed", zap.String("event_id", eventID), zap.String("status", string(to)))
	}
	return s.ownerView(ctx, actor, eventID)
}

// Delete removes the event with its translations, tags, saves and RSVPs in one transaction.
func (s *EventService) Delete(ctx context.Context, actor Actor, eventID string) error {
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return err
	}
	err := s.events.Transaction(ctx, func(tx repository.EventStore) error {
		e, err := tx.FindByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, eventID); err != nil {
			return err
		}
		return s.appendOutbox(ctx, tx, model.TopicEventDeleted, e)
	})
	if err != nil {
		return s.notFound(err)
	}
	if s.counts != nil {
		if err := s.counts.Invalidate(ctx, model.RelationRSVP, eventID); err != nil {
			s.log.Warn("count cache invalidate failed", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	s.log.Info("event deleted", zap.String("event_id", eventID))
	return nil
}

// UpsertTranslation creates or overwrites the event's content in one language.
func (s *EventService) UpsertTranslation(ctx context.Context, actor Actor, eventID string, in TranslationInput) (*EventView, error) {
	row, err := translationRow(eventID, in)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return nil, err
	}
	if err := s.events.UpsertTranslation(ctx, row); err != nil {
		return nil, err
	}
	return s.ownerView(ctx, actor, eventID)
}

// DeleteTranslation removes one language. A published event stays published even when
// its English content goes away; Validate reports the gap.
func (s *EventService) DeleteTranslation(ctx context.Context, actor Actor, eventID, lang string) error {
	if !locale.IsSupported(locale.Lang(lang)) {
		return pkg.InvalidInput("unsupported language " + lang)
	}
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return err
	}
	return s.events.DeleteTranslation(ctx, eventID, lang)
}

// Validate reports whether the event could be published as it stands. Issues also
// lists content gaps that do not block publishing.
func (s *EventService) Validate(ctx context.Context, actor Actor, eventID string) (*ValidationReport, error) {
	if err := s.guard.RequireEventOwner(ctx, actor, eventID); err != nil {
		return nil, err
	}
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, s.notFound(err)
	}
	blocking := publishIssues(e)
	issues := append([]string{}, blocking...)
	issues = append(issues, contentIssues(e)...)
	return &ValidationReport{Publishable: len(blocking) == 0, Issues: issues}, nil
}

func (s *EventService) ownerView(ctx context.Context, actor Actor, eventID string) (*EventView, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, s.notFound(err)
	}
	club, err := s.clubs.FindByID(ctx, e.ClubID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	return newEventView(e, club, preferredOf(actor), true), nil
}

func (s *EventService) notFound(err error) error {
	if isNotFound(err) {
		return pkg.NotFound("event not found")
	}
	return err
}

type outboxPayload struct {
	EventID   string            `json:"event_id"`
	ClubID    string            `json:"club_id"`
	Status    model.EventStatus `json:"status"`
	StartAt   time.Time         `json:"start_at"`
	EventTime string            `json:"event_time"`
}

func (s *EventService) appendOutbox(ctx context.Context, tx repository.EventStore, topic string, e *model.Event) error {
	payload, err := json.Marshal(outboxPayload{
		EventID:   e.ID,
		ClubID:    e.ClubID,
		Status:    e.Status,
		StartAt:   e.StartAt,
		EventTime: s.now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, &model.Outbox{
		EventType:   topic,
		AggregateID: e.ID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	})
}

func translationRow(eventID string, in TranslationInput) (*model.EventTranslation, error) {
	lang := strings.ToLower(strings.TrimSpace(in.Lang))
	if !locale.IsSupported(locale.Lang(lang)) {
		return nil, pkg.InvalidInput("unsupported language " + in.Lang)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, pkg.InvalidInput("title is required")
	}
	return &model.EventTranslation{
		EventID:     eventID,
		Lang:        lang,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		PosterRef:   in.PosterRef,
	}, nil
}

// normalizeTags lower-cases, trims and de-duplicates tags, keeping first-seen order.
func normalizeTags(raw []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if len(t) > 64 {
			return nil, pkg.InvalidInput("tag too long: " + t)
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, pkg.InvalidInput("too many tags")
	}
	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func preferredOf(actor Actor) locale.Lang {
	return locale.Preferred("", actor.Locale, "")
}

package service

import (
	"time"

	"UEvents/internal/locale"
	"UEvents/internal/model"
)

type ClubSummary struct {
	ID      string  `json:"id"`
	Slug    string  `json:"slug"`
	Name    string  `json:"name"`
	LogoRef *string `json:"logoRef"`
}

type ClubView struct {
	ClubSummary
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

func newClubSummary(c *model.Club) *ClubSummary {
	if c == nil {
		return nil
	}
	return &ClubSummary{ID: c.ID, Slug: c.Slug, Name: c.Name, LogoRef: c.LogoRef}
}

func newClubView(c *model.Club) *ClubView {
	return &ClubView{ClubSummary: *newClubSummary(c), Bio: c.Bio, CreatedAt: c.CreatedAt}
}

// EventView is an event with its content resolved for one reader. Owner views also
// carry every stored translation.
type EventView struct {
	ID           string            `json:"id"`
	Club         *ClubSummary      `json:"club"`
	StartAt      time.Time         `json:"startAt"`
	EndAt        *time.Time        `json:"endAt"`
	LocationName string            `json:"locationName"`
	Tags         []string          `json:"tags"`
	Status       model.EventStatus `json:"status"`
	locale.Resolution
	Translations []locale.Variant `json:"translations,omitempty"`
}

func variantsOf(e *model.Event) []locale.Variant {
	out := make([]locale.Variant, 0, len(e.Translations))
	for _, t := range e.Translations {
		out = append(out, locale.Variant{
			Lang:        locale.Lang(t.Lang),
			Title:       t.Title,
			Description: t.Description,
			PosterRef:   t.PosterRef,
		})
	}
	return out
}

func newEventView(e *model.Event, club *model.Club, lang locale.Lang, owner bool) *EventView {
	variants := variantsOf(e)
	v := &EventView{
		ID:           e.ID,
		Club:         newClubSummary(club),
		StartAt:      e.StartAt.UTC(),
		EndAt:        e.EndAt,
		LocationName: e.LocationName,
		Tags:         e.TagNames(),
		Status:       e.Status,
		Resolution:   locale.Resolve(variants, lang),
	}
	if owner {
		v.Translations = variants
	}
	return v
}

// matches reports whether q occurs in the served title or description.
func (v *EventView) matches(lowerQ string) bool {
	if v.Chosen == nil {
		return false
	}
	return containsFold(v.Chosen.Title+"\n"+v.Chosen.Description, lowerQ)
}

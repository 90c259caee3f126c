package store

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
)

// Status is the lifecycle status of a wish.
type Status string

const (
	// Draft is a wish still being written.
	Draft Status = "DRAFT"
	// Review is a wish submitted for editorial review.
	Review Status = "REVIEW"
	// Approved is a wish released for publishing.
	Approved Status = "APPROVED"
	// Archived is a retired wish. Archived wishes are excluded from
	// similarity comparison.
	Archived Status = "ARCHIVED"
)

// String returns string value for Status.
func (s Status) String() string {
	return string(s)
}

// ComparisonEligible returns whether wishes with this status take part
// in similarity comparison.
func (s Status) ComparisonEligible() bool {
	return s != Archived
}

// Wish is the object representing a templated greeting-card text.
type Wish struct {
	ID        int32
	UID       string
	CreatedTs int64
	UpdatedTs int64
	Status    Status

	// Text is the comparison subject. It may contain template
	// placeholders such as {name}.
	Text string
	// Language is the 2-letter language code. Wishes are only ever
	// compared within the same language.
	Language string
	// Type is the wish type, e.g. "normal" or "funny".
	Type string
	// EventType is the occasion, e.g. "birthday" or "wedding".
	EventType string
}

// FindWish is the find condition for wish.
type FindWish struct {
	ID  *int32
	UID *string

	// Comparison partition filters
	Language  *string
	Type      *string
	EventType *string

	// Status filters
	Status        *Status
	ExcludeStatus *Status

	// ExcludeID filters out a single wish, used to exclude the
	// comparison subject from its own candidate set.
	ExcludeID *int32

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateWish is the update request for wish.
type UpdateWish struct {
	ID        int32
	UpdatedTs *int64
	Status    *Status
	Text      *string
	Language  *string
	Type      *string
	EventType *string
}

// DeleteWish is the delete request for wish.
type DeleteWish struct {
	ID int32
}

// CreateWish creates a new wish. A UID is generated when absent.
func (s *Store) CreateWish(ctx context.Context, create *Wish) (*Wish, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Status == "" {
		create.Status = Draft
	}
	return s.driver.CreateWish(ctx, create)
}

// ListWishes lists wishes with filter.
func (s *Store) ListWishes(ctx context.Context, find *FindWish) ([]*Wish, error) {
	return s.driver.ListWishes(ctx, find)
}

// GetWish gets a single wish with filter.
func (s *Store) GetWish(ctx context.Context, find *FindWish) (*Wish, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListWishes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateWish updates a wish.
func (s *Store) UpdateWish(ctx context.Context, update *UpdateWish) error {
	return s.driver.UpdateWish(ctx, update)
}

// DeleteWish deletes a wish. Cached similarity scores referencing the
// wish are removed alongside it.
func (s *Store) DeleteWish(ctx context.Context, delete *DeleteWish) error {
	if _, err := s.driver.DeleteSimilarityScoresInvolving(ctx, delete.ID); err != nil {
		return err
	}
	return s.driver.DeleteWish(ctx, delete)
}

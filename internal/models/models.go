package models

import "time"

// Model is a row persisted by a [Repository].
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // checked before every write
}

// SoftDeleted is a [Model] whose Delete only stamps deleted_at.
type SoftDeleted interface {
	Model
	DeletedAt() *time.Time
	IsDeleted() bool
}

// Repository is CRUD access for one model type.
//
// Get and List skip soft-deleted rows. Criteria keys for List are defined by each implementation.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

var _ SoftDeleted = (*CachedTrack)(nil)

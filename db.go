package powertimer

import "time"

type ExistingRecord[T ~string] struct {
	ID        T         `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewExistingRecord[T ~string](id string) ExistingRecord[T] {
	now := time.Now().UTC()
	return ExistingRecord[T]{
		ID:        T(id),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

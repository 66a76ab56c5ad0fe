package powertimer

import (
	"bytes"
	"encoding/json"
)

// Optional tracks whether a value was supplied at all. A JSON null decodes to
// an empty Optional.
type Optional[T any] struct {
	val     T
	present bool
}

func Some[T any](val T) Optional[T] {
	return Optional[T]{
		val:     val,
		present: true,
	}
}

func Empty[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) IsEmpty() bool {
	return !o.present
}

func (o Optional[T]) Get() T {
	return o.val
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Empty[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

package schema

// Field is one named header value. Value is rendered to text when headers are flattened.
type Field struct {
	Name  string
	Value any
}

// HeaderFields is implemented by caller header types. Entries returns one Field per
// header in the order they should be sent; an error means the value cannot be
// decomposed into headers.
type HeaderFields interface {
	Entries() ([]Field, error)
}

// ResponseShape parses a raw token response body into T.
type ResponseShape[T any] interface {
	Parse(raw []byte) (T, error)
}

// ShapeFunc adapts a plain function to ResponseShape.
type ShapeFunc[T any] func(raw []byte) (T, error)

func (f ShapeFunc[T]) Parse(raw []byte) (T, error) { return f(raw) }

// HeaderMap is an ordered HeaderFields for callers holding plain pairs.
type HeaderMap []Field

func (h HeaderMap) Entries() ([]Field, error) {
	out := make([]Field, len(h))
	copy(out, h)
	return out, nil
}

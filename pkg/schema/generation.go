package schema

import "sync"

// ErrSchemaSealed is returned by setters once a schema has been used for a call.
var ErrSchemaSealed = errorString("schema: sealed after first use")

type errorString string

func (e errorString) Error() string { return string(e) }

// Generation describes one token-generation call: outgoing headers, outgoing body and
// the shape of the response. Headers and body may be nil.
//
// A schema can be built all at once with New, or step by step from Empty. It is sealed
// the first time a provider uses it; after that it is read-only.
type Generation[T any] struct {
	mu       sync.RWMutex
	headers  HeaderFields
	body     any
	response ResponseShape[T]
	sealed   bool
}

func New[T any](headers HeaderFields, body any, response ResponseShape[T]) *Generation[T] {
	return &Generation[T]{headers: headers, body: body, response: response}
}

func Empty[T any]() *Generation[T] { return &Generation[T]{} }

func (g *Generation[T]) Headers() HeaderFields {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.headers
}

func (g *Generation[T]) Body() any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.body
}

func (g *Generation[T]) Response() ResponseShape[T] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.response
}

func (g *Generation[T]) SetHeaders(h HeaderFields) error {
	return g.mutate(func() { g.headers = h })
}

func (g *Generation[T]) SetBody(b any) error {
	return g.mutate(func() { g.body = b })
}

func (g *Generation[T]) SetResponse(r ResponseShape[T]) error {
	return g.mutate(func() { g.response = r })
}

// Seal freezes the schema. Safe to call repeatedly.
func (g *Generation[T]) Seal() {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
}

func (g *Generation[T]) Sealed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sealed
}

func (g *Generation[T]) mutate(fn func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return ErrSchemaSealed
	}
	fn()
	return nil
}

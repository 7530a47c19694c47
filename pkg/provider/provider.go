package provider

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/joeydtaylor/tokenfactory/pkg/codec"
	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"github.com/joeydtaylor/tokenfactory/pkg/transport/httpx"
	"go.uber.org/zap"
)

// Provider performs token-generation calls described by a schema.Generation and maps
// the reply into the schema's response shape.
type Provider[T any] struct {
	urls  config.URLSource
	ex    httpx.Exchanger
	codec codec.Codec
	log   *zap.Logger
}

type options struct {
	codec codec.Codec
}

type Option func(*options)

// WithCodec sets the request body codec (JSON by default).
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

func New[T any](urls config.URLSource, ex httpx.Exchanger, log *zap.Logger, opts ...Option) *Provider[T] {
	o := options{codec: codec.JSON}
	for _, fn := range opts {
		fn(&o)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider[T]{urls: urls, ex: ex, codec: o.codec, log: log}
}

// Authenticate validates the configured URL, flattens the schema headers, POSTs the
// schema body and parses the reply. It makes at most one outbound call and never
// retries. Transport errors are returned unwrapped.
func (p *Provider[T]) Authenticate(ctx context.Context, g *schema.Generation[T]) (T, error) {
	var zero T

	url := ""
	if p.urls != nil {
		url = strings.TrimSpace(p.urls.TokenGenerationURL())
	}
	if url == "" {
		p.log.Error(ErrURLNotProvided.Error())
		generationTotal.WithLabelValues(outcomeNoURL).Inc()
		return zero, ErrURLNotProvided
	}

	if g == nil {
		g = schema.Empty[T]()
	}
	g.Seal()

	headers, err := flatten(g.Headers())
	if err != nil {
		p.log.Error(ErrHeaderManipulation.Error(), zap.Error(err))
		generationTotal.WithLabelValues(outcomeHeaders).Inc()
		return zero, ErrHeaderManipulation
	}

	body, err := p.codec.Marshal(g.Body())
	if err != nil {
		generationTotal.WithLabelValues(outcomeEncode).Inc()
		return zero, fmt.Errorf("encode token request body: %w", err)
	}

	start := time.Now()
	reply, err := p.ex.Exchange(ctx, httpx.Request{
		URL:         url,
		Method:      http.MethodPost,
		Headers:     headers,
		Body:        body,
		ContentType: p.codec.ContentType(),
	})
	generationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		generationTotal.WithLabelValues(outcomeTransport).Inc()
		return zero, err
	}

	shape := g.Response()
	if shape == nil {
		p.log.Error(ErrResponseMapping.Error(), zap.String("cause", "response shape not provided"), zap.Int("status", reply.Status))
		generationTotal.WithLabelValues(outcomeMapping).Inc()
		return zero, ErrResponseMapping
	}
	v, err := shape.Parse([]byte(reply.Body))
	if err != nil {
		p.log.Error(ErrResponseMapping.Error(), zap.Error(err), zap.Int("status", reply.Status))
		generationTotal.WithLabelValues(outcomeMapping).Inc()
		return zero, ErrResponseMapping
	}

	p.log.Debug("token generated", zap.Int("status", reply.Status), zap.Duration("lat", time.Since(start)))
	generationTotal.WithLabelValues(outcomeOK).Inc()
	return v, nil
}

// flatten turns header fields into name/text pairs. A nil value yields no headers.
func flatten(h schema.HeaderFields) ([]httpx.Header, error) {
	if isNil(h) {
		return []httpx.Header{}, nil
	}
	fields, err := h.Entries()
	if err != nil {
		return nil, err
	}
	out := make([]httpx.Header, 0, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("header %d has no name", i)
		}
		out = append(out, httpx.Header{Name: f.Name, Value: render(f.Value)})
	}
	return out, nil
}

// render converts a header value to text. Nil values render as "null". Stringer and
// error are checked before pointers are followed so pointer-receiver methods apply.
func render(v any) string {
	if isNil(v) {
		return "null"
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		return render(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

package log

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Тесты меняют slog.Default(), поэтому t.Parallel() не используется.

func newSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recHandler пишет атрибуты записей в общий sink; WithAttrs возвращает копию,
// как это делают хендлеры slog.
type recHandler struct {
	sink  map[string]any
	attrs []slog.Attr
}

func (h *recHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recHandler) Handle(_ context.Context, r slog.Record) error {
	for _, a := range h.attrs {
		h.sink[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		h.sink[a.Key] = a.Value.Any()
		return true
	})
	return nil
}

func (h *recHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &recHandler{sink: h.sink, attrs: make([]slog.Attr, 0, len(h.attrs)+len(attrs))}
	next.attrs = append(next.attrs, h.attrs...)
	next.attrs = append(next.attrs, attrs...)
	return next
}

func (h *recHandler) WithGroup(string) slog.Handler { return h }

func TestFrom_ReturnsDefault_WhenNoLoggerInContext(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)

	require.Equal(t, def, From(context.Background()))
}

func TestIntoAndFrom_RoundTrip(t *testing.T) {
	l := newSilent()
	ctx := Into(context.Background(), l)

	require.Equal(t, l, From(ctx))
}

func TestFrom_ReturnsDefault_WhenStoredValueIsWrongTypeOrNil(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	def := newSilent()
	slog.SetDefault(def)

	ctxWrong := context.WithValue(context.Background(), ctxKey{}, "not-a-logger")
	require.Equal(t, def, From(ctxWrong))

	var nilLogger *slog.Logger
	ctxNil := context.WithValue(context.Background(), ctxKey{}, nilLogger)
	require.Equal(t, def, From(ctxNil))
}

func TestWith_AddsAttrs_WithoutTouchingParent(t *testing.T) {
	sink := map[string]any{}
	base := slog.New(&recHandler{sink: sink})

	parent := Into(context.Background(), base)
	child := With(parent, "op", "service.auth.Login")

	require.Same(t, base, From(parent))
	require.NotSame(t, base, From(child))

	From(parent).Info("parent")
	require.NotContains(t, sink, "op")

	From(child).Info("child")
	require.Equal(t, "service.auth.Login", sink["op"])
}

func TestWith_NoAttrs_ReturnsSameContext(t *testing.T) {
	ctx := Into(context.Background(), newSilent())
	require.Equal(t, ctx, With(ctx))
}

func TestInto_PreservesDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ctx := Into(parent, newSilent())

	pdl, _ := parent.Deadline()
	cdl, ok := ctx.Deadline()
	require.True(t, ok)
	require.Equal(t, pdl, cdl)
}

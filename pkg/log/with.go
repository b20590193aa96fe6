package log

// fieldBinder is implemented by loggers that can attach fields natively.
type fieldBinder interface {
	With(fields ...Field) Logger
}

// With returns a logger that adds fields to every message. A nil logger
// yields Discard.
func With(l Logger, fields ...Field) Logger {
	switch {
	case l == nil:
		return Discard
	case len(fields) == 0:
		return l
	case l == Discard:
		return l
	}
	if b, ok := l.(fieldBinder); ok {
		return b.With(fields...)
	}
	return &bound{inner: l, fields: fields}
}

type bound struct {
	inner  Logger
	fields []Field
}

func (b *bound) merge(fields []Field) []Field {
	out := make([]Field, 0, len(b.fields)+len(fields))
	out = append(out, b.fields...)
	return append(out, fields...)
}

func (b *bound) Debug(msg string, fields ...Field) { b.inner.Debug(msg, b.merge(fields)...) }
func (b *bound) Info(msg string, fields ...Field)  { b.inner.Info(msg, b.merge(fields)...) }
func (b *bound) Warn(msg string, fields ...Field)  { b.inner.Warn(msg, b.merge(fields)...) }
func (b *bound) Error(msg string, fields ...Field) { b.inner.Error(msg, b.merge(fields)...) }

func (b *bound) With(fields ...Field) Logger {
	return &bound{inner: b.inner, fields: b.merge(fields)}
}

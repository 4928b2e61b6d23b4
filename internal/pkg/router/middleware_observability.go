package router

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 32 * 1024

// recorder captures what a handler wrote so it can be logged once the
// handler returns. Inner middleware report the handler error and the
// authenticated client through SetError and SetClient.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
	client string
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - w.body.Len(); room < len(p) {
		w.body.Write(p[:max(room, 0)])
		w.capped = true
	} else {
		w.body.Write(p)
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *recorder) SetError(err error) { w.err = err }

func (w *recorder) SetClient(id string) { w.client = id }

func (w *recorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (w *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *recorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

type observer struct {
	masker   *instrument.Masker
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newObserver(cfg config.Config, ins instrument.Instrumentation) *observer {
	var fields []string
	if cfg != nil {
		fields = cfg.GetArray("instrument.log_mask_fields")
	}
	if ins == nil {
		ins = instrument.NewNoop()
	}

	meter := ins.Meter("http.server")
	o := &observer{
		masker: instrument.NewMasker(fields),
		tracer: ins.Tracer("http.server"),
	}

	var err error
	if o.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if o.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return o
}

// body renders a captured payload for logging. Multipart uploads and
// binary content are never logged.
func (o *observer) body(contentType string, payload []byte, capped bool) any {
	if len(payload) == 0 {
		return nil
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "multipart/"):
		return "<multipart body omitted>"
	case strings.HasPrefix(ct, "application/octet-stream"):
		return "<binary body omitted>"
	}

	var out any
	if masked, ok := o.masker.JSON(payload); ok {
		out = masked
	} else if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		out = o.form(payload)
	}

	if out == nil {
		if strings.HasPrefix(ct, "application/json") {
			return "<unparsable json body omitted>"
		}
		if !utf8.Valid(payload) {
			return "<binary body omitted>"
		}
		out = o.masker.Value(string(payload))
	}

	if capped {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

func (o *observer) form(payload []byte) any {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil
	}

	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return o.masker.Value(out)
}

// peek reads up to maxLoggedBodyBytes of the request body and restores it
// for the handler.
func peek(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	//nolint:errcheck // best effort for logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	if len(head) > maxLoggedBodyBytes {
		return head[:maxLoggedBodyBytes], true
	}
	return head, false
}

func (o *observer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := matchedRoutePath(r)

		ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			),
		)
		defer span.End()

		var reqBody any
		if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
			payload, capped := peek(r)
			reqBody = o.body(r.Header.Get("Content-Type"), payload, capped)
		} else if r.ContentLength != 0 {
			reqBody = "<multipart body omitted>"
		}

		slog.InfoContext(ctx, "request received",
			"method", r.Method,
			"path", route,
			"uri", r.RequestURI,
			"headers", o.masker.Header(r.Header),
			"body", reqBody,
		)

		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.code()
		elapsed := time.Since(start)
		attrs := []attribute.KeyValue{
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCodeKey.Int(status),
		}

		if rec.err != nil {
			span.RecordError(rec.err)
		}
		switch {
		case status >= http.StatusInternalServerError && rec.err != nil:
			span.SetStatus(codes.Error, rec.err.Error())
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		default:
			span.SetStatus(codes.Ok, "")
		}

		span.SetAttributes(attrs...)
		span.SetAttributes(
			semconv.NetworkProtocolVersionKey.String(r.Proto),
			semconv.ServerAddressKey.String(r.Host),
			semconv.UserAgentOriginalKey.String(r.UserAgent()),
			attribute.Int("http.response_content_length", rec.bytes),
		)
		if rec.client != "" {
			span.SetAttributes(attribute.String("goseal.client_id", rec.client))
		}

		if o.requests != nil {
			o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if o.duration != nil {
			o.duration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
		}

		slog.InfoContext(ctx, "response sent",
			"method", r.Method,
			"path", route,
			"status", status,
			"client_id", rec.client,
			"bytes", rec.bytes,
			"latency_ms", elapsed.Milliseconds(),
			"body", o.body(w.Header().Get("Content-Type"), rec.body.Bytes(), rec.capped),
		)
	})
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	return newObserver(cfg, ins).middleware
}

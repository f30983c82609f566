package httprouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"time"

	"cobaltctl/internal/config"
	"cobaltctl/internal/consts"
	"cobaltctl/internal/errs"
	"cobaltctl/internal/infrastructure/delivery/http/middleware"
	"cobaltctl/internal/infrastructure/delivery/http/request"
	"cobaltctl/internal/infrastructure/delivery/http/response"
	"cobaltctl/internal/mediafile"
	"cobaltctl/internal/observability"
	"cobaltctl/internal/preset"
	"cobaltctl/pkg/cobalt"
)

// MediaClient is the part of *cobalt.Client the gateway uses.
type MediaClient interface {
	Status(ctx context.Context) (*cobalt.ServiceStatus, error)
	Services(ctx context.Context) ([]string, error)
	GetMedia(ctx context.Context, apiKey string, req cobalt.ExtractionRequest) (cobalt.Response, error)
	Stream(ctx context.Context, sourceURL string, w io.Writer, opts ...cobalt.DownloadOption) (int64, error)
}

type Router struct {
	*http.ServeMux
	log         *slog.Logger
	cfg         *config.Config
	globalChain []func(http.Handler) http.Handler
	routeChain  []func(http.Handler) http.Handler
	isSubRouter bool
	client      MediaClient
	presets     *preset.Store
	metrics     *observability.Metrics
}

func New(log *slog.Logger, cfg *config.Config, client MediaClient, presets *preset.Store, metrics *observability.Metrics) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log.With(slog.String("package", "httprouter")),
		cfg:      cfg,
		client:   client,
		presets:  presets,
		metrics:  metrics,
	}

	r.SetGlobalMiddlewares()
	r.SetRoutes()

	return r
}

func (r *Router) Use(middleware ...func(http.Handler) http.Handler) {
	if r.isSubRouter {
		r.routeChain = append(r.routeChain, middleware...)
	} else {
		r.globalChain = append(r.globalChain, middleware...)
	}
}

func (r *Router) Group(fn func(r *Router)) {
	subRouter := &Router{
		isSubRouter: true,
		routeChain:  slices.Clone(r.routeChain),
		ServeMux:    r.ServeMux,
	}

	fn(subRouter)
}

func (r *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	r.Handle(pattern, h)
}

func (r *Router) Handle(pattern string, h http.Handler) {
	for _, middleware := range slices.Backward(r.routeChain) {
		h = middleware(h)
	}
	r.ServeMux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = r.ServeMux

	for _, middleware := range slices.Backward(r.globalChain) {
		h = middleware(h)
	}

	h.ServeHTTP(w, req)
}

func (r *Router) SetGlobalMiddlewares() {
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.Logger,
		middleware.CORS(r.cfg.HTTP.CORSOrigins),
	)

	// innermost, so the matched pattern is visible
	if r.metrics != nil {
		r.Use(middleware.Metrics(r.metrics))
	}
}

func (r *Router) SetRoutes() {
	r.SetRoutesHealthcheck()
	r.SetRoutesInstance()

	if r.metrics != nil {
		r.Handle("GET /metrics", r.metrics.Handler())
	}
}

func (r *Router) SetRoutesHealthcheck() {
	r.HandleFunc("GET /v1/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func (ro *Router) SetRoutesInstance() {
	ro.Group(func(r *Router) {
		r.Use(middleware.Timeout(ro.handlerTimeout()))

		r.HandleFunc("GET /v1/instance/status", ro.Status)
		r.HandleFunc("GET /v1/instance/services", ro.Services)
		r.HandleFunc("POST /v1/media", ro.Media)
	})

	// bounded by its own resolve and download timeouts
	ro.HandleFunc("POST /v1/media/download", ro.Download)

	ro.HandleFunc("GET /v1/presets", ro.Presets)
	ro.HandleFunc("GET /v1/presets/{name}", ro.Preset)
}

func (ro *Router) handlerTimeout() time.Duration {
	if ro.cfg.HTTP.HandlerTimeout > 0 {
		return ro.cfg.HTTP.HandlerTimeout
	}

	return consts.DefaultHandlerTimeout
}

func (ro *Router) downloadTimeout() time.Duration {
	if ro.cfg.Transport.DownloadTimeout > 0 {
		return ro.cfg.Transport.DownloadTimeout
	}

	return consts.DefaultDownloadTimeout
}

func (ro *Router) Status(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Status")
	ctx := r.Context()

	status, err := ro.client.Status(ctx)
	if err != nil {
		ro.instanceError(ctx, log, w, err)

		return
	}

	response.OK(w, consts.RespStatusRetrieved, status, nil)
}

func (ro *Router) Services(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Services")
	ctx := r.Context()

	services, err := ro.client.Services(ctx)
	if errors.Is(err, cobalt.ErrNoServices) {
		log.WarnContext(ctx, consts.RespNoServices)
		response.ServiceUnavailable(w, consts.RespNoServices, err)

		return
	}

	if err != nil {
		ro.instanceError(ctx, log, w, err)

		return
	}

	response.OK(w, consts.RespServicesRetrieved, services, nil)
}

func (ro *Router) Media(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Media")
	ctx := r.Context()

	apiKey, req, ok := ro.mediaRequest(ctx, log, w, r)
	if !ok {
		return
	}

	resp, err := ro.client.GetMedia(ctx, apiKey, req)
	if err != nil {
		ro.instanceError(ctx, log, w, err)

		return
	}

	ro.resolved(ctx, log, req, resp)

	response.OK(w, consts.RespMediaResolved, resp, nil)
}

// Download resolves the body like Media and streams the chosen file back.
// The item query parameter selects a picker entry; without it a picker's audio track is sent.
func (ro *Router) Download(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Download")
	ctx := r.Context()

	item := mediafile.NoItem
	if raw := r.URL.Query().Get("item"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(w, consts.RespInvalidItem, fmt.Errorf("%w: %q", errs.ErrInvalidItem, raw))

			return
		}

		item = n
	}

	apiKey, req, ok := ro.mediaRequest(ctx, log, w, r)
	if !ok {
		return
	}

	resolveCtx, cancel := context.WithTimeout(ctx, ro.handlerTimeout())
	resp, err := ro.client.GetMedia(resolveCtx, apiKey, req)
	cancel()

	if err != nil {
		ro.instanceError(ctx, log, w, err)

		return
	}

	ro.resolved(ctx, log, req, resp)

	source, name, err := mediafile.Target(resp, item)
	if err != nil {
		log.WarnContext(ctx, consts.RespNotDownloadable, slog.Any("error", err))
		response.UnprocessableEntity(w, consts.RespNotDownloadable, err)

		return
	}

	timeout := ro.downloadTimeout()

	// the server write timeout is sized for API calls
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		log.DebugContext(ctx, "write deadline not extended", slog.Any("error", err))
	}

	dlCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fw := &fileWriter{w: w, name: name}

	written, err := ro.client.Stream(dlCtx, source, fw)

	switch {
	case err == nil:
		log.InfoContext(ctx, consts.RespFileStreamed, slog.String("file", name), slog.Int64("bytes", written))
	case !fw.started:
		ro.sourceError(ctx, log, w, err)
	default:
		// the status line is gone; dropping the connection is the only way to signal failure
		log.ErrorContext(ctx, consts.RespStreamInterrupted,
			slog.String("file", name), slog.Int64("bytes", written), slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (ro *Router) Presets(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, consts.RespPresetsRetrieved, ro.presets.Names(), nil)
}

func (ro *Router) Preset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	req, err := ro.presets.Request(name, "")
	if err != nil {
		response.NotFound(w, consts.RespPresetNotFound, err)

		return
	}

	response.OK(w, consts.RespPresetRetrieved, req, nil)
}

// mediaRequest authenticates and decodes a media body, applying its preset.
// It writes the error response itself and reports false when the request is rejected.
func (ro *Router) mediaRequest(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request) (string, cobalt.ExtractionRequest, bool) {
	apiKey, err := request.APIKey(r)
	if err != nil {
		log.WarnContext(ctx, consts.RespUnauthorized, slog.Any("error", err))
		response.Unauthorized(w, consts.RespUnauthorized, err)

		return "", cobalt.ExtractionRequest{}, false
	}

	var in request.Media
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, consts.MaxRequestBodySize)).Decode(&in); err != nil {
		log.ErrorContext(ctx, consts.RespInvalidRequestBody, slog.Any("error", err))
		response.BadRequest(w, consts.RespInvalidRequestBody, fmt.Errorf("%w: %w", errs.ErrInvalidRequestBody, err))

		return "", cobalt.ExtractionRequest{}, false
	}

	if err := in.Validate(); err != nil {
		log.ErrorContext(ctx, consts.RespUnprocessableEntity, slog.Any("error", err))
		response.UnprocessableEntity(w, consts.RespUnprocessableEntity, err)

		return "", cobalt.ExtractionRequest{}, false
	}

	req := in.ExtractionRequest
	if in.Preset != "" {
		base, err := ro.presets.Request(in.Preset, in.URL)
		if err != nil {
			log.WarnContext(ctx, consts.RespPresetNotFound, slog.String("preset", in.Preset))
			response.UnprocessableEntity(w, consts.RespPresetNotFound, err)

			return "", cobalt.ExtractionRequest{}, false
		}

		req = preset.Merge(base, in.ExtractionRequest)
	}

	return apiKey, req, true
}

func (ro *Router) resolved(ctx context.Context, log *slog.Logger, req cobalt.ExtractionRequest, resp cobalt.Response) {
	if ro.metrics != nil {
		ro.metrics.RecordMediaResponse(resp)
	}

	log.InfoContext(ctx, consts.RespMediaResolved,
		slog.String("url", req.URL),
		slog.String("status", resp.Status().String()))
}

// sourceError maps a download that failed before any byte was sent.
func (ro *Router) sourceError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		log.WarnContext(ctx, consts.RespSourceTimeout, slog.Any("error", err))
		response.GatewayTimeout(w, consts.RespSourceTimeout, err)

		return
	}

	upstream := response.Upstream{Kind: "download"}

	var dlErr *cobalt.DownloadError
	if errors.As(err, &dlErr) {
		upstream.StatusCode = dlErr.StatusCode
	}

	log.ErrorContext(ctx, consts.RespSourceRejected, slog.Any("error", err))
	response.BadGateway(w, consts.RespSourceRejected, upstream, err)
}

// fileWriter sends attachment headers with the first byte of the file.
type fileWriter struct {
	w       http.ResponseWriter
	name    string
	started bool
}

func (f *fileWriter) Write(b []byte) (int, error) {
	if !f.started {
		f.started = true

		h := f.w.Header()
		h.Set("Content-Type", "application/octet-stream")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.name}))
		f.w.WriteHeader(http.StatusOK)
	}

	return f.w.Write(b)
}

// instanceError maps a client failure onto a gateway status.
func (ro *Router) instanceError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error) {
	var mediaErr *cobalt.MediaError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.WarnContext(ctx, consts.RespInstanceTimeout, slog.Any("error", err))
		response.GatewayTimeout(w, consts.RespInstanceTimeout, err)
	case errors.Is(err, cobalt.ErrEmptyURL):
		response.UnprocessableEntity(w, consts.RespUnprocessableEntity, errs.ErrInvalidURL)
	case errors.As(err, &mediaErr):
		upstream := response.Upstream{
			Kind:       mediaErr.Kind.String(),
			StatusCode: mediaErr.StatusCode,
			Body:       mediaErr.Body,
		}

		msg := consts.RespInstanceUnreachable

		switch mediaErr.Kind {
		case cobalt.KindAPI:
			msg = consts.RespInstanceRejected
		case cobalt.KindDeserialization:
			msg = consts.RespInstanceBadPayload
		}

		log.ErrorContext(ctx, msg, slog.Any("error", err))
		response.BadGateway(w, msg, upstream, err)
	default:
		log.ErrorContext(ctx, consts.RespInternalError, slog.Any("error", err))
		response.InternalServerError(w, consts.RespInternalError, nil, err)
	}
}

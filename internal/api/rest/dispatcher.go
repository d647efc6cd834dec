package rest

import (
	"context"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/meapp/restapi/internal/api/apierr"
	"github.com/meapp/restapi/pkg/httpx"
	"github.com/meapp/restapi/pkg/slogx"
)

// endpointPath matches "group/endpoint" after the base path is stripped.
var endpointPath = regexp.MustCompile(`^([0-9a-zA-Z_+-]+)/([0-9a-zA-Z_+-]+)$`)

// Dispatcher is the single HTTP entrypoint. It resolves the route, runs the
// AAA pipeline, invokes the handler and renders the envelope, translating
// every error into the error envelope with the matching status code.
type Dispatcher struct {
	Registry *Registry
	Pipeline *Pipeline
	Config   Config

	// Now is the envelope clock, replaceable in tests.
	Now func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := &Request{HTTP: r, started: d.now()}

	resp, err := d.dispatch(r.Context(), req)
	if err != nil {
		d.writeError(w, req, err)
		return
	}
	d.writeResponse(w, req, resp)
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request) (*Response, error) {
	group, endpoint, err := d.parsePath(req.HTTP.URL.Path)
	if err != nil {
		return nil, err
	}
	req.Group = group
	req.Endpoint = endpoint

	ep, err := d.Registry.Lookup(group, endpoint)
	if err != nil {
		return nil, err
	}

	if err := d.Pipeline.Run(ctx, req, ep); err != nil {
		return nil, err
	}

	return ep.Handler(ctx, req)
}

// parsePath strips the configured base path and splits the remainder into
// the group and endpoint names.
func (d *Dispatcher) parsePath(path string) (group, endpoint string, err error) {
	base := d.Config.BasePath
	if !strings.HasPrefix(path, base) {
		return "", "", apierr.InvalidEndpointPath(path)
	}
	rest := strings.TrimPrefix(path, base)
	rest = strings.Trim(rest, "/")

	m := endpointPath.FindStringSubmatch(rest)
	if m == nil {
		return "", "", apierr.InvalidEndpointPath(path)
	}
	return m[1], m[2], nil
}

func (d *Dispatcher) writeResponse(w http.ResponseWriter, req *Request, resp *Response) {
	params := pageParams{page: 1, itemsPerPage: d.Config.MaxItemsPerPage}
	if resp != nil && resp.Type == TypeDataset && resp.Paginate {
		var err error
		params, err = parsePageParams(req, d.Config.MaxItemsPerPage)
		if err != nil {
			d.writeError(w, req, err)
			return
		}
	}

	body, err := envelope(req, resp, params, d.now())
	if err != nil {
		d.writeError(w, req, err)
		return
	}
	d.writeJSON(w, req, http.StatusOK, body)
}

// writeError renders the error envelope. Server-class and unclassified
// failures are always logged; the response only carries diagnostic detail
// when the show-exceptions flag is on.
func (d *Dispatcher) writeError(w http.ResponseWriter, req *Request, err error) {
	apiErr := apierr.From(err)
	status := apiErr.HTTPStatus()

	log := slogx.FromContext(req.HTTP.Context())

	if status >= http.StatusInternalServerError {
		attrs := []any{
			"error", err,
			"code", apiErr.Code,
			"path", req.HTTP.URL.Path,
		}
		if apiErr.Code == apierr.CodeUnclassified {
			attrs = append(attrs, "stack", string(debug.Stack()))
		}
		log.Error("request failed", attrs...)
	}

	errBody := map[string]any{
		"code": apiErr.Code,
		"text": apierr.StatusText(status),
		"path": req.HTTP.URL.Path,
	}
	if d.Config.ShowExceptions {
		errBody["exception"] = apiErr.Message
		errBody["description"] = err.Error()
		errBody["traceback"] = string(debug.Stack())
	}

	// Error bodies carry only the error section, unlike the regular envelope.
	d.writeJSON(w, req, status, map[string]any{"error": errBody})
}

// writeJSON honors the pretty query parameter on any response.
func (d *Dispatcher) writeJSON(w http.ResponseWriter, req *Request, status int, body any) {
	if req.HTTP.URL.Query().Has("pretty") {
		httpx.WriteJSONPretty(w, status, body)
		return
	}
	httpx.WriteJSON(w, status, body)
}

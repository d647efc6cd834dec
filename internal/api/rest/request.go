package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/meapp/restapi/internal/api/apierr"
	"github.com/meapp/restapi/internal/api/domain"
)

// Request carries everything a handler needs: the raw HTTP request, the
// resolved route and the identities established by the pipeline.
type Request struct {
	HTTP     *http.Request
	Group    string
	Endpoint string

	// Client is always set once authentication succeeded. User is only set
	// when the call was made with a user token.
	Client *domain.ClientToken
	User   *domain.UserToken

	started time.Time
}

// DecodeJSON reads the request body into v. A missing or malformed body is a
// client mistake, reported through the taxonomy.
func (r *Request) DecodeJSON(v any) error {
	if r.HTTP.Body == nil {
		return apierr.MissingField("body")
	}
	if err := json.NewDecoder(r.HTTP.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.MissingField("body")
		}
		return apierr.InvalidField("body", "not valid JSON")
	}
	return nil
}

// Query returns a query string parameter, or the empty string.
func (r *Request) Query(name string) string {
	return r.HTTP.URL.Query().Get(name)
}

// HandlerFunc is the signature every registered endpoint implements. Errors
// flow up to the dispatcher, which translates them to an error envelope.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

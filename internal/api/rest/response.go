package rest

import (
	"reflect"
	"strconv"
	"time"

	"github.com/meapp/restapi/internal/api/apierr"
)

// ResponseType discriminates the envelope kinds an endpoint can produce.
type ResponseType string

const (
	TypeDataset ResponseType = "dataset" // lists of objects, paginated
	TypeRecord  ResponseType = "record"  // a single created or modified object
	TypeDone    ResponseType = "done"    // a boolean outcome
)

// Response is what a handler returns. The dispatcher turns it into the JSON
// envelope; handlers never write to the ResponseWriter themselves.
type Response struct {
	Type ResponseType

	// Data holds a slice for datasets, an object for records and a bool for
	// done responses.
	Data any

	// DataText optionally carries a human-readable hint alongside the data,
	// used for soft failures that are not taxonomy errors.
	DataText string

	// Paginate can be disabled by endpoints that slice their own data.
	Paginate bool
}

// NewDataset returns a dataset response with pagination enabled.
func NewDataset(data any) *Response {
	return &Response{Type: TypeDataset, Data: data, Paginate: true}
}

// NewRecord returns a record response wrapping a single object.
func NewRecord(object any) *Response {
	return &Response{Type: TypeRecord, Data: object}
}

// NewDone returns a done response carrying an outcome flag.
func NewDone(ok bool) *Response {
	return &Response{Type: TypeDone, Data: ok}
}

// WithText attaches a data_text hint to the response.
func (r *Response) WithText(text string) *Response {
	r.DataText = text
	return r
}

// pageParams holds the validated pagination inputs read from the query string.
type pageParams struct {
	page         int
	itemsPerPage int
}

// parsePageParams reads page and limit from the query string. Both are
// optional; absent values fall back to page 1 and the configured maximum.
func parsePageParams(req *Request, maxItemsPerPage int) (pageParams, error) {
	p := pageParams{page: 1, itemsPerPage: maxItemsPerPage}

	if raw := req.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apierr.InvalidField("page", "not an integer")
		}
		p.page = n
	}
	if raw := req.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apierr.InvalidField("limit", "not an integer")
		}
		if n < 1 {
			return p, apierr.InvalidField("limit", "must be at least 1")
		}
		if n > maxItemsPerPage {
			n = maxItemsPerPage
		}
		p.itemsPerPage = n
	}
	return p, nil
}

// envelope assembles the wire representation of a non-error response. started
// is the pipeline entry time used for the runtime field.
func envelope(req *Request, resp *Response, params pageParams, now time.Time) (map[string]any, error) {
	if resp == nil {
		return nil, apierr.WrongResponseType()
	}

	body := map[string]any{
		"request": map[string]any{
			"group":    req.Group,
			"endpoint": req.Endpoint,
		},
		"response": map[string]any{
			"type":    string(resp.Type),
			"runtime": roundRuntime(now.Sub(req.started)),
		},
	}

	switch resp.Type {
	case TypeDataset:
		v := reflect.ValueOf(resp.Data)
		if !v.IsValid() || v.Kind() != reflect.Slice {
			return nil, apierr.DataNotAList()
		}

		data := resp.Data
		allItemCount := v.Len()
		page := params.page
		itemsPerPage := params.itemsPerPage
		lastPage := 1
		if resp.Paginate {
			lastPage = (allItemCount + itemsPerPage - 1) / itemsPerPage
			if lastPage < 1 {
				lastPage = 1
			}
			if page < 1 || page > lastPage {
				return nil, apierr.InvalidPage(page, lastPage)
			}
			start := (page - 1) * itemsPerPage
			end := start + itemsPerPage
			if end > allItemCount {
				end = allItemCount
			}
			data = v.Slice(start, end).Interface()
			v = reflect.ValueOf(data)
		}

		dataset := map[string]any{
			"data":           data,
			"page":           page,
			"items_per_page": itemsPerPage,
			"last_page":      lastPage,
			"item_count":     v.Len(),
			"all_item_count": allItemCount,
		}
		if resp.DataText != "" {
			dataset["data_text"] = resp.DataText
		}
		body["dataset"] = dataset

	case TypeRecord:
		body["object"] = resp.Data
		if resp.DataText != "" {
			body["data_text"] = resp.DataText
		}

	case TypeDone:
		ok, isBool := resp.Data.(bool)
		if !isBool {
			return nil, apierr.DataNotABool()
		}
		body["progress"] = ok
		if resp.DataText != "" {
			body["data_text"] = resp.DataText
		}

	default:
		return nil, apierr.WrongResponseType()
	}

	return body, nil
}

// roundRuntime reports the wall-clock runtime in seconds with millisecond
// precision, matching the envelope contract.
func roundRuntime(d time.Duration) float64 {
	return float64(d.Round(time.Millisecond)) / float64(time.Second)
}

package gateway

import (
	"encoding/json"
	"net/http"
)

// Response is a fully read HTTP response.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Data       []byte
	Request    *http.Request
}

// JSON decodes Data into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Data, v)
}

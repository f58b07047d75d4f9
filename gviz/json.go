package gviz

import (
	"bytes"
	"encoding/json"
)

var (
	// xssiGuard is prepended to JSON output by some data source front ends.
	xssiGuard   = []byte(")]}'")
	setResponse = []byte("setResponse(")
)

// Decode parses a data source payload. Numbers are kept as json.Number so that
// integral values survive the round trip, the XSSI guard is dropped and a JSONP
// wrapper (google.visualization.Query.setResponse(...)) is unwrapped.
func Decode(body []byte) (*Response, error) {
	body = bytes.TrimSpace(body)
	body = bytes.TrimPrefix(body, xssiGuard)
	if idx := bytes.Index(body, setResponse); idx >= 0 {
		body = body[idx+len(setResponse):]
		if end := bytes.LastIndexByte(body, ')'); end >= 0 {
			body = body[:end]
		}
	}
	var resp Response
	if err := decodeJSONWithNumber(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// decodeJSONWithNumber use the UseNumber option in std json, which works
// by first decode number into string, then back to converted type
// see implementation of json.Number in std
func decodeJSONWithNumber(bodyBytes []byte, out interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(bodyBytes))
	decoder.UseNumber()
	return decoder.Decode(out)
}

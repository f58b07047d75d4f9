package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sheetsql/sheets-client-go/gviz"
)

var (
	defaultHTTPHeader = map[string]string{
		"X-DataSource-Auth": "true",
	}
)

// jsonHTTPClientTransport is the impl of clientTransport
type jsonHTTPClientTransport struct {
	client      *http.Client
	header      map[string]string
	compression string
}

func (t jsonHTTPClientTransport) execute(ctx context.Context, query *Request) (*gviz.Response, error) {
	logger := log.WithFields(log.Fields{"requestId": query.requestID})
	req, err := createHTTPRequest(ctx, queryURL(query.url, query.query), query.requestID, t.header)
	if err != nil {
		return nil, err
	}
	encoding, err := acceptEncoding(t.compression)
	if err != nil {
		return nil, err
	}
	if encoding != "" {
		req.Header.Set("Accept-Encoding", encoding)
	}
	logger.Debugf("Sending query %q to %s", query.query, query.url)

	resp, err := t.client.Do(req)
	if err != nil {
		logger.Error("Got exceptions during sending request. ", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caught http exception when querying the data source: %v", resp.Status)
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Unable to read data source response. ", err)
		return nil, err
	}
	if encoding != "" {
		if bodyBytes, err = decompressPayload(bodyBytes, resp.Header.Get("Content-Encoding")); err != nil {
			logger.Error("Unable to decompress data source response. ", err)
			return nil, err
		}
	}
	payload, err := gviz.Decode(bodyBytes)
	if err != nil {
		logger.Error("Unable to unmarshal json response to a data source response. ", err)
		return nil, err
	}
	return payload, nil
}

func createHTTPRequest(ctx context.Context, url string, requestID string, extraHeader map[string]string) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Invalid HTTP Request", err)
		return nil, err
	}
	for k, v := range defaultHTTPHeader {
		r.Header.Add(k, v)
	}
	if requestID != "" {
		r.Header.Set("X-Request-Id", requestID)
	}
	for k, v := range extraHeader {
		r.Header.Add(k, v)
	}
	return r, nil
}

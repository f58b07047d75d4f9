package sheets

import "time"

// ClientConfig configs to create a sheets Connection
type ClientConfig struct {
	// Additional HTTP headers to include in data source requests
	ExtraHTTPHeader map[string]string
	// HTTP request timeout for data source requests
	HTTPTimeout time.Duration
	// Headers is the number of header rows in each sheet, 0 lets the data source guess
	Headers int
	// Compression asks the data source for a compressed response.
	// Supported values: GZIP, DEFLATE, ZSTD, SNAPPY, LZ4, NONE.
	Compression string
	// ServiceAccountFile is a service account JSON key used to read private sheets
	ServiceAccountFile string
	// Subject is the user to impersonate with domain-wide delegation
	Subject string
}

package sheets

// Request is one query against a sheet's data source.
type Request struct {
	// url is the data source URL of the sheet, as built by GetURL
	url       string
	query     string
	requestID string
}

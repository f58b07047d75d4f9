package sheets

import (
	"context"

	"github.com/sheetsql/sheets-client-go/gviz"
)

type clientTransport interface {
	execute(ctx context.Context, query *Request) (*gviz.Response, error)
}

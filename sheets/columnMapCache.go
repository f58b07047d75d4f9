package sheets

import (
	"sync"

	"github.com/sheetsql/sheets-client-go/gviz"
)

// columnMapCache keeps the column map of every sheet looked up in a session.
type columnMapCache struct {
	columns map[string]gviz.ColumnMap
	rwMux   sync.RWMutex
}

func newColumnMapCache() *columnMapCache {
	return &columnMapCache{columns: map[string]gviz.ColumnMap{}}
}

func (c *columnMapCache) get(sourceURL string) (gviz.ColumnMap, bool) {
	c.rwMux.RLock()
	defer c.rwMux.RUnlock()
	columns, found := c.columns[sourceURL]
	return columns, found
}

func (c *columnMapCache) put(sourceURL string, columns gviz.ColumnMap) {
	c.rwMux.Lock()
	defer c.rwMux.Unlock()
	c.columns[sourceURL] = columns
}

func (c *columnMapCache) invalidate(sourceURL string) {
	c.rwMux.Lock()
	defer c.rwMux.Unlock()
	delete(c.columns, sourceURL)
}

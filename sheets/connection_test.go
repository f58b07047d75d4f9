package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sheetsql/sheets-client-go/ast"
	"github.com/sheetsql/sheets-client-go/gviz"
	"github.com/sheetsql/sheets-client-go/processing"
)

const (
	headerPayload = `{"table":{"cols":[{"id":"A","label":"country","type":"string"},{"id":"B","label":"cnt","type":"number","pattern":"General"}]}}`
	rowsPayload   = `{"status":"ok","table":{"cols":[{"id":"A","label":"country","type":"string"},{"id":"B","label":"cnt","type":"number","pattern":"General"}],` +
		`"rows":[{"c":[{"v":"BR"},{"v":1.0,"f":"1"}]},{"c":[{"v":"IN"},{"v":2.0,"f":"2"}]}]}}`
)

// newSheetServer serves the header query and answers every other query with the
// payload registered for its tq parameter.
func newSheetServer(t *testing.T, headerQueries *int32, payloads map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gviz/tq", r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("X-DataSource-Auth"))
		_, err := uuid.Parse(r.Header.Get("X-Request-Id"))
		assert.NoError(t, err)

		tq := r.URL.Query().Get("tq")
		if tq == headerQuery {
			atomic.AddInt32(headerQueries, 1)
			fmt.Fprint(w, headerPayload)
			return
		}
		payload, ok := payloads[tq]
		if !ok {
			t.Errorf("unexpected query %q", tq)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
}

func TestSendingSQLWithMockServer(t *testing.T) {
	var headerQueries int32
	ts := newSheetServer(t, &headerQueries, map[string]string{"SELECT *": rowsPayload})
	defer ts.Close()

	client, err := NewWithConfig(&ClientConfig{})
	require.NoError(t, err)
	assert.NotNil(t, client.transport)

	resp, err := client.ExecuteSQL(fmt.Sprintf(`SELECT * FROM "%s/"`, ts.URL))
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Table.GetRowCount())
	assert.Equal(t, 2, resp.Table.GetColumnCount())
	assert.Equal(t, "country", resp.Table.GetColumnLabel(0))
	assert.Equal(t, "number", resp.Table.GetColumnType(1))
	assert.Equal(t, "BR", resp.Table.GetString(0, 0))
	assert.Equal(t, json.Number("2.0"), resp.Table.Get(1, 1))
	assert.Equal(t, 2.0, resp.Table.GetDouble(1, 1))

	// the header query runs once per sheet per session
	_, err = client.ExecuteSQL(fmt.Sprintf(`SELECT * FROM "%s/"`, ts.URL))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&headerQueries))

	require.NoError(t, client.Forget(ts.URL+"/"))
	_, err = client.ExecuteSQL(fmt.Sprintf(`SELECT * FROM "%s/"`, ts.URL))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&headerQueries))
}

func TestSendingCountStar(t *testing.T) {
	var headerQueries int32
	query := "SELECT A, count(B) GROUP BY A LABEL count(B) '__CountStar__cnt'"
	ts := newSheetServer(t, &headerQueries, map[string]string{
		query: `{"status":"ok","table":{"cols":[{"id":"A","label":"country","type":"string"},{"id":"count-B","label":"__CountStar__cnt","type":"number"}],` +
			`"rows":[{"c":[{"v":"BR"},{"v":1.0}]},{"c":[{"v":"IN"},{"v":2.0}]}]}}`,
	})
	defer ts.Close()

	client, err := New()
	require.NoError(t, err)
	resp, err := client.ExecuteSQL(fmt.Sprintf(`SELECT country, COUNT(*) AS total FROM "%s" GROUP BY country`, ts.URL))
	require.NoError(t, err)

	assert.Equal(t, []gviz.Column{
		{ID: "A", Label: "country", Type: "string"},
		{ID: "count-star", Label: "total", Type: "number"},
	}, resp.Table.Cols)
	assert.Equal(t, "IN", resp.Table.GetString(1, 0))
	assert.Equal(t, 2.0, resp.Table.GetDouble(1, 1))
}

func TestSendingQueryWithErrorStatus(t *testing.T) {
	var headerQueries int32
	ts := newSheetServer(t, &headerQueries, map[string]string{
		"SELECT Z": `)]}'` + "\n" + `{"status":"error","errors":[{"reason":"invalid_query","message":"INVALID_QUERY","detailed_message":"Invalid query: Column [Z] does not exist in table."}]}`,
	})
	defer ts.Close()

	client, err := New()
	require.NoError(t, err)
	_, err = client.ExecuteSQL(fmt.Sprintf(`SELECT Z FROM "%s"`, ts.URL))
	require.Error(t, err)
	assert.True(t, errors.Is(err, gviz.ErrRemote))
	assert.Contains(t, err.Error(), "Column [Z] does not exist")
}

func TestSendingQueryWithErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client, err := New()
	require.NoError(t, err)
	_, err = client.ExecuteSQL(fmt.Sprintf(`SELECT * FROM "%s"`, ts.URL))
	assert.Error(t, err)
}

func TestSendingQueryWithNonJsonResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html>Sign in</html>`)
	}))
	defer ts.Close()

	client, err := New()
	require.NoError(t, err)
	_, err = client.ExecuteSQL(fmt.Sprintf(`SELECT * FROM "%s"`, ts.URL))
	assert.Error(t, err)
}

func TestExecuteSQLInvalidQuery(t *testing.T) {
	client, err := New()
	require.NoError(t, err)

	_, err = client.ExecuteSQL("SELECTSELECTSELECT")
	assert.EqualError(t, err, "invalid query: SELECTSELECTSELECT")

	_, err = client.ExecuteSQL("SELECT 1")
	assert.True(t, errors.Is(err, ast.ErrInvalidQuery))
}

func TestExecuteSQLWithParams(t *testing.T) {
	var headerQueries int32
	ts := newSheetServer(t, &headerQueries, map[string]string{"SELECT B WHERE A = 'BR'": rowsPayload})
	defer ts.Close()

	client, err := New()
	require.NoError(t, err)
	_, err = client.ExecuteSQLWithParams(fmt.Sprintf(`SELECT cnt FROM "%s" WHERE country = ?`, ts.URL), []interface{}{"BR"})
	require.NoError(t, err)

	_, err = client.ExecuteSQLWithParams(`SELECT cnt FROM "x" WHERE country = ?`, nil)
	assert.Error(t, err)
}

func TestCompressedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "gzip")
		buf := &bytes.Buffer{}
		writer := gzip.NewWriter(buf)
		_, err := writer.Write([]byte(headerPayload))
		assert.NoError(t, err)
		assert.NoError(t, writer.Close())
		_, err = w.Write(buf.Bytes())
		assert.NoError(t, err)
	}))
	defer ts.Close()

	client, err := NewWithConfig(&ClientConfig{Compression: "GZIP", ExtraHTTPHeader: map[string]string{"k1": "v1"}})
	require.NoError(t, err)
	columns, err := client.ColumnMap(context.Background(), ts.URL+"/gviz/tq?gid=0")
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "cnt"}, columns.Labels())
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) execute(ctx context.Context, query *Request) (*gviz.Response, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*gviz.Response)
	return resp, args.Error(1)
}

func TestColumnMapHeaderFailure(t *testing.T) {
	transport := &mockTransport{}
	transport.On("execute", mock.Anything, mock.MatchedBy(func(r *Request) bool {
		return r.query == headerQuery
	})).Return(nil, errors.New("connection refused")).Once()

	client := &Connection{
		transport: transport,
		pipeline:  processing.NewPipeline(),
		columns:   newColumnMapCache(),
	}
	_, err := client.ExecuteSQL(`SELECT * FROM "http://docs.google.com/"`)
	assert.EqualError(t, err, "connection refused")
	transport.AssertExpectations(t)
}

func TestExecuteSQLContextCancelled(t *testing.T) {
	transport := &mockTransport{}
	transport.On("execute", mock.Anything, mock.Anything).Return(nil, context.Canceled)

	client := &Connection{
		transport: transport,
		pipeline:  processing.NewPipeline(),
		columns:   newColumnMapCache(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ExecuteSQLContext(ctx, `SELECT * FROM "http://docs.google.com/"`)
	assert.True(t, errors.Is(err, context.Canceled))
}

package contract_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contracthttp/contract"
	"github.com/contracthttp/contract/contracttest"
	"github.com/contracthttp/contract/schema"
)

// testFixture spins up the shared test API behind an httptest server and
// derives the client from the same declaration.
func testFixture(t *testing.T, overrides handlerOverrides) *contracttest.Fixture {
	t.Helper()
	return contracttest.New(t, testHandlers(t, overrides))
}

func TestClient_typed_path_round_trip(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, nil)

	res, err := fx.Client.Call(context.Background(), "params", "optionOne", contract.Input{
		Path: map[string]any{"id": int64(42)},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, map[string]any{"id": int64(42)}, res.Value)
}

func TestClient_query_encoding(t *testing.T) {
	t.Parallel()

	var page any
	var friends any
	fx := testFixture(t, handlerOverrides{
		"users/list": func(_ context.Context, in *contract.Input) (any, error) {
			page = in.Query["page"]
			friends = in.Query["friend"]
			return []any{}, nil
		},
	})

	res, err := fx.Client.Group("users").Call(context.Background(), "list", contract.Input{
		Query: map[string]any{
			"page":   int64(3),
			"friend": []any{"alice", "bob"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, res.Status)
	assert.Equal(t, int64(3), page)
	assert.Equal(t, []any{"alice", "bob"}, friends)
}

func TestClient_form_payload(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, nil)

	res, err := fx.Client.Call(context.Background(), "posts", "create", contract.Input{
		Payload: map[string]any{"name": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, map[string]any{"name": "hello"}, res.Value)
}

func TestClient_multipart_upload(t *testing.T) {
	t.Parallel()

	var names []string
	fx := testFixture(t, handlerOverrides{
		"uploads/upload": func(_ context.Context, in *contract.Input) (any, error) {
			files, _ := in.PayloadMap()["files"].([]any)
			for _, f := range files {
				names = append(names, f.(*schema.FileValue).Name)
			}
			return map[string]any{"count": int64(len(files))}, nil
		},
	})

	res, err := fx.Client.Call(context.Background(), "uploads", "upload", contract.Input{
		Payload: map[string]any{"files": []any{
			schema.FileFromBytes("a.txt", "text/plain", []byte("first")),
			schema.FileFromBytes("b.txt", "text/plain", []byte("second")),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": int64(2)}, res.Value)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestClient_text_response(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, nil)

	res, err := fx.Client.Call(context.Background(), "posts", "remove", contract.Input{
		Path: map[string]any{"id": int64(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,alice\n", res.Value)
	assert.Equal(t, "text/csv", res.Header.Get("Content-Type"))
}

func TestClient_declared_error_decodes_to_handler_error(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, nil)

	_, err := fx.Client.Call(context.Background(), "posts", "remove", contract.Input{
		Path: map[string]any{"id": int64(0)},
	})

	var herr *contract.HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusNotFound, herr.Status)
	assert.Equal(t, map[string]any{"message": "no such post"}, herr.Value)
}

func TestClient_undeclared_status(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, handlerOverrides{
		"users/list": func(_ context.Context, _ *contract.Input) (any, error) {
			return nil, contract.Fail(http.StatusTeapot, "nope") // undeclared, served as 500
		},
	})

	_, err := fx.Client.Call(context.Background(), "users", "list", contract.Input{})

	var uerr *contract.UnexpectedStatusError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusInternalServerError, uerr.Status)
}

func TestClient_invalid_input_never_leaves_the_process(t *testing.T) {
	t.Parallel()

	requests := 0
	fx := testFixture(t, handlerOverrides{
		"params/optionOne": func(_ context.Context, in *contract.Input) (any, error) {
			requests++
			return map[string]any{"id": in.PathInt("id")}, nil
		},
	})

	// Missing required path parameter fails locally.
	_, err := fx.Client.Call(context.Background(), "params", "optionOne", contract.Input{})
	var eerr *schema.EncodingError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "id", eerr.Field)
	assert.Zero(t, requests)
}

func TestClient_unknown_endpoint(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, nil)

	_, err := fx.Client.Call(context.Background(), "users", "nope", contract.Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no declared endpoint users/nope")
}

func TestClient_accepts_default_200_when_no_success_declared(t *testing.T) {
	t.Parallel()

	api := contract.NewAPI("sample").AddGroup(contract.NewGroup("ops").
		Add(contract.NewEndpoint("ping", http.MethodGet, "/ping")))

	h := contract.NewHandlers(api, contract.WithLogger(discardLogger()))
	require.NoError(t, h.Register("ops", "ping", func(_ context.Context, _ *contract.Input) (any, error) {
		return nil, nil
	}))

	fx := contracttest.New(t, h)

	// The dispatcher serves an undeclared success as an untyped 200; the
	// derived client must accept the same default.
	res, err := fx.Client.Call(context.Background(), "ops", "ping", contract.Input{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Nil(t, res.Value)
}

func TestClient_network_error(t *testing.T) {
	t.Parallel()

	fx := testFixture(t, nil)
	fx.Server.Close()

	_, err := fx.Client.Call(context.Background(), "users", "list", contract.Input{})

	var nerr *contract.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.NotEmpty(t, nerr.URL)
}

func TestNewClient_rejects_broken_declaration(t *testing.T) {
	t.Parallel()

	api := contract.NewAPI("sample").
		AddGroup(contract.NewGroup("users").
			Add(contract.NewEndpoint("list", http.MethodGet, "/users")).
			Add(contract.NewEndpoint("list", http.MethodGet, "/dup")))

	_, err := contract.NewClient(api, "http://localhost")
	var dup *contract.DuplicateIDError
	require.ErrorAs(t, err, &dup)
}

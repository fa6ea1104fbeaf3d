package contract_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contracthttp/contract"
	"github.com/contracthttp/contract/schema"
)

func okHandler(_ context.Context, _ *contract.Input) (any, error) {
	return nil, nil
}

func twoEndpointAPI() *contract.API {
	return contract.NewAPI("sample").
		AddGroup(contract.NewGroup("users").
			Add(contract.NewEndpoint("list", http.MethodGet, "/users").
				AddSuccess(schema.Array(schema.String()))).
			Add(contract.NewEndpoint("get", http.MethodGet, "/users/:id").
				WithPath(schema.Struct(schema.F("id", schema.Coerce(schema.Int())))).
				AddSuccess(schema.Struct(schema.F("id", schema.Int())))))
}

func TestHandlers_register_unknown_endpoint(t *testing.T) {
	t.Parallel()

	h := contract.NewHandlers(twoEndpointAPI())
	err := h.Register("users", "nope", okHandler)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no declared endpoint users/nope")

	err = h.Register("ghosts", "list", okHandler)
	require.Error(t, err)
}

func TestHandlers_register_twice(t *testing.T) {
	t.Parallel()

	h := contract.NewHandlers(twoEndpointAPI())
	require.NoError(t, h.Register("users", "list", okHandler))

	err := h.Register("users", "list", okHandler)
	var dup *contract.DuplicateHandlerError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "users", dup.Group)
	assert.Equal(t, "list", dup.ID)
}

func TestHandlers_build_reports_every_missing_endpoint(t *testing.T) {
	t.Parallel()

	h := contract.NewHandlers(twoEndpointAPI())
	require.NoError(t, h.Register("users", "list", okHandler))

	_, err := h.Build()
	var incomplete *contract.IncompleteAPIError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []contract.EndpointRef{{Group: "users", Endpoint: "get"}}, incomplete.Missing)
	assert.Contains(t, incomplete.Error(), "users/get")
}

func TestHandlers_build_complete(t *testing.T) {
	t.Parallel()

	h := contract.NewHandlers(twoEndpointAPI())
	require.NoError(t, h.Register("users", "list", okHandler))
	require.NoError(t, h.Register("users", "get", okHandler))

	d, err := h.Build()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "sample", d.API().Name())
}

func TestHandlers_build_surfaces_declaration_error(t *testing.T) {
	t.Parallel()

	api := contract.NewAPI("sample").
		AddGroup(contract.NewGroup("users").
			Add(contract.NewEndpoint("list", http.MethodGet, "/users")).
			Add(contract.NewEndpoint("list", http.MethodGet, "/users/all")))

	h := contract.NewHandlers(api)

	err := h.Register("users", "list", okHandler)
	require.Error(t, err)

	_, err = h.Build()
	var dup *contract.DuplicateIDError
	require.ErrorAs(t, err, &dup)
}

package contract_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contracthttp/contract"
	"github.com/contracthttp/contract/schema"
)

func TestSpec_document_shape(t *testing.T) {
	t.Parallel()

	spec := contract.Spec(testAPI(), "1.2.3")
	assert.Equal(t, "3.1.0", spec.OpenAPI)
	assert.Equal(t, "sample", spec.Info.Title)
	assert.Equal(t, "1.2.3", spec.Info.Version)

	var tags []string
	for _, tag := range spec.Tags {
		tags = append(tags, tag.Name)
	}
	assert.Equal(t, []string{"params", "users", "posts", "uploads", "misc"}, tags)
}

func TestSpec_path_rendering(t *testing.T) {
	t.Parallel()

	spec := contract.Spec(testAPI(), "1")

	require.Contains(t, spec.Paths, "/param/optionOne/{id}")
	require.Contains(t, spec.Paths, "/users")
	require.Contains(t, spec.Paths, "/delete/{id}")

	// Catch-all templates render as a trailing parameter.
	require.Contains(t, spec.Paths, "/{path}")

	op, ok := spec.Paths["/param/optionOne/{id}"]["get"]
	require.True(t, ok)
	assert.Equal(t, "params.optionOne", op.OperationID)
	assert.Equal(t, []string{"params"}, op.Tags)
}

func TestSpec_parameters(t *testing.T) {
	t.Parallel()

	spec := contract.Spec(testAPI(), "1")
	op := spec.Paths["/users"]["get"]

	byName := map[string]contract.Parameter{}
	for _, p := range op.Parameters {
		byName[p.Name] = p
	}

	page := byName["page"]
	assert.Equal(t, "query", page.In)
	assert.False(t, page.Required)
	assert.Equal(t, "integer", page.Schema.Type)

	friend := byName["friend"]
	assert.Equal(t, "array", friend.Schema.Type)
	require.NotNil(t, friend.Schema.Items)
	assert.Equal(t, "string", friend.Schema.Items.Type)

	// Path parameters are always required.
	del := spec.Paths["/delete/{id}"]["delete"]
	require.Len(t, del.Parameters, 1)
	assert.True(t, del.Parameters[0].Required)
	assert.Equal(t, "path", del.Parameters[0].In)
}

func TestSpec_request_body_and_responses(t *testing.T) {
	t.Parallel()

	spec := contract.Spec(testAPI(), "1")

	create := spec.Paths["/post"]["post"]
	require.NotNil(t, create.RequestBody)
	assert.True(t, create.RequestBody.Required)
	require.Contains(t, create.RequestBody.Content, "application/x-www-form-urlencoded")
	require.Contains(t, create.Responses, "201")

	upload := spec.Paths["/upload"]["post"]
	require.NotNil(t, upload.RequestBody)
	require.Contains(t, upload.RequestBody.Content, "multipart/form-data")
	files := upload.RequestBody.Content["multipart/form-data"].Schema.Properties["files"]
	assert.Equal(t, "array", files.Type)
	assert.Equal(t, "binary", files.Items.Format)

	del := spec.Paths["/delete/{id}"]["delete"]
	require.Contains(t, del.Responses, "200")
	require.Contains(t, del.Responses, "404")
	assert.Contains(t, del.Responses["200"].Content, "text/csv")
	assert.Contains(t, del.Responses["404"].Content, "application/json")
}

func TestSpec_union_renders_any_of(t *testing.T) {
	t.Parallel()

	api := contract.NewAPI("sample").AddGroup(contract.NewGroup("things").
		Add(contract.NewEndpoint("create", http.MethodPost, "/things").
			WithPayload(contract.EncodingJSON, schema.Struct(
				schema.F("value", schema.Union(schema.Int(), schema.String())),
			)).
			AddSuccess(nil)))

	spec := contract.Spec(api, "1")
	body := spec.Paths["/things"]["post"].RequestBody
	require.NotNil(t, body)

	prop := body.Content["application/json"].Schema.Properties["value"]
	require.Len(t, prop.AnyOf, 2)
	assert.Equal(t, "integer", prop.AnyOf[0].Type)
	assert.Equal(t, "string", prop.AnyOf[1].Type)
}

func TestWriteSpec_is_valid_json(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, contract.WriteSpec(&buf, testAPI(), "1"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "3.1.0", doc["openapi"])
}

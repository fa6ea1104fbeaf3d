package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathTemplate_errors(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"users",
		"/users//posts",
		"/users/:",
		"/*rest/more",
	} {
		_, err := parsePathTemplate(raw)
		assert.Error(t, err, "template %q", raw)
	}
}

func TestPathTemplate_match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		path     string
		want     map[string]string
		ok       bool
	}{
		{"/", "/", map[string]string{}, true},
		{"/", "/users", nil, false},
		{"/users", "/users", map[string]string{}, true},
		{"/users", "/Users", nil, false}, // case-sensitive
		{"/users", "/users/1", nil, false},
		{"/users/:id", "/users/42", map[string]string{"id": "42"}, true},
		{"/users/:id", "/users", nil, false},
		{"/users/:id", "/users/", nil, false},
		{"/param/optionOne/:id", "/param/optionOne/42", map[string]string{"id": "42"}, true},
		{"/param/optionOne/:id", "/param/optionTwo/42", nil, false},
		{"/*path", "/anything/at/all", map[string]string{"path": "anything/at/all"}, true},
		{"/*path", "/", map[string]string{"path": ""}, true},
		{"/files/*path", "/files/a/b.txt", map[string]string{"path": "a/b.txt"}, true},
		{"/files/*path", "/other/a", nil, false},
		{"/*", "/x/y", map[string]string{}, true},
	}

	for _, tc := range tests {
		tmpl, err := parsePathTemplate(tc.template)
		require.NoError(t, err, "template %q", tc.template)

		binds, ok := tmpl.match(tc.path)
		assert.Equal(t, tc.ok, ok, "%q vs %q", tc.template, tc.path)
		if tc.ok {
			assert.Equal(t, tc.want, binds, "%q vs %q", tc.template, tc.path)
		}
	}
}

func TestPathTemplate_params(t *testing.T) {
	t.Parallel()

	tmpl, err := parsePathTemplate("/a/:x/b/:y/*rest")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "rest"}, tmpl.params())
}

func TestPathTemplate_resolve(t *testing.T) {
	t.Parallel()

	tmpl, err := parsePathTemplate("/users/:id/posts")
	require.NoError(t, err)

	path, err := tmpl.resolve(map[string]any{"id": int64(42)})
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts", path)

	// Path parameter values are escaped.
	path, err = tmpl.resolve(map[string]any{"id": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/users/a%2Fb/posts", path)

	_, err = tmpl.resolve(map[string]any{})
	assert.Error(t, err)
}

func TestPathTemplate_resolve_catch_all(t *testing.T) {
	t.Parallel()

	tmpl, err := parsePathTemplate("/files/*path")
	require.NoError(t, err)

	path, err := tmpl.resolve(map[string]any{"path": "a/b.txt"})
	require.NoError(t, err)
	assert.Equal(t, "/files/a/b.txt", path)

	root, err := parsePathTemplate("/")
	require.NoError(t, err)
	path, err = root.resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "/", path)
}

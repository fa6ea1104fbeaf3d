// Package contract is a declaration-first HTTP API core. An API is built
// once, as an immutable value: endpoints declare their method, path
// template, and schemas; groups collect endpoints; the API collects groups.
// That single declaration then drives everything — server dispatch, the
// derived typed client, and the generated OpenAPI documentation.
//
//	users := contract.NewGroup("users").
//	    Add(contract.NewEndpoint("get", http.MethodGet, "/users/:id").
//	        WithPath(schema.Struct(schema.F("id", schema.Coerce(schema.Int())))).
//	        AddSuccess(userSchema))
//
//	api := contract.NewAPI("User Service").AddGroup(users)
//
// Handlers are bound by id and checked for completeness before anything
// serves: a missing or duplicated handler fails Build, never a request.
//
//	h := contract.NewHandlers(api)
//	h.Register("users", "get", getUser)
//	d, err := h.Build()
//
// The same declaration derives a client:
//
//	c, err := contract.NewClient(api, "http://localhost:8080")
//	res, err := c.Call(ctx, "users", "get", contract.Input{
//	    Path: map[string]any{"id": int64(42)},
//	})
//
// Descriptors and the sealed dispatch table are immutable after build and
// shared without locking across all in-flight requests.
package contract

// Command sample demonstrates the contract framework with a small API
// covering every declaration feature: typed path and query schemas, form,
// multipart, and raw-text payloads, declared error responses, a catch-all
// route, generated documentation, and a derived client.
//
// Run:
//
//	go run ./cmd/sample
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/sample -spec                  — print to stdout
//	go run ./cmd/sample -spec -o openapi.json  — write to file
//
// Then explore:
//
//	GET  http://localhost:8080/docs             — documentation UI
//	GET  http://localhost:8080/openapi.json     — OpenAPI spec
//	GET  http://localhost:8080/users?page=1     — paginated list (206)
//	GET  http://localhost:8080/param/optionOne/42
//	POST http://localhost:8080/upload           — multipart upload
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/contracthttp/contract"
	"github.com/contracthttp/contract/schema"
)

func main() {
	specFlag := flag.Bool("spec", false, "Print the OpenAPI spec to stdout and exit")
	outFlag := flag.String("o", "", "Output file for the spec (requires -spec)")
	flag.Parse()

	api := declareAPI()

	if *specFlag {
		if err := writeSpec(api, *outFlag); err != nil {
			slog.Error("spec generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	srv, err := buildServer(api, logger)
	if err != nil {
		slog.Error("server build failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", ":8080", "docs", "http://localhost:8080/docs")

	if err := srv.Serve(ctx, ":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

// ---------------------------------------------------------------------------
// Declaration
// ---------------------------------------------------------------------------

var (
	userSchema = schema.Struct(
		schema.F("id", schema.Int()),
		schema.F("name", schema.String()),
	)

	notFoundSchema = schema.Struct(
		schema.F("message", schema.String()),
	)
)

func declareAPI() *contract.API {
	root := contract.NewGroup("root").
		Add(contract.NewEndpoint("home", http.MethodGet, "/").
			Describe("Landing endpoint.").
			AddSuccess(schema.Struct(schema.F("message", schema.String()))))

	users := contract.NewGroup("users").
		Add(contract.NewEndpoint("list", http.MethodGet, "/users").
			Describe("Lists users with optional pagination and sorting.").
			WithQuery(schema.Struct(
				schema.F("page", schema.Coerce(schema.Int())).Optional().Describe("Page number"),
				schema.F("sort", schema.String()).Optional().Describe("Sort field"),
				schema.F("friend", schema.Array(schema.String())).Optional().Describe("Friend filters"),
			)).
			AddSuccess(schema.Struct(
				schema.F("page", schema.Int()),
				schema.F("users", schema.Array(userSchema)),
			), contract.WithStatus(http.StatusPartialContent)))

	params := contract.NewGroup("params").
		Add(contract.NewEndpoint("optionOne", http.MethodGet, "/param/optionOne/:id").
			WithPath(schema.Struct(schema.F("id", schema.Coerce(schema.Int())))).
			AddSuccess(schema.Struct(schema.F("id", schema.Int())))).
		Add(contract.NewEndpoint("optionTwo", http.MethodGet, "/params/optionTwo/:id").
			WithPath(schema.Struct(schema.F("id", schema.String()))).
			AddSuccess(schema.Struct(schema.F("id", schema.String()))))

	posts := contract.NewGroup("posts").
		Add(contract.NewEndpoint("create", http.MethodPost, "/post").
			Describe("Creates a post from a url-encoded body.").
			WithPayload(contract.EncodingForm, schema.Struct(
				schema.F("name", schema.String()).Rule("min=1"),
			)).
			AddSuccess(schema.Struct(schema.F("name", schema.String())), contract.WithStatus(http.StatusCreated))).
		Add(contract.NewEndpoint("remove", http.MethodDelete, "/delete/:id").
			Describe("Deletes a post and reports the outcome as CSV.").
			WithPath(schema.Struct(schema.F("id", schema.Coerce(schema.Int())))).
			AddSuccess(schema.Text("text/csv")).
			AddError(http.StatusNotFound, notFoundSchema)).
		Add(contract.NewEndpoint("patch", http.MethodPatch, "/patch/:id").
			WithPath(schema.Struct(schema.F("id", schema.Coerce(schema.Int())))).
			WithPayload(contract.EncodingJSON, schema.Struct(
				schema.F("name", schema.String()).Optional(),
			)).
			AddSuccess(schema.Struct(
				schema.F("id", schema.Int()),
				schema.F("name", schema.String()),
			)))

	uploads := contract.NewGroup("uploads").
		Add(contract.NewEndpoint("upload", http.MethodPost, "/upload").
			Describe("Accepts one or more files in the multipart field \"files\".").
			WithPayload(contract.EncodingMultipart, schema.Struct(
				schema.F("files", schema.Array(schema.File())),
			)).
			AddSuccess(schema.Struct(
				schema.F("count", schema.Int()),
				schema.F("names", schema.Array(schema.String())),
			)))

	// The catch-all group is declared last so every other route wins first.
	misc := contract.NewGroup("misc").
		Add(contract.NewEndpoint("fallback", http.MethodGet, "/*path").
			Describe("Echoes any unclaimed GET path.").
			WithPath(schema.Struct(schema.F("path", schema.String()))).
			AddSuccess(schema.Struct(schema.F("path", schema.String()))))

	return contract.NewAPI("Sample API").
		AddGroup(root).
		AddGroup(users).
		AddGroup(params).
		AddGroup(posts).
		AddGroup(uploads).
		AddGroup(misc)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func buildServer(api *contract.API, logger *slog.Logger) (*contract.Server, error) {
	h := contract.NewHandlers(api, contract.WithLogger(logger))

	registrations := []struct {
		group, endpoint string
		fn              contract.HandlerFunc
	}{
		{"root", "home", handleHome},
		{"users", "list", handleListUsers},
		{"params", "optionOne", handleOptionOne},
		{"params", "optionTwo", handleOptionTwo},
		{"posts", "create", handleCreatePost},
		{"posts", "remove", handleRemovePost},
		{"posts", "patch", handlePatchPost},
		{"uploads", "upload", handleUpload},
		{"misc", "fallback", handleFallback},
	}
	for _, reg := range registrations {
		if err := h.Register(reg.group, reg.endpoint, reg.fn); err != nil {
			return nil, err
		}
	}

	d, err := h.Build()
	if err != nil {
		return nil, err
	}

	srv := contract.NewServer(d)
	srv.Use(contract.Recovery(logger))
	srv.Use(contract.RequestID())
	srv.Use(contract.Logger(logger))
	srv.Use(contract.Metrics(prometheus.DefaultRegisterer))
	srv.Use(contract.CORS())
	srv.Use(contract.BodyLimit(32 << 20))

	srv.ServeSpec("/openapi.json", "1.0.0")
	srv.ServeSpecYAML("/openapi.yaml", "1.0.0")
	srv.ServeDocs("/docs", "/openapi.json")
	srv.Handle("/metrics", contract.MetricsHandler(prometheus.DefaultGatherer))

	return srv, nil
}

func handleHome(_ context.Context, _ *contract.Input) (any, error) {
	return map[string]any{"message": "welcome"}, nil
}

func handleListUsers(_ context.Context, in *contract.Input) (any, error) {
	page, ok := in.QueryInt("page")
	if !ok {
		page = 1
	}
	return map[string]any{
		"page": page,
		"users": []any{
			map[string]any{"id": int64(1), "name": "Alice"},
			map[string]any{"id": int64(2), "name": "Bob"},
		},
	}, nil
}

func handleOptionOne(_ context.Context, in *contract.Input) (any, error) {
	return map[string]any{"id": in.PathInt("id")}, nil
}

func handleOptionTwo(_ context.Context, in *contract.Input) (any, error) {
	return map[string]any{"id": in.PathString("id")}, nil
}

func handleCreatePost(_ context.Context, in *contract.Input) (any, error) {
	return map[string]any{"name": in.PayloadMap()["name"]}, nil
}

func handleRemovePost(_ context.Context, in *contract.Input) (any, error) {
	id := in.PathInt("id")
	if id == 0 {
		return nil, contract.Fail(http.StatusNotFound, map[string]any{
			"message": "post 0 does not exist",
		})
	}
	return fmt.Sprintf("id,deleted\n%d,true\n", id), nil
}

func handlePatchPost(_ context.Context, in *contract.Input) (any, error) {
	name, _ := in.PayloadMap()["name"].(string)
	if name == "" {
		name = "unchanged"
	}
	return map[string]any{"id": in.PathInt("id"), "name": name}, nil
}

func handleUpload(_ context.Context, in *contract.Input) (any, error) {
	files, _ := in.PayloadMap()["files"].([]any)
	names := make([]any, 0, len(files))
	for _, f := range files {
		fv := f.(*schema.FileValue)
		names = append(names, fv.Name)
	}
	return map[string]any{"count": int64(len(files)), "names": names}, nil
}

func handleFallback(_ context.Context, in *contract.Input) (any, error) {
	return map[string]any{"path": "/" + strings.TrimPrefix(in.PathString("path"), "/")}, nil
}

func writeSpec(api *contract.API, outFile string) error {
	w := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile) //nolint:gosec // user-provided CLI flag
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Error("failed to close output file", "err", err)
			}
		}()
		w = f
	}
	return contract.WriteSpec(w, api, "1.0.0")
}

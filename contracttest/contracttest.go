// Package contracttest provides test helpers for contract APIs: it builds
// the dispatch table, serves it from an httptest server, and hands back a
// client derived from the same declaration.
package contracttest

import (
	"net/http/httptest"
	"testing"

	"github.com/contracthttp/contract"
)

// Fixture is a running test server plus the derived client pointed at it.
type Fixture struct {
	Server *httptest.Server
	Client *contract.Client
}

// New builds the handler table, starts a test server, and derives a client.
// Any declaration or registration mistake fails the test immediately.
func New(t testing.TB, h *contract.Handlers) *Fixture {
	t.Helper()

	d, err := h.Build()
	if err != nil {
		t.Fatalf("contracttest: build dispatcher: %v", err)
	}

	srv := httptest.NewServer(contract.NewServer(d))
	t.Cleanup(srv.Close)

	c, err := contract.NewClient(d.API(), srv.URL)
	if err != nil {
		t.Fatalf("contracttest: derive client: %v", err)
	}

	return &Fixture{Server: srv, Client: c}
}

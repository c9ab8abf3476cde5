package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/config"
	"github.com/gfranca/batepapo-server/internal/core"
	"github.com/gfranca/batepapo-server/internal/service/messages"
	"github.com/gfranca/batepapo-server/internal/service/registry"
	"github.com/gfranca/batepapo-server/internal/store"
	"github.com/gfranca/batepapo-server/internal/store/sqlite"
)

// newTestServer wires a full server against an in-memory store.
func newTestServer(t *testing.T) (*stdhttp.Server, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	hub := core.NewHub()
	registryService := registry.New(st, hub, &logger)
	messageService := messages.New(st, hub)

	cfg := config.Default()
	return NewServer(registryService, messageService, hub, &cfg, &logger), st
}

// doRequest performs a request against the server's handler. An empty
// user skips the User header.
func doRequest(t *testing.T, server *stdhttp.Server, method, path, body, user string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(HeaderUser, user)
	}

	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)
	return resp
}

func join(t *testing.T, server *stdhttp.Server, name string) {
	t.Helper()
	resp := doRequest(t, server, stdhttp.MethodPost, "/participants", `{"name":"`+name+`"}`, "")
	if resp.Code != stdhttp.StatusCreated {
		t.Fatalf("join %s: expected 201, got %d: %s", name, resp.Code, resp.Body.String())
	}
}

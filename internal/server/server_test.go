package server_test

import (
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
	"github.com/JaimeStill/agent-console/internal/server"
	"github.com/JaimeStill/agent-console/pkg/logging"
)

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     "5s",
		WriteTimeout:    "5s",
		ShutdownTimeout: "2s",
	}
}

func TestServer_Lifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})

	lc := lifecycle.New()
	sys := server.New(testConfig(), handler, logging.Discard())
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	resp, err := http.Get("http://" + sys.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	if err := lc.Shutdown(3 * time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if _, err := http.Get("http://" + sys.Addr() + "/ping"); err == nil {
		t.Error("server still serving after shutdown")
	}
}

func TestServer_BindFailure(t *testing.T) {
	lc := lifecycle.New()
	t.Cleanup(func() { lc.Shutdown(3 * time.Second) })

	first := server.New(testConfig(), http.NotFoundHandler(), logging.Discard())
	if err := first.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	host, portText, err := net.SplitHostPort(first.Addr())
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portText)

	cfg := testConfig()
	cfg.Host, cfg.Port = host, port
	second := server.New(cfg, http.NotFoundHandler(), logging.Discard())

	if err := second.Start(lifecycle.New()); err == nil {
		t.Error("Start() on a bound address succeeded")
	}
}

package httpserver

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := NewListener(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok")
	}), ln, Options{ShutdownTimeout: time.Second})

	notify := srv.Notify()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-notify:
		if err != nil {
			t.Errorf("Notify() = %v, want nil after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Notify() did not fire")
	}
}

func TestNew_AddrInUse(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := New(http.NotFoundHandler(), Options{Addr: ln.Addr().String()})

	select {
	case err := <-srv.Notify():
		if err == nil {
			t.Error("Notify() = nil, want bind error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not report bind error")
	}
}

func TestOr(t *testing.T) {
	t.Parallel()

	if got := or("", defaultAddr); got != defaultAddr {
		t.Errorf("or(\"\") = %q", got)
	}

	if got := or(":9000", defaultAddr); got != ":9000" {
		t.Errorf("or(:9000) = %q", got)
	}

	if got := or(0, defaultShutdownTimeout); got != defaultShutdownTimeout {
		t.Errorf("or(0) = %v", got)
	}
}

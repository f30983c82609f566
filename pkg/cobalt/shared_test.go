package cobalt_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"cobaltctl/pkg/cobalt"
)

const sharedModeEnv = "COBALT_TEST_SHARED_MODE"

// TestShared runs Shared in a child process: its result is cached for the life of the process.
func TestShared(t *testing.T) {
	switch os.Getenv(sharedModeEnv) {
	case "missing":
		cobalt.Shared()

		return
	case "configured":
		c := cobalt.Shared()
		if c != cobalt.Shared() {
			t.Fatal("Shared() returned different clients")
		}

		if c.InstanceURI() != "https://api.example.com" {
			t.Fatalf("InstanceURI() = %q", c.InstanceURI())
		}

		return
	}

	tests := []struct {
		name     string
		env      []string
		wantFail bool
	}{
		{name: "missing", wantFail: true},
		{name: "configured", env: []string{"API_KEY=k", "INSTANCE_URI=https://api.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := exec.Command(os.Args[0], "-test.run=^TestShared$", "-test.count=1")
			cmd.Env = append(childEnv(), sharedModeEnv+"="+tt.name)
			cmd.Env = append(cmd.Env, tt.env...)

			out, err := cmd.CombinedOutput()

			var exitErr *exec.ExitError

			switch {
			case tt.wantFail && !errors.As(err, &exitErr):
				t.Fatalf("child error = %v, want non-zero exit\n%s", err, out)
			case tt.wantFail && !strings.Contains(string(out), "panic: cobalt: shared client"):
				t.Errorf("child did not panic with the shared client message:\n%s", out)
			case !tt.wantFail && err != nil:
				t.Errorf("child error = %v\n%s", err, out)
			}
		})
	}
}

// childEnv is the current environment without the variables Shared reads.
func childEnv() []string {
	var env []string

	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "API_KEY=") || strings.HasPrefix(kv, "INSTANCE_URI=") || strings.HasPrefix(kv, sharedModeEnv+"=") {
			continue
		}

		env = append(env, kv)
	}

	return env
}

func TestGetMedia_ConcurrentCallers(t *testing.T) {
	t.Parallel()

	// the filename echoes the credential so every caller can check its own answer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Api-Key ")

		json.NewEncoder(w).Encode(map[string]string{"status": "redirect", "url": "https://cdn.example/f", "filename": key})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	const callers = 32

	var wg sync.WaitGroup

	errs := make(chan error, callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := fmt.Sprintf("key-%d", i)

			resp, err := c.GetMedia(context.Background(), key, cobalt.NewRequest("https://example.com/v"))
			if err != nil {
				errs <- err

				return
			}

			if r, ok := resp.(*cobalt.RedirectResponse); !ok || r.Filename != key {
				errs <- fmt.Errorf("caller %s got %#v", key, resp)
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

// demoServer mimics the demo API: it lists a fixed set, echoes creates
// with id 201 and accepts any delete of an existing id.
type demoServer struct {
	mu      sync.Mutex
	items   []model.Item
	deleted []string
	auth    string
}

func (d *demoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.auth = r.Header.Get("Authorization")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/todos":
		json.NewEncoder(w).Encode(d.items)
	case r.Method == http.MethodPost && r.URL.Path == "/todos":
		var body model.Item
		json.NewDecoder(r.Body).Decode(&body)
		body.ID = 201
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/todos/"):
		id := strings.TrimPrefix(r.URL.Path, "/todos/")
		if id == "404" {
			http.NotFound(w, r)
			return
		}
		d.deleted = append(d.deleted, id)
		w.Write([]byte(`{}`))
	default:
		http.NotFound(w, r)
	}
}

func (d *demoServer) snapshot() (auth string, deleted []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.auth, append([]string(nil), d.deleted...)
}

func setup(t *testing.T) (*demoServer, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"TADA_API_URL", "TADA_LIMIT", "TADA_TIMEOUT", "TADA_REFETCH", "TADA_THEME", "TADA_LOG_LEVEL", "TADA_LOG_FILE", "TADA_TOKEN"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
	ui.SetTheme("mono")
	t.Cleanup(func() { ui.SetTheme("classic") })

	d := &demoServer{items: []model.Item{
		{ID: 1, Title: "delectus aut autem"},
		{ID: 2, Title: "quis ut nam facilis", Completed: true},
	}}
	ts := httptest.NewServer(d)
	t.Cleanup(ts.Close)
	return d, ts.URL
}

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := &App{}
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	app.Close()
	if err != nil {
		errOut.WriteString(err.Error())
	}
	return ExitCode(err), out.String(), errOut.String()
}

func TestList(t *testing.T) {
	_, url := setup(t)
	code, out, errOut := run(t, "", "--api-url", url, "ls")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"delectus aut autem", "quis ut nam facilis", "Total 2", "[x]", "[ ]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "delectus") > strings.Index(out, "quis ut") {
		t.Errorf("order not preserved:\n%s", out)
	}
}

func TestListGroupAndJSON(t *testing.T) {
	_, url := setup(t)

	code, out, _ := run(t, "", "--api-url", url, "ls", "--group")
	if code != ExitOK || !strings.Contains(out, "Pending") || !strings.Contains(out, "Done") {
		t.Fatalf("group output (exit %d):\n%s", code, out)
	}

	code, out, _ = run(t, "", "--api-url", url, "ls", "--json")
	if code != ExitOK {
		t.Fatalf("exit %d", code)
	}
	var items []model.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if len(items) != 2 || items[1].ID != 2 || !items[1].Completed {
		t.Fatalf("items: %+v", items)
	}
}

func TestAdd(t *testing.T) {
	_, url := setup(t)
	code, out, errOut := run(t, "", "--api-url", url, "add", "Buy", "milk")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "added #201 Buy milk") {
		t.Fatalf("output: %q", out)
	}
}

func TestAddBlankIsUsageError(t *testing.T) {
	_, url := setup(t)
	if code, _, _ := run(t, "", "--api-url", url, "add", "  "); code != ExitUsage {
		t.Fatalf("exit: got %d, want %d", code, ExitUsage)
	}
	if code, _, _ := run(t, "", "--api-url", url, "add"); code != ExitUsage {
		t.Fatalf("exit without args: got %d, want %d", code, ExitUsage)
	}
}

func TestRemove(t *testing.T) {
	d, url := setup(t)
	code, out, errOut := run(t, "", "--api-url", url, "rm", "2")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	_, deleted := d.snapshot()
	if !strings.Contains(out, "removed #2") || len(deleted) != 1 || deleted[0] != "2" {
		t.Fatalf("out=%q deleted=%v", out, deleted)
	}

	if code, _, _ := run(t, "", "--api-url", url, "rm", "two"); code != ExitUsage {
		t.Fatalf("non-numeric id: exit %d", code)
	}
	code, _, errOut = run(t, "", "--api-url", url, "rm", "404")
	if code != ExitError || !strings.Contains(errOut, "no such item #404") {
		t.Fatalf("missing id: exit %d: %s", code, errOut)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	setup(t)
	if code, _, _ := run(t, "", "frobnicate"); code != ExitUsage {
		t.Fatalf("exit: got %d, want %d", code, ExitUsage)
	}
	if code, _, _ := run(t, "", "--limit", "nope", "ls"); code != ExitUsage {
		t.Fatalf("bad flag: exit %d", code)
	}
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	_, url := setup(t)
	if code, _, _ := run(t, "", "--api-url", url, "--limit", "0", "ls"); code != ExitUsage {
		t.Fatalf("exit: got %d", code)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	_, url := setup(t)
	t.Setenv("TADA_API_URL", "http://127.0.0.1:1")
	if code, _, errOut := run(t, "", "--api-url", url, "ls"); code != ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if code, _, _ := run(t, "", "ls"); code != ExitError {
		t.Fatalf("env url should be used without flag: exit %d", code)
	}
}

func TestAuthFlow(t *testing.T) {
	d, url := setup(t)

	code, out, _ := run(t, "", "auth", "status")
	if code != ExitOK || !strings.Contains(out, "not logged in") {
		t.Fatalf("status before login (exit %d):\n%s", code, out)
	}

	code, out, errOut := run(t, "Bearer t0k3n\n", "auth", "login")
	if code != ExitOK || !strings.Contains(out, "logged in") {
		t.Fatalf("login (exit %d): %s %s", code, out, errOut)
	}

	code, out, _ = run(t, "", "auth", "status")
	if code != ExitOK || !strings.Contains(out, "source: file") {
		t.Fatalf("status after login:\n%s", out)
	}

	if code, _, _ := run(t, "", "--api-url", url, "ls"); code != ExitOK {
		t.Fatalf("ls exit %d", code)
	}
	if got, _ := d.snapshot(); got != "Bearer t0k3n" {
		t.Fatalf("Authorization: got %q", got)
	}

	if code, out, _ := run(t, "", "auth", "logout"); code != ExitOK || !strings.Contains(out, "logged out") {
		t.Fatalf("logout (exit %d): %s", code, out)
	}
	if code, _, _ := run(t, "", "auth", "login"); code != ExitError {
		t.Fatalf("login without input: exit %d", code)
	}
}

// jwtExpiring builds an unsigned JWT whose exp claim is at.
func jwtExpiring(at time.Time) string {
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(fmt.Sprintf(`{"exp":%d}`, at.Unix()))) + ".sig"
}

func TestExpiredTokenNotSent(t *testing.T) {
	d, url := setup(t)

	expired := jwtExpiring(time.Now().Add(-time.Hour))
	code, _, errOut := run(t, expired+"\n", "auth", "login")
	if code != ExitOK || !strings.Contains(errOut, "already expired") {
		t.Fatalf("login (exit %d): %s", code, errOut)
	}

	code, out, _ := run(t, "", "auth", "status")
	if code != ExitOK || !strings.Contains(out, "(expired, not sent)") {
		t.Fatalf("status:\n%s", out)
	}

	if code, _, errOut := run(t, "", "--api-url", url, "ls"); code != ExitOK {
		t.Fatalf("ls exit %d: %s", code, errOut)
	}
	if got, _ := d.snapshot(); got != "" {
		t.Fatalf("expired token sent: Authorization %q", got)
	}

	t.Setenv("TADA_TOKEN", expired)
	if code, _, _ := run(t, "", "--api-url", url, "ls"); code != ExitOK {
		t.Fatalf("ls with env token: exit %d", code)
	}
	if got, _ := d.snapshot(); got != "" {
		t.Fatalf("expired env token sent: Authorization %q", got)
	}
}

func TestLoginExpiresFlag(t *testing.T) {
	d, url := setup(t)

	if code, _, _ := run(t, "", "auth", "login", "--expires=-1h"); code != ExitUsage {
		t.Fatalf("negative --expires: exit %d", code)
	}

	code, _, errOut := run(t, "opaque\n", "auth", "login", "--expires", "1h")
	if code != ExitOK {
		t.Fatalf("login exit %d: %s", code, errOut)
	}
	code, out, _ := run(t, "", "auth", "status")
	if code != ExitOK || strings.Contains(out, "(unknown)") || strings.Contains(out, "expired") {
		t.Fatalf("status:\n%s", out)
	}
	if !strings.Contains(out, "expires: "+time.Now().UTC().Format("2006-01-02")) &&
		!strings.Contains(out, "expires: "+time.Now().UTC().Add(time.Hour).Format("2006-01-02")) {
		t.Fatalf("expiry date missing:\n%s", out)
	}

	if code, _, _ := run(t, "", "--api-url", url, "ls"); code != ExitOK {
		t.Fatalf("ls exit %d", code)
	}
	if got, _ := d.snapshot(); got != "Bearer opaque" {
		t.Fatalf("Authorization: got %q", got)
	}
}

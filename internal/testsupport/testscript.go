// Package testsupport holds shared helpers for the CLI script tests.
package testsupport

import (
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"todoboard/internal/config"
	"todoboard/internal/server"
)

var (
	buildOnce sync.Once
	todoPath  string
	buildErr  error
)

// BuildTodo builds the todo binary once and returns its path.
func BuildTodo(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "todo-bin-")
		if err != nil {
			buildErr = err
			return
		}

		todoPath = filepath.Join(binDir, "todo")
		cmd := exec.Command("go", "build", "-o", todoPath, "./cmd/todo")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build todo: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return todoPath
}

// SetupScriptEnv points the binary at a config file inside the script's
// work directory and gives it a private home.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("TODO", BuildTodo(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	env.Setenv("XDG_STATE_HOME", filepath.Join(homeDir, ".local", "state"))
	env.Setenv("TODOBOARD_CONFIG", filepath.Join(env.WorkDir, "config.toml"))
	return nil
}

// CmdServer starts an API server backed by $WORK/todos.db for the rest of
// the script and writes a client config pointing at it.
//
//	server [auth USER PASS]
func CmdServer(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("server does not support negation")
	}
	cfg := config.DefaultServerConfig()
	switch {
	case len(args) == 0:
	case len(args) == 3 && args[0] == "auth":
		cfg.BasicAuth = &config.BasicAuthConfig{Username: args[1], Password: args[2]}
	default:
		ts.Fatalf("usage: server [auth USER PASS]")
	}

	repo, err := server.OpenRepo(ts.MkAbs("todos.db"))
	if err != nil {
		ts.Fatalf("open repo: %v", err)
	}
	srv := httptest.NewServer(server.New(cfg, repo).Handler())
	ts.Defer(func() {
		srv.Close()
		repo.Close()
	})

	client := fmt.Sprintf(`server_url = '%s'
timezone = 'UTC'
session_db = '%s'
session_scope = 'script'
export_dir = '%s'
log_level = 'warn'
`, srv.URL, ts.MkAbs("session.db"), ts.MkAbs("."))
	if err := os.WriteFile(ts.MkAbs("config.toml"), []byte(client), 0o644); err != nil {
		ts.Fatalf("write config: %v", err)
	}
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}

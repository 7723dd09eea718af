package main

import (
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"todoboard/internal/testsupport"
)

func TestVersionScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/version",
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
	})
}

func TestTaskScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/tasks",
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"server": testsupport.CmdServer,
		},
	})
}

func TestAuthScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/auth",
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"server": testsupport.CmdServer,
		},
	})
}

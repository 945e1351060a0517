package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	fail     error
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail
}

func (f *fakeExec) isLoggedIn() bool               { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error { return f.record("register") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Profile(context.Context) error { return f.record("profile") }
func (f *fakeExec) List(context.Context) error    { return f.record("list") }
func (f *fakeExec) Show(_ context.Context, args []string) error {
	return f.record(fmt.Sprint("show", args))
}
func (f *fakeExec) Add(context.Context) error { return f.record("add") }
func (f *fakeExec) Edit(_ context.Context, args []string) error {
	return f.record(fmt.Sprint("edit", args))
}
func (f *fakeExec) Delete(_ context.Context, args []string) error {
	return f.record(fmt.Sprint("delete", args))
}
func (f *fakeExec) Generate(_ context.Context, args []string) error {
	return f.record(fmt.Sprint("generate", args))
}
func (f *fakeExec) Export(context.Context) error { return f.record("export") }

func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	printed := capturePrints(t)

	input := readerFromLines(
		"help",
		"list",
		"generate 16 ul",
		"login",
		"help",
		"l",
		"show c1",
		"add",
		"edit c1",
		"delete c1",
		"export",
		"profile",
		"foobar",
		"logout",
		"exit",
		"list",
	)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, input)

	assert.Equal(t, []string{
		"generate[16 ul]", "login", "list", "show[c1]", "add", "edit[c1]",
		"delete[c1]", "export", "profile", "logout",
	}, exec.calls)
	assert.Contains(t, *printed, "Please login first")
	assert.Contains(t, *printed, helpLoggedOut)
	assert.Contains(t, *printed, helpLoggedIn)
	assert.Contains(t, *printed, "Unknown command:foobar")
	assert.Contains(t, *printed, "Bye!")
}

func TestRunREPL_PrintsErrorsAndStopsAtEOF(t *testing.T) {
	printed := capturePrints(t)

	exec := &fakeExec{fail: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, readerFromLines("register", "", "register"))

	assert.Equal(t, []string{"register", "register"}, exec.calls)
	assert.Contains(t, *printed, "Error:boom")
}

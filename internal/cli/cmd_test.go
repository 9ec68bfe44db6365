package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/config"
	"github.com/alexanderramin/weekgrid/internal/localcache"
	"github.com/alexanderramin/weekgrid/internal/normalize"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/alexanderramin/weekgrid/internal/remote"
	"github.com/alexanderramin/weekgrid/internal/remotesync"
	"github.com/alexanderramin/weekgrid/internal/repository"
	"github.com/alexanderramin/weekgrid/internal/session"
	"github.com/alexanderramin/weekgrid/internal/state"
	"github.com/alexanderramin/weekgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday of the first planner week used by the tests.
var testNow = time.Date(2026, 4, 8, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	app  *App
	clk  *clock.Fake
	docs *remote.MemoryStore
}

// testApp wires a full App backed by an in-memory DB and an in-memory
// document store.
func testApp(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	clk := clock.NewFake(testNow)
	docs := remote.NewMemoryStore(clk)

	cfg := config.DefaultConfig()
	cfg.AdminEmails = []string{"boss@example.com"}

	cache := localcache.New(testutil.NewTestUoW(database), repository.NewSQLiteSnapshotRepo(database), nil)
	store := state.New(cache, clk, nil)
	statusRepo := repository.NewSQLiteSyncStatusRepo(database)
	engine := remotesync.New(store, docs, clk, remotesync.Config{DeviceID: "test-device"}, nil,
		remotesync.WithStatusRecorder(statusRepo))
	store.SetSaveScheduler(engine)

	binder := session.New(cache, store, engine,
		session.WithAdminEmails(cfg.AdminEmails...),
		session.WithLoginRepo(repository.NewSQLiteLoginRepo(database)),
		session.WithClock(clk))

	svc := planner.New(store,
		planner.WithClock(clk),
		planner.WithGuard(func() error {
			_, err := binder.Require()
			return err
		}))

	return &testEnv{
		app: &App{
			Config:      cfg,
			Planner:     svc,
			Session:     binder,
			Sync:        engine,
			Status:      statusRepo,
			DeviceID:    "test-device",
			RemoteLabel: "memory",
		},
		clk:  clk,
		docs: docs,
	}
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// executeCmd runs a cobra command and captures stdout/stderr with colors
// stripped.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return ansiRE.ReplaceAllString(buf.String(), ""), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "weekgrid %v:\n%s", args, out)
	return out
}

func login(t *testing.T, env *testEnv) {
	t.Helper()
	mustRun(t, env.app, "login", "--id", "uid-ana", "--email", "ana@example.com", "--name", "Ana")
}

// remoteTaskNames decodes the stored document for uid-ana.
func remoteTaskNames(t *testing.T, env *testEnv) []string {
	t.Helper()
	doc, err := env.docs.Get(context.Background(), "uid-ana")
	require.NoError(t, err)
	raw, _, err := doc.State()
	require.NoError(t, err)
	var names []string
	for _, task := range normalize.Normalize(raw).Tasks {
		names = append(names, task.Name)
	}
	return names
}

// --- Session ---

func TestLogin_CreatesRemotePlan(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "login", "--id", "uid-ana", "--email", "Ana@Example.com", "--name", "Ana")

	assert.Contains(t, out, "Signed in as Ana (user)")
	assert.Contains(t, out, "Started a new plan")
	assert.Equal(t, 1, env.docs.Puts())
}

func TestLogin_AdminEmailGetsAdminRole(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "login", "--id", "uid-boss", "--email", "boss@example.com")
	assert.Contains(t, out, "(admin)")
}

func TestLogin_NonInteractiveNeedsFlags(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "login", "--id", "uid-ana")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotInteractive)
}

func TestLogin_RejectsBadEmail(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "login", "--id", "uid-ana", "--email", "not-an-email")
	require.Error(t, err)
}

func TestPlannerCommandsRequireLogin(t *testing.T) {
	env := testApp(t)

	for _, args := range [][]string{
		{"task", "list"},
		{"cal", "show"},
		{"tracked", "list"},
		{"export", filepath.Join(t.TempDir(), "x.json")},
	} {
		_, err := executeCmd(t, env.app, args...)
		require.Error(t, err, "%v", args)
		assert.Contains(t, err.Error(), "weekgrid login", "%v", args)
	}
}

func TestLogout(t *testing.T) {
	env := testApp(t)
	login(t, env)

	out := mustRun(t, env.app, "logout")
	assert.Contains(t, out, "Signed out Ana")

	out = mustRun(t, env.app, "logout")
	assert.Contains(t, out, "Not signed in.")

	_, err := executeCmd(t, env.app, "task", "list")
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "status")
	assert.Contains(t, out, "Signed in")
	assert.Contains(t, out, "no")
	assert.Contains(t, out, "test-device")

	login(t, env)
	out = mustRun(t, env.app, "status")
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "0 tasks, 0 locations, 0 tracked")
	assert.Contains(t, out, "Last sync")
}

func TestSignOut_ClearsCachedLogin(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")

	env.app.Session.SignOut(context.Background())
	_, err := executeCmd(t, env.app, "task", "list")
	require.Error(t, err, "the next command must not restore the old login")
}

// --- Sync ---

func TestChangesArePushedAfterEachCommand(t *testing.T) {
	env := testApp(t)
	login(t, env)

	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")
	assert.Equal(t, []string{"Inspect"}, remoteTaskNames(t, env))
	assert.False(t, env.app.Sync.Pending())
}

func TestSync_AlreadyInSync(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")

	out := mustRun(t, env.app, "sync")
	assert.Contains(t, out, "Already in sync.")
}

// --- Tasks and locations ---

func TestTaskLifecycle(t *testing.T) {
	env := testApp(t)
	login(t, env)

	out := mustRun(t, env.app, "location", "add", "North", "Depot", "--color", "#a0d8ef")
	assert.Contains(t, out, "Added location 1:")
	assert.Contains(t, out, "North Depot")

	out = mustRun(t, env.app, "task", "add", "--name", "Inspect pumps", "--minutes", "45", "--frequency", "weekly", "--location", "1")
	assert.Contains(t, out, "Added task 1: Inspect pumps (45m)")

	out = mustRun(t, env.app, "task", "edit", "1", "--name", "Inspect filters")
	assert.Contains(t, out, "Updated task 1: Inspect filters")

	out = mustRun(t, env.app, "task", "list")
	assert.Contains(t, out, "Inspect filters")
	assert.Contains(t, out, "North Depot", "edit keeps the location")

	_, err := executeCmd(t, env.app, "task", "rm", "1")
	require.ErrorIs(t, err, errNotInteractive)

	out = mustRun(t, env.app, "task", "rm", "1", "--yes")
	assert.Contains(t, out, "Deleted task 1")

	out = mustRun(t, env.app, "task", "list")
	assert.Contains(t, out, "No tasks yet")
}

func TestTaskAdd_RequiresFlags(t *testing.T) {
	env := testApp(t)
	login(t, env)

	_, err := executeCmd(t, env.app, "task", "add", "--name", "Inspect")
	require.Error(t, err)
}

func TestTaskRemove_ConfirmDeclined(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")

	env.app.Confirm = func(string) (bool, error) { return false, nil }
	mustRun(t, env.app, "task", "rm", "1")

	out := mustRun(t, env.app, "task", "list")
	assert.Contains(t, out, "Inspect")
}

// --- Calendar ---

func TestCalendar_AddToggleAndShow(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")
	mustRun(t, env.app, "cal", "start-time", "1", "mon", "07:30")

	out := mustRun(t, env.app, "cal", "add", "1", "mon", "1")
	assert.Contains(t, out, "Added Inspect to Monday")

	out = mustRun(t, env.app, "cal", "toggle", "1", "mon", "1")
	assert.Contains(t, out, "[x]")

	out = mustRun(t, env.app, "cal", "day", "1", "1")
	assert.Contains(t, out, "Inspect")
	assert.Contains(t, out, "7:30am")
	assert.Contains(t, out, "[x]")

	out = mustRun(t, env.app, "cal", "show", "1")
	assert.Contains(t, out, "Week total")

	out = mustRun(t, env.app, "cal", "reset-done", "--yes")
	assert.Contains(t, out, "Cleared 1 done marks")
}

func TestCalendar_RejectsBadCells(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")

	for _, args := range [][]string{
		{"cal", "add", "5", "mon", "1"},
		{"cal", "add", "1", "x", "1"},
		{"cal", "add", "1", "mon", "9"},
		{"cal", "toggle", "1", "mon", "1"},
		{"cal", "visibility", "1", "maybe"},
	} {
		_, err := executeCmd(t, env.app, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestCalendar_CopyAndMove(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "A", "--minutes", "10")
	mustRun(t, env.app, "task", "add", "--name", "B", "--minutes", "20")
	mustRun(t, env.app, "cal", "add", "1", "mon", "1")
	mustRun(t, env.app, "cal", "add", "1", "mon", "2")

	mustRun(t, env.app, "cal", "move", "1", "mon", "2", "1", "mon", "1")
	st := env.app.Planner.Snapshot()
	require.Len(t, st.Assignments[0][0], 2)
	assert.Equal(t, 2, st.Assignments[0][0][0].TaskID)

	out := mustRun(t, env.app, "cal", "copy", "1", "3", "--yes")
	assert.Contains(t, out, "Copied week 1 to week 3")
	assert.Len(t, env.app.Planner.Snapshot().Assignments[2][0], 2)
}

// --- Unfinished ---

func TestUnfinished(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")
	mustRun(t, env.app, "cal", "add", "1", "mon", "1")
	mustRun(t, env.app, "cal", "add", "1", "fri", "1")

	_, err := executeCmd(t, env.app, "unfinished")
	require.ErrorIs(t, err, planner.ErrNoStartMonday)

	mustRun(t, env.app, "cal", "monday", "2026-04-06")
	out := mustRun(t, env.app, "unfinished")
	assert.Contains(t, out, "Inspect")
	assert.Contains(t, out, "w1 Mon #1")
	assert.NotContains(t, out, "Fri", "future days are not unfinished")

	_, err = executeCmd(t, env.app, "unfinished", "done", "2")
	require.Error(t, err)

	out = mustRun(t, env.app, "unfinished", "done", "1")
	assert.Contains(t, out, "Marked Inspect")

	out = mustRun(t, env.app, "unfinished")
	assert.Contains(t, out, "Nothing unfinished.")
}

// --- Tracked tasks ---

func TestTracked(t *testing.T) {
	env := testApp(t)
	login(t, env)
	mustRun(t, env.app, "location", "add", "Depot")
	mustRun(t, env.app, "location", "add", "Yard")

	out := mustRun(t, env.app, "tracked", "add", "--title", "Pump", "--location", "1",
		"--new-category", "Filters", "--field", "Last service:date:14", "--field", "Ok:checkbox")
	assert.Contains(t, out, "Added tracked task 1: Pump @ Depot")

	out = mustRun(t, env.app, "tracked", "add", "--title", "Hose")
	assert.Contains(t, out, "@ Depot")
	assert.Contains(t, out, "@ Yard", "all locations makes one per location")

	out = mustRun(t, env.app, "tracked", "today", "1", "1")
	assert.Contains(t, out, "2026-04-08")

	mustRun(t, env.app, "tracked", "set", "1", "2", "yes")
	pump := env.app.Planner.Snapshot().FindTrackedTask(1)
	require.NotNil(t, pump)
	assert.Equal(t, true, pump.Fields[1].Value)

	_, err := executeCmd(t, env.app, "tracked", "set", "1", "1", "April 8")
	require.Error(t, err)

	out = mustRun(t, env.app, "tracked", "list", "--category", "1")
	assert.Contains(t, out, "Pump")
	assert.Contains(t, out, "Filters")
	assert.NotContains(t, out, "Hose")

	out = mustRun(t, env.app, "tracked", "bulk-field", "--label", "Notes", "--search", "hose")
	assert.Contains(t, out, `Added "Notes" to 2 tracked tasks`)

	out = mustRun(t, env.app, "tracked", "edit", "1", "--title", "Main pump")
	assert.Contains(t, out, "Main pump")
	pump = env.app.Planner.Snapshot().FindTrackedTask(1)
	require.Len(t, pump.Fields, 2, "edit without --field keeps fields")
	assert.Equal(t, "2026-04-08", pump.Fields[0].Value)

	mustRun(t, env.app, "tracked", "rm", "1", "--yes")
	assert.Nil(t, env.app.Planner.Snapshot().FindTrackedTask(1))
}

func TestTrackedCategory(t *testing.T) {
	env := testApp(t)
	login(t, env)

	out := mustRun(t, env.app, "tracked", "category", "add", "Filters")
	assert.Contains(t, out, "Category 1: Filters")

	out = mustRun(t, env.app, "tracked", "category")
	assert.Contains(t, out, "Filters")
}

// --- Backup ---

func TestExportClearImport(t *testing.T) {
	for _, name := range []string{"plan.json", "plan.cbor.zst"} {
		t.Run(name, func(t *testing.T) {
			env := testApp(t)
			login(t, env)
			mustRun(t, env.app, "task", "add", "--name", "Inspect", "--minutes", "30")
			path := filepath.Join(t.TempDir(), name)

			out := mustRun(t, env.app, "export", path)
			assert.Contains(t, out, "Exported to")

			mustRun(t, env.app, "clear", "--yes")
			assert.Empty(t, env.app.Planner.Snapshot().Tasks)

			out = mustRun(t, env.app, "import", path, "--yes")
			assert.Contains(t, out, "Imported 1 tasks")
			assert.Equal(t, []string{"Inspect"}, remoteTaskNames(t, env))
		})
	}
}

func TestExport_UnknownExtension(t *testing.T) {
	env := testApp(t)
	login(t, env)

	_, err := executeCmd(t, env.app, "export", filepath.Join(t.TempDir(), "plan.txt"))
	require.Error(t, err)
}

// --- Misc ---

func TestServe_NotWired(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "serve")
	require.Error(t, err)
}

func TestServe_UsesConfiguredAddr(t *testing.T) {
	env := testApp(t)
	var got string
	env.app.Serve = func(_ context.Context, addr string) error {
		got = addr
		return nil
	}

	mustRun(t, env.app, "serve")
	assert.Equal(t, env.app.Config.Serve.Addr, got)

	mustRun(t, env.app, "serve", "--addr", ":9999")
	assert.Equal(t, ":9999", got)
}

func TestBoard_NeedsTerminal(t *testing.T) {
	env := testApp(t)
	login(t, env)

	_, err := executeCmd(t, env.app, "board")
	require.ErrorIs(t, err, errNotInteractive)
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "", ConfigPath([]string{"task", "list"}))
	assert.Equal(t, "a.yaml", ConfigPath([]string{"--config", "a.yaml", "task", "add", "--name", "x"}))
	assert.Equal(t, "b.yaml", ConfigPath([]string{"status", "--config=b.yaml", "--unknown"}))
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// app carries what every subcommand needs.
type app struct {
	ctx    context.Context
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	creds  auth.Store
	logger *log.Logger
	client *api.Client
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			PrintHelp(out)
			return 0
		}
		ui.Fail(errOut, err.Error())
		fmt.Fprintln(errOut)
		PrintHelp(errOut)
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		PrintHelp(errOut)
		return 2
	}
	cmd, a := rest[0], rest[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp(out)
		return 0
	}

	cfg, err := config.Load(flags)
	if err != nil {
		ui.Fail(errOut, "config: "+err.Error())
		return 2
	}
	if err := ui.SetTheme(cfg.Theme); err != nil {
		ui.Fail(errOut, err.Error())
		return 2
	}

	logOut, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		ui.Fail(errOut, "log: "+err.Error())
		return 1
	}
	defer logOut.Close()
	logger := logging.New(logOut, logging.Options{Level: cfg.LogLevel, Prefix: "tada"})

	creds := auth.Store{Dir: cfg.Home}
	client, err := api.New(cfg.APIURL, api.WithToken(creds.Token()), api.WithLogger(logger))
	if err != nil {
		ui.Fail(errOut, err.Error())
		return 2
	}

	x := &app{
		ctx: ctx, in: in, out: out, errOut: errOut,
		cfg: cfg, creds: creds, logger: logger, client: client,
	}
	return x.dispatch(cmd, a)
}

func (x *app) dispatch(cmd string, a []string) int {
	switch cmd {
	case "ls":
		for _, arg := range a {
			if arg != "--group" && arg != "-g" {
				x.fail("usage: todo ls [--group]")
				return 2
			}
			x.cfg.Group = true
		}
		return x.doList()

	case "tui":
		return x.doTUI()

	case "add":
		if len(a) == 0 {
			x.fail("usage: todo add <title...>")
			return 2
		}
		return x.doAdd(strings.Join(a, " "))

	case "done":
		n, code := x.indexArg("done", a)
		if code != 0 {
			return code
		}
		return x.doToggle(n)

	case "rm":
		n, code := x.indexArg("rm", a)
		if code != 0 {
			return code
		}
		return x.doRemove(n)

	case "auth":
		if len(a) == 0 {
			x.fail("usage: todo auth <login|logout|status|whoami>")
			return 2
		}
		switch a[0] {
		case "login":
			return x.doAuthLogin()
		case "logout":
			return x.doAuthLogout()
		case "status":
			return x.doAuthStatus()
		case "whoami":
			return x.doAuthWhoAmI()
		default:
			x.fail("usage: todo auth <login|logout|status|whoami>")
			return 2
		}
	}

	x.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(x.errOut)
	PrintHelp(x.errOut)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `todo - a tiny client for a todo API

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  ls                 List items
  tui                Interactive list (space toggle, d delete, a add, e edit)
  add <title...>     Add a new item (title can be multiple words)
  done <index>       Toggle done for item at 1-based index
  rm <index>         Remove item at 1-based index
  auth <login|logout|status|whoami>   Token authentication

Flags:
  -c, --config <path>     config file (default $TADA_HOME/config.toml)
      --api-url <url>     todo API base URL (default %s)
      --theme <name>      classic, neon or mono
      --group             group ls output by pending/done
      --log-file <path>   log file (default $TADA_HOME/tada.log)
      --log-level <lvl>   debug, info, warn, error

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo rm 3
`, config.DefaultAPIURL)
}

func (x *app) fail(msg string) { ui.Fail(x.errOut, msg) }
func (x *app) ok(msg string)   { ui.OK(x.out, msg) }

// failErr reports a request error; the log keeps the details.
func (x *app) failErr(what string, err error) int {
	x.logger.Error(what, "err", err)
	x.fail(what + ": " + err.Error())
	return 1
}

func (x *app) indexArg(cmd string, a []string) (int, int) {
	if len(a) != 1 {
		x.fail(fmt.Sprintf("usage: todo %s <index>", cmd))
		return 0, 2
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		x.fail(cmd + ": not a number: " + a[0])
		return 0, 2
	}
	return n, 0
}

// -------------- subcommand impls ----------------

func (x *app) doList() int {
	todos, err := x.client.List(x.ctx)
	if err != nil {
		return x.failErr("list", err)
	}

	t := ui.Current()
	d, p := model.Stats(todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymPending), p,
		ui.C(t.Accent, "Total"), len(todos),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if x.cfg.Group {
		lines = append(lines, groupLines(todos)...)
	} else {
		lines = append(lines, flatLines(todos)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(x.out, lines)
	return 0
}

func (x *app) doTUI() int {
	if !ui.IsTTY() {
		x.fail("tui requires a terminal")
		return 1
	}
	if err := tui.Run(x.ctx, x.client, x.logger); err != nil {
		return x.failErr("tui", err)
	}
	return 0
}

func (x *app) doAdd(title string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		x.fail("add: empty title")
		return 2
	}
	t, err := x.client.Create(x.ctx, model.CreateRequest{Title: title})
	if err != nil {
		return x.failErr("add", err)
	}
	x.ok(fmt.Sprintf("added #%d", t.ID))
	return 0
}

// pick resolves a 1-based index against the server's current list.
func (x *app) pick(userIndex int) (model.Todo, int) {
	todos, err := x.client.List(x.ctx)
	if err != nil {
		return model.Todo{}, x.failErr("list", err)
	}
	if userIndex < 1 || userIndex > len(todos) {
		x.fail(fmt.Sprintf("index out of range: have %d, got %d", len(todos), userIndex))
		fmt.Fprintln(x.errOut, ui.C(ui.Current().Muted, "Hint: run `todo ls` to see valid indexes"))
		return model.Todo{}, 2
	}
	return todos[userIndex-1], 0
}

func (x *app) doToggle(userIndex int) int {
	t, code := x.pick(userIndex)
	if code != 0 {
		return code
	}
	updated, err := x.client.Update(x.ctx, t.Toggled())
	if err != nil {
		return x.failErr("done", err)
	}
	state := "pending"
	if updated.Completed {
		state = "done"
	}
	x.ok("toggled: " + state)
	return 0
}

func (x *app) doRemove(userIndex int) int {
	t, code := x.pick(userIndex)
	if code != 0 {
		return code
	}
	if err := x.client.Delete(x.ctx, t.ID); err != nil {
		return x.failErr("rm", err)
	}
	x.ok("removed")
	return 0
}

// -------------- auth subcommands ----------------

func (x *app) doAuthLogin() int {
	fmt.Fprint(x.out, "Paste your token: ")
	sc := bufio.NewScanner(x.in)
	if !sc.Scan() {
		err := sc.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		x.fail("read token: " + err.Error())
		return 1
	}
	fmt.Fprintln(x.out)
	if err := x.creds.Set(sc.Text(), nil); err != nil {
		x.fail("save token: " + err.Error())
		return 1
	}
	x.ok("logged in")
	return 0
}

func (x *app) doAuthLogout() int {
	ti, _ := x.creds.Get()
	if ti != nil && ti.Source == "env" {
		x.ok("token is provided by " + auth.EnvVar + " env var (nothing to delete)")
		return 0
	}
	if err := x.creds.Delete(); err != nil {
		x.fail("logout: " + err.Error())
		return 1
	}
	x.ok("logged out")
	return 0
}

func (x *app) doAuthStatus() int {
	ti, err := x.creds.Get()
	if err != nil {
		x.fail("status: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(x.out, ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(x.out, "Run: todo auth login")
		return 0
	}
	fmt.Fprintf(x.out, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		fmt.Fprintf(x.out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(x.out, "expires: (unknown)")
	}
	fmt.Fprintln(x.out, "env override: "+auth.EnvVar)
	return 0
}

// whoami decodes a JWT locally (unsigned); opaque tokens print basic info.
func (x *app) doAuthWhoAmI() int {
	ti, _ := x.creds.Get()
	if ti == nil {
		x.fail("not logged in. Run: todo auth login")
		return 2
	}
	if p, ok := auth.JWTPayload(ti.Token); ok {
		fmt.Fprintln(x.out, "JWT payload:")
		fmt.Fprintln(x.out, p)
		return 0
	}
	fmt.Fprintln(x.out, "Opaque token (cannot introspect locally).")
	fmt.Fprintln(x.out, "source:", ti.Source)
	return 0
}

// -------------- rendering helpers --------------

func flatLines(todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(todos))
	for i, it := range todos {
		idx := fmt.Sprintf("%2d.", i+1)
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		title := it.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(idx), ui.C(color, box), title))
	}
	return out
}

func groupLines(todos []model.Todo) []string {
	t := ui.Current()
	var pend, done []model.Todo
	for _, it := range todos {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, ui.C(t.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}

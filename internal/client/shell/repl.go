// Package shell is the interactive terminal front end of the inventory
// client.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/models"
	"github.com/atinyakov/stockroom/internal/service"
)

const helpText = `Commands:
  login [user]     sign in
  logout           sign out
  whoami           show the signed-in user
  list             reload and show the catalog
  add              add an item
  edit <id>        edit an item
  delete <id>      delete an item
  history <id>     show the change history of an item
  help             show this text
  exit             quit`

// Shell runs the read-eval-print loop over a Workspace.
type Shell struct {
	ws     *service.Workspace
	prompt *Prompter
	out    io.Writer
	log    *zap.Logger
}

// New builds a shell reading commands from in and printing to out.
func New(ws *service.Workspace, in io.Reader, out io.Writer, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{ws: ws, prompt: NewPrompter(in, out), out: out, log: log}
}

// Run processes commands until exit or end of input.
func (s *Shell) Run(ctx context.Context) {
	if s.ws.Auth.Screen() == service.ScreenMain {
		s.printf("Welcome back, %s\n", s.ws.Auth.Session().Current().Label())
		s.list(ctx, false)
	} else {
		s.printf("Type 'login' to sign in or 'help' for a list of commands.\n")
	}

	for {
		line, ok := s.prompt.Line(s.promptText())
		if !ok {
			s.printf("\n")
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		before := s.ws.Auth.Screen()
		if !s.dispatch(ctx, args) {
			s.printf("Bye\n")
			return
		}
		if before == service.ScreenMain && s.ws.Auth.Screen() == service.ScreenLogin && args[0] != "logout" {
			s.printf("Session ended. Please sign in again.\n")
		}
	}
}

func (s *Shell) promptText() string {
	if cur := s.ws.Auth.Session().Current(); cur.Valid() {
		return fmt.Sprintf("stockroom [%s]> ", cur.Label())
	}
	return "stockroom> "
}

// dispatch runs one command and reports whether the loop should go on.
func (s *Shell) dispatch(ctx context.Context, args []string) bool {
	cmd := args[0]
	switch cmd {
	case "help":
		s.printf("%s\n", helpText)
	case "exit", "quit":
		return false
	case "login":
		s.login(ctx, args[1:])
	default:
		if s.ws.Auth.Screen() != service.ScreenMain {
			s.report(service.ErrNoSession)
			return true
		}
		s.mainCommand(ctx, cmd, args[1:])
	}
	return true
}

func (s *Shell) mainCommand(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "logout":
		s.ws.Logout(ctx)
		s.printf("Signed out\n")
	case "whoami":
		s.printf("%s\n", s.ws.Auth.Session().Current().Label())
	case "list":
		s.list(ctx, true)
	case "add":
		s.add(ctx)
	case "edit":
		if id, ok := s.itemID(cmd, args); ok {
			s.edit(ctx, id)
		}
	case "delete":
		if id, ok := s.itemID(cmd, args); ok {
			s.remove(ctx, id)
		}
	case "history":
		if id, ok := s.itemID(cmd, args); ok {
			s.history(ctx, id)
		}
	default:
		s.printf("Unknown command. Type 'help' for a list of commands.\n")
	}
}

func (s *Shell) login(ctx context.Context, args []string) {
	if s.ws.Auth.Screen() == service.ScreenMain {
		s.printf("Already signed in as %s\n", s.ws.Auth.Session().Current().Label())
		return
	}
	var username string
	if len(args) > 0 {
		username = args[0]
	}
	username, password, ok := s.prompt.PromptLogin(service.KnownUsers(), username)
	if !ok {
		return
	}

	err := s.ws.Login(ctx, username, password)
	if s.ws.Auth.Screen() != service.ScreenMain {
		s.report(err)
		return
	}
	s.printf("Signed in as %s\n", s.ws.Auth.Session().Current().Label())
	if err != nil {
		s.report(err)
		return
	}
	s.render()
}

func (s *Shell) list(ctx context.Context, reload bool) {
	if reload {
		if err := s.ws.Catalog.LoadItems(ctx); err != nil {
			s.report(err)
			return
		}
	}
	s.render()
}

func (s *Shell) render() {
	if err := RenderCatalog(s.out, s.ws.Catalog.View()); err != nil {
		s.log.Warn("failed to render catalog", zap.Error(err))
	}
}

func (s *Shell) role() models.Role {
	return s.ws.Auth.Session().Current().Role
}

func (s *Shell) add(ctx context.Context) {
	if !s.role().CanCreate() {
		s.report(service.ErrForbidden)
		return
	}
	form, ok := s.prompt.PromptItem("New item", s.ws.Catalog.Draft())
	if !ok {
		s.report(service.ErrCancelled)
		return
	}
	if err := s.ws.Catalog.AddItem(ctx, form); err != nil {
		s.report(err)
		return
	}
	s.printf("Item added\n")
	s.render()
}

func (s *Shell) edit(ctx context.Context, id int64) {
	if !s.role().CanEdit() {
		s.report(service.ErrForbidden)
		return
	}
	it, ok := s.lookup(id)
	if !ok {
		return
	}
	defaults := models.ItemForm{
		Name:        it.Name,
		Description: it.Description,
		Quantity:    strconv.Itoa(it.Quantity),
	}
	form, ok := s.prompt.PromptItem(fmt.Sprintf("Edit item #%d (use %q to clear the description)", id, clearValue), defaults)
	if !ok {
		s.report(service.ErrCancelled)
		return
	}
	if err := s.ws.Catalog.EditItem(ctx, id, form); err != nil {
		s.report(err)
		return
	}
	s.printf("Item updated\n")
	s.render()
}

func (s *Shell) remove(ctx context.Context, id int64) {
	it, ok := s.lookup(id)
	if !ok {
		return
	}
	confirm := func() bool {
		return s.prompt.Confirm(fmt.Sprintf("Delete item #%d %q? [y/N]: ", id, it.Name), false)
	}
	if err := s.ws.Catalog.DeleteItem(ctx, id, confirm); err != nil {
		s.report(err)
		return
	}
	s.printf("Item deleted\n")
	s.render()
}

func (s *Shell) history(ctx context.Context, id int64) {
	if !s.role().CanViewHistory() {
		s.report(service.ErrForbidden)
		return
	}
	it, ok := s.lookup(id)
	if !ok {
		return
	}
	if err := s.ws.History.ShowHistory(ctx, id, it.Name); err != nil {
		s.report(err)
		return
	}
	// The terminal has no overlay; print it and close it right away.
	if v, open := s.ws.History.Overlay(); open {
		if err := RenderHistory(s.out, v); err != nil {
			s.log.Warn("failed to render history", zap.Error(err))
		}
	}
	s.ws.History.CloseHistory()
}

func (s *Shell) itemID(cmd string, args []string) (int64, bool) {
	if len(args) < 1 {
		s.printf("Usage: %s <id>\n", cmd)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		s.printf("Invalid item id %q\n", args[0])
		return 0, false
	}
	return id, true
}

// lookup finds id in the last fetched catalog.
func (s *Shell) lookup(id int64) (models.Item, bool) {
	it, ok := s.ws.Catalog.Item(id)
	if !ok {
		s.printf("Item %d not found. Run 'list' to refresh.\n", id)
	}
	return it, ok
}

// report routes err through the notice area and prints what it shows.
func (s *Shell) report(err error) {
	if errors.Is(err, service.ErrCancelled) {
		s.printf("Cancelled\n")
		return
	}
	s.ws.Report(err)
	if msg := s.ws.Notices.Message(); msg != "" {
		s.printf("Error: %s\n", msg)
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// Command datagpt is an interactive terminal client for the DataGPT backend:
// sign in, manage workspaces, upload PDFs and chat with cited answers.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"datagpt-client/internal/config"
	"datagpt-client/internal/entity"
	"datagpt-client/internal/gateway"
	"datagpt-client/internal/pkg/logger"
	"datagpt-client/internal/store"
	"datagpt-client/internal/stubserver"

	"github.com/fatih/color"
)

var (
	promptColor  = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	answerColor  = color.New(color.FgYellow)
	sourceColor  = color.New(color.FgHiBlack)
)

func main() {
	local := flag.Bool("local", false, "run against an in-process stub backend with seeded credentials")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer func() { _ = log.Sync() }()

	if *local {
		stub := stubserver.New(stubserver.Options{
			JwtSecret: cfg.Stub.JwtSecret,
			Users: []stubserver.SeedUser{{
				Email:    cfg.Stub.SeedEmail,
				Password: cfg.Stub.SeedPassword,
				Name:     cfg.Stub.SeedName,
				AppValid: true,
				Expiry:   time.Now().AddDate(0, 0, cfg.Stub.SubDays),
			}},
		})
		base, err := stub.Start()
		if err != nil {
			errorColor.Printf("failed to start local stub: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = stub.Shutdown() }()
		cfg.Backend.BaseURL = base + "/api/v1"
		cfg.LLM.BaseURL = base + "/llm"
		fmt.Printf("local stub backend at %s\n", base)
	}

	gw := gateway.NewClient(cfg.Backend, cfg.LLM, log)
	session := store.NewSessionStore(gw, log)
	conversations := store.NewConversationStore(gw, session, log)
	workspaces := store.NewWorkspaceStore(gw, session, conversations, log)
	defer session.Close()
	defer workspaces.Close()
	defer conversations.Close()

	ctx := context.Background()
	if *local {
		// Local-mode convenience only: the SDK itself never self-authenticates.
		if err := session.SignIn(ctx, cfg.Stub.SeedEmail, cfg.Stub.SeedPassword); err != nil {
			errorColor.Printf("stub sign-in failed: %v\n", err)
		} else {
			successColor.Printf("signed in as %s\n", cfg.Stub.SeedEmail)
			_ = workspaces.RefreshAll(ctx)
		}
	}

	repl := &repl{
		session:       session,
		workspaces:    workspaces,
		conversations: conversations,
		showSources:   make(map[string]bool),
	}
	repl.run(ctx)
}

type repl struct {
	session       *store.SessionStore
	workspaces    *store.WorkspaceStore
	conversations *store.ConversationStore
	// Citation visibility is view state only: per message, not persisted.
	showSources map[string]bool
}

func (r *repl) run(ctx context.Context) {
	fmt.Println(`type "help" for commands`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("datagpt> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		r.dispatch(ctx, cmd, args)
	}
}

func (r *repl) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		r.help()
	case "login":
		if len(args) != 2 {
			errorColor.Println("usage: login <email> <password>")
			return
		}
		r.report(r.session.SignIn(ctx, args[0], args[1]), "signed in")
		if r.session.Snapshot().Authenticated() {
			_ = r.workspaces.RefreshAll(ctx)
		}
	case "logout":
		r.session.SignOut()
		successColor.Println("signed out")
	case "status":
		r.status()
	case "ls":
		r.list()
	case "create":
		r.report(r.workspaces.Create(ctx, strings.Join(args, " ")), "workspace created")
	case "rename":
		r.rename(ctx, args)
	case "rm":
		r.remove(ctx, args)
	case "use":
		r.use(args)
	case "upload":
		r.upload(ctx, args)
	case "rmdoc":
		r.removeDoc(ctx, args)
	case "chat":
		r.chat(ctx, strings.Join(args, " "))
	case "history":
		r.history()
	case "sources":
		r.toggleSources(args)
	case "refresh":
		r.report(r.workspaces.RefreshAll(ctx), "refreshed")
	default:
		errorColor.Printf("unknown command %q\n", cmd)
	}
}

func (r *repl) help() {
	fmt.Println(`login <email> <password>   sign in
logout                     sign out
status                     session and subscription state
ls                         list workspaces
create <name>              create a workspace
rename <id> <name>         rename a workspace
rm <id>                    delete a workspace
use <id>                   select a workspace
upload <path> [...]        upload PDFs into the selected workspace
rmdoc <id>                 delete a document
chat <text>                ask a question in the selected workspace
history                    show the selected workspace's conversation
sources <n>                toggle citations for the n-th assistant reply
refresh                    re-fetch workspaces from the backend
quit                       exit`)
}

func (r *repl) status() {
	sess := r.session.Snapshot()
	if !sess.Authenticated() {
		fmt.Println("not signed in")
		return
	}
	fmt.Printf("signed in as %s (%s)\n", sess.User.Name, sess.User.Email)
	if sess.SubscriptionValid {
		successColor.Printf("subscription valid until %s\n", sess.SubscriptionExpiry.Format(time.RFC1123))
	} else {
		errorColor.Println("subscription invalid")
	}
}

func (r *repl) list() {
	snap := r.workspaces.Snapshot()
	if len(snap.Workspaces) == 0 {
		fmt.Println("no workspaces")
		return
	}
	for _, ws := range snap.Workspaces {
		marker := " "
		if snap.Selected != nil && ws.Id != nil && snap.Selected.Id != nil && *ws.Id == *snap.Selected.Id {
			marker = "*"
		}
		fmt.Printf("%s %4d  %-30s %d files, %d messages\n", marker, deref(ws.Id), ws.Name, ws.FileCount, ws.MessageCount)
	}
}

func (r *repl) rename(ctx context.Context, args []string) {
	if len(args) < 2 {
		errorColor.Println("usage: rename <id> <name>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		errorColor.Println("workspace id must be a number")
		return
	}
	snap := r.workspaces.Snapshot()
	for _, ws := range snap.Workspaces {
		if ws.Id != nil && *ws.Id == id {
			updated := ws.Workspace
			updated.Name = strings.Join(args[1:], " ")
			r.report(r.workspaces.Update(ctx, updated), "workspace renamed")
			return
		}
	}
	errorColor.Println("unknown workspace")
}

func (r *repl) remove(ctx context.Context, args []string) {
	if len(args) != 1 {
		errorColor.Println("usage: rm <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		errorColor.Println("workspace id must be a number")
		return
	}
	if err := r.workspaces.Delete(ctx, id); err != nil {
		r.printErr(err)
		return
	}
	r.conversations.Forget(id)
	successColor.Println("workspace deleted")
}

func (r *repl) use(args []string) {
	if len(args) != 1 {
		errorColor.Println("usage: use <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		errorColor.Println("workspace id must be a number")
		return
	}
	r.report(r.workspaces.Select(id), "workspace selected")
}

func (r *repl) upload(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		errorColor.Println("usage: upload <path> [...]")
		return
	}
	files := make([]store.FileUpload, 0, len(paths))
	handles := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			errorColor.Printf("%s: %v\n", p, err)
			continue
		}
		handles = append(handles, f)
		files = append(files, store.FileUpload{Name: filepath.Base(p), Content: f})
	}
	defer func() {
		for _, f := range handles {
			_ = f.Close()
		}
	}()
	if len(files) == 0 {
		return
	}

	for _, outcome := range r.workspaces.UploadDocuments(ctx, files) {
		if outcome.Err != nil {
			errorColor.Printf("%s: ", outcome.Name)
			r.printErr(outcome.Err)
		} else {
			successColor.Printf("%s uploaded\n", outcome.Name)
		}
	}
}

func (r *repl) removeDoc(ctx context.Context, args []string) {
	if len(args) != 1 {
		errorColor.Println("usage: rmdoc <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		errorColor.Println("document id must be a number")
		return
	}
	r.report(r.workspaces.DeleteDocument(ctx, id), "document deleted")
}

func (r *repl) chat(ctx context.Context, text string) {
	snap := r.workspaces.Snapshot()
	if snap.Selected == nil || snap.Selected.Id == nil {
		errorColor.Println("select a workspace first")
		return
	}
	reply, err := r.conversations.SendMessage(ctx, *snap.Selected.Id, text)
	if err != nil {
		r.printErr(err)
		return
	}
	answerColor.Println(reply.Content)
	if len(reply.Sources) > 0 {
		sourceColor.Printf("(%d sources, use `sources` to show)\n", len(reply.Sources))
	}
}

func (r *repl) history() {
	snap := r.workspaces.Snapshot()
	if snap.Selected == nil || snap.Selected.Id == nil {
		errorColor.Println("select a workspace first")
		return
	}
	assistantIdx := 0
	for _, msg := range r.conversations.Messages(*snap.Selected.Id) {
		if msg.Role == entity.ChatRoleUser {
			fmt.Printf("you: %s\n", msg.Content)
			continue
		}
		assistantIdx++
		answerColor.Printf("assistant: %s\n", msg.Content)
		if r.showSources[msg.Id.String()] {
			for _, src := range msg.Sources {
				sourceColor.Printf("    [%s p.%d] %s\n", src.File, src.Page, src.Summary)
			}
		} else if len(msg.Sources) > 0 {
			sourceColor.Printf("    (%d sources hidden, `sources %d` to show)\n", len(msg.Sources), assistantIdx)
		}
	}
}

func (r *repl) toggleSources(args []string) {
	if len(args) != 1 {
		errorColor.Println("usage: sources <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		errorColor.Println("n must be a positive number")
		return
	}
	snap := r.workspaces.Snapshot()
	if snap.Selected == nil || snap.Selected.Id == nil {
		errorColor.Println("select a workspace first")
		return
	}
	assistantIdx := 0
	for _, msg := range r.conversations.Messages(*snap.Selected.Id) {
		if msg.Role != entity.ChatRoleAssistant {
			continue
		}
		assistantIdx++
		if assistantIdx == n {
			key := msg.Id.String()
			r.showSources[key] = !r.showSources[key]
			r.history()
			return
		}
	}
	errorColor.Println("no such assistant reply")
}

// report prints exactly one notification for the command outcome.
func (r *repl) report(err error, success string) {
	if err != nil {
		r.printErr(err)
		return
	}
	successColor.Println(success)
}

func (r *repl) printErr(err error) {
	var validation *store.ValidationError
	var subscription *store.SubscriptionRequired
	var partial *store.PartialFailure
	var remote *gateway.RemoteError
	switch {
	case errors.As(err, &partial):
		errorColor.Printf("partial failure: %v\n", partial)
	case errors.As(err, &subscription):
		errorColor.Printf("subscription: %v\n", subscription)
	case errors.As(err, &validation):
		errorColor.Println(validation.Message)
	case errors.As(err, &remote):
		errorColor.Printf("backend: %v\n", remote)
	default:
		errorColor.Println(err)
	}
}

func deref(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

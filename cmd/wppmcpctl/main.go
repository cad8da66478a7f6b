package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/bridge"
	"github.com/matheus3301/wppmcp/internal/config"
	"github.com/matheus3301/wppmcp/internal/lock"
	"github.com/matheus3301/wppmcp/internal/paths"
	"github.com/matheus3301/wppmcp/internal/query"
	"github.com/matheus3301/wppmcp/internal/roster"
	"github.com/matheus3301/wppmcp/internal/store"
	"github.com/matheus3301/wppmcp/internal/tools"
)

type app struct {
	cfg     *config.Config
	jsonOut bool
	bridge  *bridge.Client
	svc     *query.Service
	closers []func() error
}

func main() {
	configFlag := flag.String("config", paths.ConfigPath(), "path to config.toml")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Resolve(*configFlag)
	if err != nil {
		fatal(err)
	}
	a := &app{
		cfg:     cfg,
		jsonOut: *jsonFlag,
		bridge:  bridge.New(cfg.BridgeOptions(), zap.NewNop()),
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		a.cmdStatus(ctx)
	case "messages":
		a.cmdMessages(ctx, args[1:])
	case "context":
		a.cmdContext(ctx, args[1:])
	case "chats":
		a.cmdChats(ctx, args[1:])
	case "contacts":
		a.cmdContacts(ctx, args[1:])
	case "nickname":
		a.cmdNickname(ctx, args[1:])
	case "send":
		a.cmdSend(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wppmcpctl [--config <path>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show bridge and server status")
	fmt.Fprintln(os.Stderr, "  messages [flags]                List messages (--chat, --sender, --query, --after, --before, --limit, --page)")
	fmt.Fprintln(os.Stderr, "  context <message_id> [chat_jid] Show messages around one message")
	fmt.Fprintln(os.Stderr, "  chats [flags]                   List chats (--query, --limit, --page, --sort)")
	fmt.Fprintln(os.Stderr, "  contacts [query]                Search contacts, or list all without a query")
	fmt.Fprintln(os.Stderr, "  nickname set <jid> <name>       Set a contact nickname")
	fmt.Fprintln(os.Stderr, "  nickname get <jid>              Show a contact nickname")
	fmt.Fprintln(os.Stderr, "  nickname rm <jid>               Remove a contact nickname")
	fmt.Fprintln(os.Stderr, "  nickname ls                     List all nicknames")
	fmt.Fprintln(os.Stderr, "  send <recipient> <message>      Send a text message through the bridge")
}

// query opens the local databases on first use.
func (a *app) query() *query.Service {
	if a.svc != nil {
		return a.svc
	}
	db, err := store.Open(a.cfg.MessagesDB)
	if err != nil {
		fatal(err)
	}
	a.closers = append(a.closers, db.Close)
	if _, err := db.Migrate(); err != nil {
		a.close()
		fatal(err)
	}
	r, err := roster.Open(a.cfg.WhatsAppDB)
	if err != nil {
		a.close()
		fatal(err)
	}
	a.closers = append(a.closers, r.Close)
	a.svc = query.NewService(db, r, zap.NewNop())
	return a.svc
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func (a *app) cmdStatus(ctx context.Context) {
	type probe struct {
		Name  string       `json:"name"`
		Reply bridge.Reply `json:"reply,omitempty"`
		Error string       `json:"error,omitempty"`
	}
	probes := []probe{{Name: "health"}, {Name: "connection"}, {Name: "sync"}}
	calls := []func(context.Context) (bridge.Reply, error){
		a.bridge.Health, a.bridge.ConnectionStatus, a.bridge.SyncStatus,
	}
	for i, call := range calls {
		reply, err := call(ctx)
		probes[i].Reply = reply
		if err != nil {
			probes[i].Error = err.Error()
		}
	}

	holder, err := lock.Holder(paths.LockDir())
	if err != nil {
		fatal(err)
	}

	if a.jsonOut {
		out := map[string]any{"bridge_url": a.cfg.BridgeURL, "bridge": probes}
		if holder != nil {
			out["http_server"] = holder
		}
		outputJSON(out)
		return
	}

	fmt.Printf("Bridge: %s\n", a.cfg.BridgeURL)
	for _, p := range probes {
		if p.Error != "" {
			fmt.Printf("  %-11s error: %s\n", p.Name+":", p.Error)
			continue
		}
		raw, _ := json.Marshal(p.Reply)
		fmt.Printf("  %-11s %s\n", p.Name+":", raw)
	}
	if holder == nil {
		fmt.Println("HTTP server: not running")
		return
	}
	fmt.Printf("HTTP server: %s (PID %d, since %s)\n",
		holder.Addr, holder.PID, holder.StartedAt.Local().Format(time.DateTime))
}

func (a *app) cmdMessages(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("messages", flag.ExitOnError)
	var p query.ListMessagesParams
	fs.StringVar(&p.ChatJID, "chat", "", "chat JID")
	fs.StringVar(&p.Sender, "sender", "", "sender phone number or JID")
	fs.StringVar(&p.Query, "query", "", "substring to match in content")
	fs.StringVar(&p.After, "after", "", "only messages after this ISO-8601 time")
	fs.StringVar(&p.Before, "before", "", "only messages before this ISO-8601 time")
	fs.IntVar(&p.Limit, "limit", query.DefaultLimit, "page size")
	fs.IntVar(&p.Page, "page", 0, "page number, starting at 0")
	fs.BoolVar(&p.IncludeContext, "context", false, "include surrounding messages")
	fs.IntVar(&p.ContextBefore, "before-n", 1, "messages before each match with --context")
	fs.IntVar(&p.ContextAfter, "after-n", 1, "messages after each match with --context")
	_ = fs.Parse(args)

	msgs, err := a.query().ListMessages(ctx, p)
	if err != nil {
		fatal(err)
	}
	if a.jsonOut {
		outputJSON(tools.MessagesToDTO(msgs))
		return
	}
	if len(msgs) == 0 {
		fmt.Println("No messages found.")
		return
	}
	for _, m := range msgs {
		printMessage(m)
	}
}

func (a *app) cmdContext(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: wppmcpctl context <message_id> [chat_jid]")
		os.Exit(1)
	}
	chatJID := ""
	if len(args) > 1 {
		chatJID = args[1]
	}
	mc, err := a.query().MessageContext(ctx, args[0], chatJID, query.DefaultContextWindow, query.DefaultContextWindow)
	if err != nil {
		fatal(err)
	}
	if a.jsonOut {
		outputJSON(map[string]any{
			"message": tools.MessageToDTO(mc.Message),
			"before":  tools.MessagesToDTO(mc.Before),
			"after":   tools.MessagesToDTO(mc.After),
		})
		return
	}
	for _, m := range mc.Before {
		printMessage(m)
	}
	fmt.Print("> ")
	printMessage(mc.Message)
	for _, m := range mc.After {
		printMessage(m)
	}
}

func (a *app) cmdChats(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("chats", flag.ExitOnError)
	p := query.ListChatsParams{IncludeLastMessage: true}
	fs.StringVar(&p.Query, "query", "", "substring to match in name or JID")
	fs.IntVar(&p.Limit, "limit", query.DefaultLimit, "page size")
	fs.IntVar(&p.Page, "page", 0, "page number, starting at 0")
	fs.StringVar(&p.SortBy, "sort", store.SortLastActive, "last_active or name")
	_ = fs.Parse(args)

	chats, err := a.query().ListChats(ctx, p)
	if err != nil {
		fatal(err)
	}
	if a.jsonOut {
		outputJSON(tools.ChatsToDTO(chats))
		return
	}
	if len(chats) == 0 {
		fmt.Println("No chats found.")
		return
	}
	for _, c := range chats {
		last := ""
		if c.LastMessageTime != nil {
			last = c.LastMessageTime.Local().Format(time.DateTime)
		}
		fmt.Printf("%-40s %-30s %s\n", c.JID, c.Name, last)
	}
}

func (a *app) cmdContacts(ctx context.Context, args []string) {
	var (
		list []*query.Contact
		err  error
	)
	if q := strings.Join(args, " "); q != "" {
		list, err = a.query().SearchContacts(ctx, q)
	} else {
		list, err = a.query().ListAllContacts(ctx, query.DefaultContactsLimit)
	}
	if err != nil {
		fatal(err)
	}
	if a.jsonOut {
		outputJSON(tools.ContactsToDTO(list))
		return
	}
	if len(list) == 0 {
		fmt.Println("No contacts found.")
		return
	}
	for _, c := range list {
		fmt.Printf("%-16s %-30s (%s)\n", c.PhoneNumber, c.Name, c.NameSource)
	}
}

func (a *app) cmdNickname(ctx context.Context, args []string) {
	usage := func() {
		fmt.Fprintln(os.Stderr, "usage: wppmcpctl nickname <set <jid> <name>|get <jid>|rm <jid>|ls>")
		os.Exit(1)
	}
	if len(args) == 0 {
		usage()
	}
	svc := a.query()

	switch args[0] {
	case "set":
		if len(args) < 3 {
			usage()
		}
		n, err := svc.SetNickname(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			fatal(err)
		}
		if a.jsonOut {
			outputJSON(tools.NicknameToDTO(n))
			return
		}
		fmt.Printf("%s is now %q\n", n.JID, n.Nickname)
	case "get":
		if len(args) < 2 {
			usage()
		}
		n, err := svc.GetNickname(ctx, args[1])
		if err != nil {
			fatal(err)
		}
		if n == nil {
			fmt.Fprintf(os.Stderr, "no nickname for %s\n", args[1])
			os.Exit(1)
		}
		if a.jsonOut {
			outputJSON(tools.NicknameToDTO(n))
			return
		}
		fmt.Println(n.Nickname)
	case "rm":
		if len(args) < 2 {
			usage()
		}
		normalized, removed, err := svc.RemoveNickname(ctx, args[1])
		if err != nil {
			fatal(err)
		}
		if a.jsonOut {
			outputJSON(map[string]any{"jid": normalized, "removed": removed})
			return
		}
		if removed {
			fmt.Printf("Removed nickname for %s\n", normalized)
		} else {
			fmt.Printf("No nickname set for %s\n", normalized)
		}
	case "ls":
		list, err := svc.ListNicknames(ctx)
		if err != nil {
			fatal(err)
		}
		if a.jsonOut {
			out := make([]tools.Nickname, 0, len(list))
			for _, n := range list {
				out = append(out, tools.NicknameToDTO(n))
			}
			outputJSON(out)
			return
		}
		for _, n := range list {
			fmt.Printf("%-40s %s\n", n.JID, n.Nickname)
		}
	default:
		usage()
	}
}

func (a *app) cmdSend(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: wppmcpctl send <recipient> <message>")
		os.Exit(1)
	}
	reply, err := a.bridge.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		fatal(err)
	}
	if a.jsonOut {
		outputJSON(reply)
		return
	}
	msg := reply.String("message")
	if msg == "" {
		msg = "sent"
	}
	fmt.Printf("Success: %s\n", msg)
}

func printMessage(m *store.Message) {
	who := m.SenderName
	if m.IsFromMe {
		who = "me"
	} else if who == "" {
		who = m.Sender
	}
	content := m.Content
	if m.Media != nil && m.Media.Type != "" {
		content = strings.TrimSpace(fmt.Sprintf("[%s %s] %s", m.Media.Type, m.Media.Filename, content))
	}
	fmt.Printf("[%s] %s (%s) %s: %s\n",
		m.Timestamp.Local().Format(time.DateTime), m.ID, m.ChatJID, who, content)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

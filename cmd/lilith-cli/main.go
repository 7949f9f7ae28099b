package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"lilith-backend/internal/client"
	"lilith-backend/pkg/api"
)

const usage = `usage: lilith-cli [-server URL] [-token TOKEN] <command> [args]

commands:
  register <username> <password>
  login <username> <password>     prints an access token
  me
  chat [-session ID] <message>
  history [-session ID]
  sessions [-limit N] [-offset N]
`

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func main() {
	server := flag.String("server", getenv("LILITH_SERVER_URL", "http://localhost:5000"), "backend base url")
	token := flag.String("token", os.Getenv("LILITH_TOKEN"), "access token returned by login")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*server)
	c.SetToken(*token)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, c *client.Client, command string, args []string) error {
	switch command {
	case "register":
		if len(args) != 2 {
			return fmt.Errorf("expected <username> <password>")
		}
		if err := c.Register(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("registered", args[0])

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("expected <username> <password>")
		}
		res, err := c.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "token expires at %s\n", res.ExpiresAt.Local().Format(time.RFC1123))
		fmt.Println(res.AccessToken)

	case "me":
		res, err := c.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%s\n", res.ID, res.Username)

	case "chat":
		fs := flag.NewFlagSet("chat", flag.ExitOnError)
		session := fs.Uint("session", 0, "session id, defaults to the current session")
		if err := fs.Parse(args); err != nil {
			return err
		}
		message := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(message) == "" {
			return fmt.Errorf("expected a message")
		}
		res, err := c.Chat(ctx, message, *session)
		if err != nil {
			return err
		}
		fmt.Printf("[session %d] %s\n", res.SessionID, res.Response)

	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		session := fs.Uint("session", 0, "session id, defaults to the current session")
		if err := fs.Parse(args); err != nil {
			return err
		}

		get := c.CurrentSession
		if *session != 0 {
			get = func(ctx context.Context) (api.SessionResponse, error) { return c.GetSession(ctx, *session) }
		}
		res, err := get(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("session %d: %s\n", res.SessionID, res.SessionName)
		for _, m := range res.Messages {
			who := "lilith"
			if m.IsUser {
				who = "you"
			}
			fmt.Printf("%s  %-6s %s\n", m.Timestamp.Local().Format("2006-01-02 15:04:05"), who, m.Text)
		}

	case "sessions":
		fs := flag.NewFlagSet("sessions", flag.ExitOnError)
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "page offset")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := c.ListSessions(ctx, *limit, *offset)
		if err != nil {
			return err
		}
		for _, s := range res.Sessions {
			fmt.Printf("%d\t%s\t%d messages\t%s\n", s.SessionID, s.SessionName, s.MessageCount, s.CreatedAt.Local().Format(time.DateTime))
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command")
	}
	return nil
}

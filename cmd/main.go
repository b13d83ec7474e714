package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"calagent/internal/agent"
	telegram "calagent/internal/bot"
	"calagent/internal/format"
	"calagent/internal/google"
	"calagent/internal/icloud"
	"calagent/internal/metrics"
	"calagent/internal/models"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calagent",
		Usage: "Conversational scheduling agent for Google Calendar.",
		Commands: []*cli.Command{
			authCommand(),
			chatCommand(),
			askCommand(),
			botCommand(),
			cancelCommand(),
			rescheduleCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive scheduling session on the terminal.",
		Action: func(c *cli.Context) error {
			_, ag, err := setupAgent(c)
			if err != nil {
				return err
			}

			fmt.Println("Calendar agent ready. Tell me what you need ('quit' to exit).")
			fmt.Println()
			fmt.Print(format.Preferences(ag.Preferences()))

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("\n> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "quit" || line == "exit" {
					return nil
				}
				res := ag.Handle(c.Context, line)
				fmt.Println(format.Result(res))
			}
		},
	}
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Run a single free-text command and exit.",
		ArgsUsage: "\"schedule a meeting with alex tomorrow at 2pm\"",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("a command is required, e.g. calagent ask \"am i free tomorrow\"")
			}
			_, ag, err := setupAgent(c)
			if err != nil {
				return err
			}
			res := ag.Handle(c.Context, strings.Join(c.Args().Slice(), " "))
			fmt.Println(format.Result(res))
			if res.Status == models.StatusError {
				os.Exit(1)
			}
			return nil
		},
	}
}

func botCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Run the Telegram front end.",
		Action: func(c *cli.Context) error {
			logger, ag, err := setupAgent(c)
			if err != nil {
				return err
			}

			token := os.Getenv("TELEGRAM_BOT_TOKEN")
			if token == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
			}
			var chatID int64
			if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
				if _, err := fmt.Sscan(v, &chatID); err != nil {
					return fmt.Errorf("invalid TELEGRAM_CHAT_ID '%s': %w", v, err)
				}
			}

			loc, err := primaryTimezone()
			if err != nil {
				return err
			}
			b, err := telegram.New(token, ag, logger, chatID, loc)
			if err != nil {
				return err
			}
			if briefing := os.Getenv("BRIEFING_TIME"); briefing != "" {
				if err := b.ScheduleBriefing(briefing); err != nil {
					return err
				}
			}
			return b.Run(c.Context)
		},
	}
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Cancel an event by identifier.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event-id", Required: true, Usage: "Identifier of the event to remove."},
		},
		Action: func(c *cli.Context) error {
			_, ag, err := setupAgent(c)
			if err != nil {
				return err
			}
			res := ag.CancelEvent(c.Context, c.String("event-id"))
			fmt.Println(format.Result(res))
			return nil
		},
	}
}

func rescheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "reschedule",
		Usage: "Move an existing event to a new start time.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event-id", Required: true, Usage: "Identifier of the event to move."},
			&cli.StringFlag{Name: "start", Required: true, Usage: "New start time, e.g. 2025-07-01T14:00:00."},
			&cli.IntFlag{Name: "duration", Usage: "Duration in minutes (default: typical meeting length)."},
		},
		Action: func(c *cli.Context) error {
			_, ag, err := setupAgent(c)
			if err != nil {
				return err
			}
			loc, err := primaryTimezone()
			if err != nil {
				return err
			}
			start, err := time.ParseInLocation("2006-01-02T15:04:05", c.String("start"), loc)
			if err != nil {
				return fmt.Errorf("invalid start time '%s': %w", c.String("start"), err)
			}
			res := ag.RescheduleEvent(c.Context, c.String("event-id"), start, c.Int("duration"))
			fmt.Println(format.Result(res))
			return nil
		},
	}
}

// setupAgent wires the logger, the Google Calendar backend, the optional
// iCloud mirror and the metrics endpoint, then builds the agent (which learns
// preferences from recent history as part of construction).
func setupAgent(c *cli.Context) (*slog.Logger, *agent.Agent, error) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := setupLogger(logLevel)

	loc, err := primaryTimezone()
	if err != nil {
		return nil, nil, err
	}

	accounts, err := google.GetTokenAccounts()
	if err != nil || len(accounts) == 0 {
		return nil, nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
	}
	account := os.Getenv("GOOGLE_ACCOUNT")
	if account == "" {
		account = accounts[0]
	}

	gClient, err := google.NewClient(c.Context, logger,
		os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"),
		account, os.Getenv("GOOGLE_CALENDAR_ID"), loc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create google client: %w", err)
	}

	var opts []agent.Option
	if user := os.Getenv("ICLOUD_USERNAME"); user != "" {
		mirror, err := icloud.NewMirrorClient(logger, user,
			os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"), os.Getenv("ICLOUD_CALENDAR_NAME"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create icloud mirror: %w", err)
		}
		opts = append(opts, agent.WithMirror(mirror))
	}

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			logger.Info("Metrics server listening.", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	}

	return logger, agent.New(c.Context, logger, gClient, loc, opts...), nil
}

func primaryTimezone() (*time.Location, error) {
	tzStr := os.Getenv("PRIMARY_TIMEZONE")
	if tzStr == "" {
		tzStr = "UTC"
	}
	loc, err := time.LoadLocation(tzStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tzStr, err)
	}
	return loc, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// Command brisk-chat is a terminal client for the brisk financial assistant.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/brisk/internal/auth"
	"github.com/MikeSquared-Agency/brisk/internal/chat"
)

func main() {
	app := &cli.App{
		Name:  "brisk-chat",
		Usage: "chat with the Brisk Insights financial assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Value:   "http://localhost:8780/api/v1/agent/chat",
				Usage:   "agent chat endpoint",
				EnvVars: []string{"BRISK_CHAT_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token for the signed-in user",
				EnvVars: []string{"BRISK_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "mint a local token with this secret (development only)",
				EnvVars: []string{"BRISK_JWT_SECRET"},
			},
			&cli.StringFlag{
				Name:    "user",
				Usage:   "user id for a minted token",
				EnvVars: []string{"BRISK_USER_ID"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   chat.DefaultTimeout,
				Usage:   "deadline for one assistant reply",
				EnvVars: []string{"BRISK_CHAT_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "history-file",
				Usage:   "prompt history file (defaults to the user config dir)",
				EnvVars: []string{"BRISK_CHAT_HISTORY"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log transport details to stderr",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	token, err := resolveToken(c)
	if err != nil {
		return err
	}
	session := chat.NewSession(token)
	defer session.Close()

	transport := chat.NewTransport(c.String("endpoint"), session, chat.WithTimeout(c.Duration("timeout")))
	out := os.Stdout
	r := newRenderer(out)

	rec := chat.NewReconciler(chat.NewLog(), transport,
		chat.WithLogger(logger),
		chat.WithUpdateHook(r.update),
		chat.WithNotifier(chat.NotifierFunc(func(message string, err error) {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", message)
			logger.Debug("exchange failed", "error", err)
		})),
	)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := c.String("history-file")
	if historyFile == "" {
		historyFile = defaultHistoryFile()
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyFile)

	fmt.Fprintln(out, "brisk> "+chat.Greeting)
	fmt.Fprintln(out, "(escribe /ayuda para ver los comandos)")

	for {
		input, err := line.Prompt("tú> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := command(out, input, session, rec); quit {
				return nil
			}
			continue
		}

		// Ctrl+C while streaming abandons the reply, not the program.
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		r.begin()
		_, err = rec.Submit(ctx, input)
		r.end()
		stop()
		if err != nil {
			logger.Debug("submit rejected", "error", err)
		}
	}
}

// command handles slash commands and reports whether to quit.
func command(out io.Writer, input string, session *chat.Session, rec *chat.Reconciler) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/salir", "/exit":
		return true
	case "/historial":
		printHistory(out, rec.Log().Turns())
	case "/token":
		if len(fields) < 2 {
			fmt.Fprintln(out, "uso: /token <jwt>")
			break
		}
		session.Refresh(fields[1])
		fmt.Fprintln(out, "credencial actualizada")
	case "/logout":
		session.Close()
		fmt.Fprintln(out, "sesión cerrada")
	default:
		fmt.Fprintln(out, "comandos: /historial /token <jwt> /logout /salir")
	}
	return false
}

func resolveToken(c *cli.Context) (string, error) {
	if t := c.String("token"); t != "" {
		return t, nil
	}
	secret := c.String("jwt-secret")
	if secret == "" {
		return "", nil
	}
	userID, err := uuid.Parse(c.String("user"))
	if err != nil {
		return "", fmt.Errorf("--user must be a user id when minting a token: %w", err)
	}
	return auth.NewVerifier(secret).Issue(userID, 12*time.Hour)
}

func defaultHistoryFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "brisk", "chat_history")
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

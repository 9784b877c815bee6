// Command dutychat is a terminal client for trying the duty chatbot against a
// local schedule seed without running the HTTP server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/wolfman30/oncall-chatbot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/oncall-chatbot/internal/config"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	seed := flag.String("seed", cfg.ScheduleSeedFile, "schedule seed JSON file")
	session := flag.String("session", "cli", "session id")
	flag.Parse()

	cfg.ScheduleSeedFile = *seed
	cfg.DatabaseURL = ""
	cfg.TranscriptsEnabled = false
	cfg.ContextStore = bootstrap.ContextStoreMemory

	logger := logging.New("warn")
	app, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	defer app.Close()

	if err := run(context.Background(), app.Conversation, *session, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("chat: %v", err)
	}
}

type responder interface {
	Respond(ctx context.Context, sessionID, text, source string) (*conversation.ChatResponse, error)
}

// run answers one question per input line until EOF or "exit".
func run(ctx context.Context, chat responder, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "exit", "quit", "종료":
			return nil
		}
		resp, err := chat.Respond(ctx, sessionID, line, "cli")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n[%s]\n> ", resp.Answer, resp.Outcome)
	}
	return scanner.Err()
}

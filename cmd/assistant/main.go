package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/clinicore/assistant/action"
	"github.com/clinicore/assistant/session"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to assistant config JSON file (required)")
		scopeID    = flag.String("scope", "", "Clinic scope id (overrides config)")
		storePath  = flag.String("db", "", "Path to SQLite conversation store (overrides config)")
		prompt     = flag.String("prompt", "", "Send one message and exit instead of starting the interactive loop")
		forceDeep  = flag.Bool("deep", false, "Route every message to the deep backend")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: assistant -config <file> [-prompt <text>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := session.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *scopeID != "" {
		cfg.ScopeID = *scopeID
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if !*verbose {
		cfg.Observer = "noop"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager, err := session.New(ctx, cfg, session.WithNotifier(action.NotifierFunc(printNotification)))
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}
	registerClinicActions(manager)

	if _, err := manager.NewConversation(ctx, ""); err != nil {
		log.Fatalf("Failed to create conversation: %v", err)
	}

	if *prompt != "" {
		if err := send(ctx, manager, *prompt, *forceDeep); err != nil {
			log.Fatalf("Send failed: %v", err)
		}
		return
	}

	repl(ctx, manager, *forceDeep)
}

func repl(ctx context.Context, manager *session.Manager, forceDeep bool) {
	fmt.Println("Clinic assistant. Type a message, /new for a fresh conversation, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/new":
			if _, err := manager.NewConversation(ctx, ""); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			continue
		}

		if err := send(ctx, manager, line, forceDeep); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func send(ctx context.Context, manager *session.Manager, content string, forceDeep bool) error {
	reply, err := manager.Send(ctx, content, session.SendOptions{
		ForceDeep: forceDeep,
		OnDelta:   func(delta, _ string) { fmt.Print(delta) },
	})
	if err != nil {
		return err
	}
	fmt.Println()

	// The streamed text was the raw reply; when commands were stripped out,
	// reprint the clean version.
	if len(reply.Ledger) > 0 {
		fmt.Printf("\n%s\n", reply.DisplayText)
	}
	return nil
}

func printNotification(_ context.Context, n action.Notification) {
	marker := "ok"
	if !n.Success {
		marker = "failed"
	}
	fmt.Printf("  [%s] %s: %s\n", marker, n.Action, n.Text)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Config defines the viewer-side environment variables.
type Config struct {
	ServerURL  string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	LogLevel   string `env:"LOG_LEVEL,default=warn"`
	BufferSize int    `env:"BUFFER_SIZE,default=64"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Viewer error: %v\n", err)
		os.Exit(1)
	}
}

// run connects as a read-only session: it renders the history snapshot as
// a table, then tails broadcasts until interrupted. It never submits.
func run() error {
	// 1. Load config (.env is optional, real env wins)
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect and start listening
	c, err := client.Dial(ctx, config.ServerURL, log, config.BufferSize)
	if err != nil {
		return err
	}
	defer c.Close()
	go c.Listen(ctx)

	color.Cyan.Printf("📡 Watching %s\n", config.ServerURL)

	// 3. Render snapshot, then tail
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case evt, ok := <-c.Events():
			if !ok {
				return fmt.Errorf("connection to %s lost", config.ServerURL)
			}
			render(evt)
		}
	}
}

func render(evt event.DomainEvent) {
	switch e := evt.(type) {
	case event.HistoryLoaded:
		renderHistory(e.Messages)
	case event.MessagePosted:
		color.Green.Printf("[%d] ", e.ID)
		color.Yellow.Printf("%s: ", e.Author)
		fmt.Printf("%s (%s)\n", e.Body, e.At.Local().Format(time.Kitchen))
	case event.HistoryCleared:
		color.Red.Println("--- chat cleared ---")
	}
}

func renderHistory(messages []domain.Message) {
	if len(messages) == 0 {
		color.Gray.Println("(no messages yet)")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Author", "Message", "At"})
	for _, m := range messages {
		table.Append([]string{
			strconv.FormatInt(m.ID, 10),
			m.Author,
			m.Body,
			m.CreatedAt.Local().Format(time.RFC822),
		})
	}
	table.Render()
}

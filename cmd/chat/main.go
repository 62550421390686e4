package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"onco-advisor-be/internal/bootstrap"
	"onco-advisor-be/internal/config"
	"onco-advisor-be/internal/dto"
	"onco-advisor-be/pkg/database"

	"github.com/fatih/color"
)

// Interactive console client for the advisor. Runs the full pipeline
// in-process against the same database as the REST server.
func main() {
	reload := flag.Bool("reload", false, "republish the dataset for indexing before starting")
	flag.Parse()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.SysLogger.Sync()

	ctx := context.Background()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}

	if *reload {
		res, err := container.DatasetService.Reload(ctx)
		if err != nil {
			log.Fatalf("Dataset reload failed: %v", err)
		}
		color.Yellow("Published %d records for indexing.", res.RecordsPublished)
	}

	session, err := container.ChatService.CreateSession(ctx)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	assistant := color.New(color.FgCyan)
	prompt := color.New(color.FgGreen, color.Bold)

	assistant.Printf("\n%s\n\n", session.Greeting)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt.Print("Enter your question (or 'exit' to quit): ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		res, err := container.ChatService.SendChat(ctx, session.Id, &dto.SendChatRequest{Chat: input})
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		assistant.Printf("\n%s\n\n", res.Reply.Chat)

		if res.Phase == "finalizing" {
			fmt.Println("Recommendation complete. Further messages start a follow-up within the same session.")
		}
	}
}

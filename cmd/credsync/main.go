package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/credsync/internal/app"
	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

func usage() {
	fmt.Fprintf(os.Stderr, `credsync %s - credit data synchronization client

Usage: credsync <command> [args]

Commands:
  sync                      Synchronize profile, loans, and credit score
  profile                   Show the financial profile
  loans                     List loan accounts
  add-loan <json>           Create a loan account from a JSON input object
  delete-loan <id>          Delete a loan account
  score                     Calculate (or reuse) the credit score
  reports                   List generated credit reports
  generate-reports <id>...  Generate reports for the given user ids
  metrics                   Show dashboard metrics
  login <token>             Store a session token for subsequent commands
  logout                    Clear all cached data
  version                   Show version information
`, common.GetVersion())
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	if command == "version" {
		fmt.Printf("credsync %s (build %s, commit %s)\n", common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return
	}

	a, err := app.NewApp(os.Getenv("CREDSYNC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, a, command, os.Args[2:]); err != nil {
		// Typed errors carry a user-facing message alongside the detail.
		if um, ok := err.(interface{ UserMessage() string }); ok {
			fmt.Fprintln(os.Stderr, um.UserMessage())
			a.Logger.Debug().Err(err).Msg("Command failed")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "sync":
		result, err := a.SyncService.Synchronize(ctx)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "profile":
		profile, err := a.SyncService.GetFinancialProfile(ctx)
		if err != nil {
			return err
		}
		return printJSON(profile)

	case "loans":
		loans, err := a.SyncService.GetLoans(ctx)
		if err != nil {
			return err
		}
		return printJSON(loans)

	case "add-loan":
		if len(args) < 1 {
			return fmt.Errorf("add-loan requires a JSON input object")
		}
		var input models.LoanInput
		if err := json.Unmarshal([]byte(args[0]), &input); err != nil {
			return fmt.Errorf("invalid loan input: %w", err)
		}
		loan, err := a.SyncService.CreateLoan(ctx, &input)
		if err != nil {
			return err
		}
		return printJSON(loan)

	case "delete-loan":
		if len(args) < 1 {
			return fmt.Errorf("delete-loan requires a loan id")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid loan id %q: %w", args[0], err)
		}
		if err := a.SyncService.DeleteLoan(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Loan %d deleted\n", id)
		return nil

	case "score":
		profile, err := a.SyncService.GetFinancialProfile(ctx)
		if err != nil {
			return err
		}
		score, err := a.SyncService.CalculateCreditScore(ctx, profile)
		if err != nil {
			return err
		}
		return printJSON(score)

	case "reports":
		reports, err := a.ReportService.ListReports(ctx)
		if err != nil {
			return err
		}
		return printJSON(reports)

	case "generate-reports":
		if len(args) == 0 {
			return fmt.Errorf("generate-reports requires at least one user id")
		}
		result, err := a.ReportService.GenerateBatch(ctx, args)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "metrics":
		loans, err := a.SyncService.GetLoans(ctx)
		if err != nil {
			// Metrics degrade; cached metrics still render.
			m, merr := a.MetricsService.CurrentMetrics(ctx)
			if merr != nil {
				return err
			}
			return printJSON(m)
		}
		var score *models.CreditScore
		if profile, perr := a.SyncService.GetFinancialProfile(ctx); perr == nil {
			score, _ = a.SyncService.CalculateCreditScore(ctx, profile)
		}
		m, err := a.MetricsService.UpdateMetrics(ctx, loans, score)
		if err != nil {
			return err
		}
		return printJSON(m)

	case "login":
		if len(args) < 1 {
			return fmt.Errorf("login requires a session token")
		}
		if err := a.Storage.CacheStore().Set(ctx, interfaces.CacheKeyToken, args[0]); err != nil {
			return err
		}
		fmt.Println("Session token stored")
		return nil

	case "logout":
		if err := a.SyncService.ClearAll(ctx); err != nil {
			return err
		}
		common.PrintShutdownBanner(a.Logger)
		fmt.Println("Logged out, cached data cleared")
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

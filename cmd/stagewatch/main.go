package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dkarlsen/stagewatch/internal/cli"
	"github.com/dkarlsen/stagewatch/internal/db"
	"github.com/dkarlsen/stagewatch/internal/delivery"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/dkarlsen/stagewatch/internal/service"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

const deliveryTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Plain output when piped or redirected.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	// Determine DB path: env var or default ~/.stagewatch/stagewatch.db
	dbPath := os.Getenv("STAGEWATCH_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".stagewatch", "stagewatch.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	typeRepo := repository.NewSQLiteProjectTypeRepo(database)
	stageRepo := repository.NewSQLiteStageRepo(database)
	projectRepo := repository.NewSQLiteProjectRepo(database)
	ruleRepo := repository.NewSQLiteRuleRepo(database)
	chronologyRepo := repository.NewSQLiteChronologyRepo(database)
	notificationRepo := repository.NewSQLiteNotificationRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	// Delivery: contacts come from an optional JSON file; senders log to
	// stderr in place of real provider gateways.
	contacts, err := delivery.LoadContactsFile(os.Getenv("STAGEWATCH_CONTACTS"))
	if err != nil {
		return err
	}
	worker := delivery.NewWorker(contacts, deliveryTimeout)
	worker.Register(domain.ChannelEmail, delivery.NewLogSender(os.Stderr, domain.ChannelEmail))
	worker.Register(domain.ChannelSMS, delivery.NewLogSender(os.Stderr, domain.ChannelSMS))
	worker.Register(domain.ChannelPush, delivery.NewLogSender(os.Stderr, domain.ChannelPush))
	tasks := delivery.NewLogTaskCreator(os.Stderr)

	// Role-to-user assignments for resolving stage responsibility.
	roles, err := service.LoadRoleDirectoryFile(os.Getenv("STAGEWATCH_ROLES"))
	if err != nil {
		return err
	}

	var observers []service.UseCaseObserver
	if os.Getenv("STAGEWATCH_LOG") != "" {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}

	app := &cli.App{
		Chronology: service.NewChronologyService(uow, chronologyRepo, stageRepo, nil, observers...),
		Scheduler: service.NewSchedulerService(
			notificationRepo, projectRepo, typeRepo, ruleRepo, worker, tasks, nil, observers...),
		Stages:       service.NewStageService(stageRepo),
		Assignees:    service.NewAssigneeResolver(nil, roles, stageRepo, os.Getenv("STAGEWATCH_FALLBACK_ASSIGNEE")),
		Projects:     projectRepo,
		ProjectTypes: typeRepo,
		Rules:        ruleRepo,
		Calendar:     timecalc.DefaultCalendar(),
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}

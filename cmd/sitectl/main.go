// Command sitectl is the operator CLI: database setup, manual request
// processing, inbox polling, and registration decisions without the web
// UI.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/construction-robotics/site-coordination/internal/database"
	"github.com/construction-robotics/site-coordination/internal/inbox"
	"github.com/construction-robotics/site-coordination/internal/notify"
	"github.com/construction-robotics/site-coordination/internal/processor"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/internal/service"
	"github.com/construction-robotics/site-coordination/pkg/config"
	"github.com/construction-robotics/site-coordination/pkg/events"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

type app struct {
	cfg *config.Config
	db  *sql.DB
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	db, err := database.Connect(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &app{cfg: cfg, db: db}, nil
}

func (a *app) processor() *processor.Processor {
	return processor.New(sqlite.NewRegistrationRepo(a.db), sqlite.NewBookingRepo(a.db), events.NoopPublisher{})
}

func (a *app) mailer() notify.Mailer {
	if a.cfg.Email.DevMode {
		return notify.NewDevMailer()
	}
	if a.cfg.Email.MailerSendKey != "" {
		return notify.NewMailerSend(a.cfg.Email.MailerSendKey, a.cfg.Email.SenderName, a.cfg.SMTP.SenderEmail)
	}
	return notify.NewSMTPMailer(a.cfg.SMTP.Host, a.cfg.SMTP.Port, a.cfg.SMTP.User, a.cfg.SMTP.Password, a.cfg.SMTP.SenderEmail)
}

func (a *app) registrationService() service.RegistrationService {
	registrations := sqlite.NewRegistrationRepo(a.db)
	return service.NewRegistrationService(
		registrations,
		sqlite.NewUserRepo(a.db),
		a.processor(),
		a.mailer(),
		events.NoopPublisher{},
	)
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database file and apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			cmd.Printf("Database ready at %s\n", a.cfg.Database.Path)
			return nil
		},
	}
}

func newProcessFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-file <path>",
		Short: "Parse and store a request body from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			result, err := a.processor().HandleBody(cmd.Context(), string(body))
			if err != nil {
				return err
			}
			cmd.Println(result.Message)
			return nil
		},
	}
}

func newProcessIMAPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-imap",
		Short: "Fetch unseen inbox messages and process them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.IMAP.Host == "" {
				return fmt.Errorf("SITE_COORDINATION_IMAP_HOST is not set")
			}
			fetcher := inbox.NewIMAPFetcher(a.cfg.IMAP.Host, a.cfg.IMAP.User, a.cfg.IMAP.Password, a.cfg.IMAP.Mailbox)
			results, err := inbox.Process(cmd.Context(), fetcher, a.processor())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				cmd.Println("No new messages.")
				return nil
			}
			for _, result := range results {
				cmd.Println(result)
			}
			return nil
		},
	}
}

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <email>",
		Short: "Approve a registration and email the credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.registrationService().Approve(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			if result.EmailSent {
				cmd.Printf("Approved %s, credentials sent.\n", result.Email)
			} else {
				cmd.Printf("Approved %s, but the credentials email failed; re-send from the user list.\n", result.Email)
			}
			return nil
		},
	}
}

func newRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <email>",
		Short: "Deny a registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.registrationService().Reject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Rejected %s.\n", result.Email)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Site coordination operator tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newInitDBCmd(),
		newProcessFileCmd(),
		newProcessIMAPCmd(),
		newApproveCmd(),
		newRejectCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/mailmind/mailmind/cmd/app/commands"
	"github.com/mailmind/mailmind/internal/app"
	"github.com/mailmind/mailmind/internal/config"
)

func getAccountCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-account",
			Usage: "Register a new mailbox account in PENDING status",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Owning user ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "provider",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Mail provider (e.g., imap, gmail)",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Mailbox email address",
				},
				&cli.StringFlag{
					Name:    "display-name",
					Aliases: []string{"d"},
					Usage:   "Optional display name for the account",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountUseCase, err := container.AccountUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunCreateAccount(
					ctx,
					accountUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("provider"),
					cmd.String("email"),
					cmd.String("display-name"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "activate-account",
			Usage: "Store credentials for a mailbox account and start syncing",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Mailbox account ID (UUID)",
				},
				&cli.StringFlag{
					Name:  "access-token",
					Usage: "OAuth access token",
				},
				&cli.StringFlag{
					Name:  "refresh-token",
					Usage: "OAuth refresh token",
				},
				&cli.StringFlag{
					Name:  "token-expires-at",
					Usage: "OAuth token expiry in RFC3339 format",
				},
				&cli.StringFlag{
					Name:  "imap-host",
					Usage: "IMAP server hostname",
				},
				&cli.IntFlag{
					Name:  "imap-port",
					Usage: "IMAP server port (defaults to 993)",
				},
				&cli.StringFlag{
					Name:  "imap-username",
					Usage: "IMAP login username",
				},
				&cli.StringFlag{
					Name:  "imap-password",
					Usage: "IMAP login password (stored encrypted)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountUseCase, err := container.AccountUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunActivateAccount(
					ctx,
					accountUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("access-token"),
					cmd.String("refresh-token"),
					cmd.String("token-expires-at"),
					cmd.String("imap-host"),
					int(cmd.Int("imap-port")),
					cmd.String("imap-username"),
					cmd.String("imap-password"),
				)
			},
		},
		{
			Name:  "revoke-account",
			Usage: "Revoke a mailbox account and delete its credentials",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Mailbox account ID (UUID)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountUseCase, err := container.AccountUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunRevokeAccount(
					ctx,
					accountUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
				)
			},
		},
		{
			Name:  "list-accounts",
			Usage: "List a user's mailbox accounts",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Owning user ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountUseCase, err := container.AccountUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunListAccounts(
					ctx,
					accountUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("format"),
				)
			},
		},
	}
}

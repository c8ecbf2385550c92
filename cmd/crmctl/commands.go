package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/zjregee/crmdesk/internal/config"
	"github.com/zjregee/crmdesk/internal/logging"
	"github.com/zjregee/crmdesk/internal/models"
	"github.com/zjregee/crmdesk/internal/service"
	"github.com/zjregee/crmdesk/internal/service/settings"
)

const version = "0.1.0"

func newApp() *cli.App {
	return &cli.App{
		Name:    "crmctl",
		Usage:   "Read and answer the CRM inbox from a terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			threadsCommand(),
			showCommand(),
			sendCommand(),
			composeCommand(),
			customersCommand(),
			settingsCommand(),
			initCommand(),
		},
	}
}

// withInbox opens the configured inbox for the duration of fn.
func withInbox(c *cli.Context, fn func(ctx context.Context, inbox *service.InboxService) error) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	// keep stdout clean for command output
	level := cfg.Log.Level
	if level == "info" {
		level = "warn"
	}
	logger := logging.NewWithWriter(os.Stderr, level, cfg.Log.Format)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	inbox, err := service.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inbox.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close inbox")
		}
	}()

	return fn(ctx, inbox)
}

func threadsCommand() *cli.Command {
	return &cli.Command{
		Name:  "threads",
		Usage: "List conversation threads, most recent first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Only threads whose subject, customer, company or messages contain `TERM`",
			},
			&cli.BoolFlag{
				Name:    "unread",
				Aliases: []string{"u"},
				Usage:   "Only threads with unread messages",
			},
		},
		Action: func(c *cli.Context) error {
			return withInbox(c, func(_ context.Context, inbox *service.InboxService) error {
				summaries := inbox.ListThreads(models.ThreadFilter{
					Search:     c.String("search"),
					UnreadOnly: c.Bool("unread"),
				})

				w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCUSTOMER\tSUBJECT\tUNREAD\tUPDATED")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						s.ID, s.CustomerName, s.Subject, s.UnreadCount, s.LastUpdated.Local().Format(time.DateTime))
				}
				if err := w.Flush(); err != nil {
					return err
				}

				fmt.Fprintf(c.App.Writer, "\n%d unread\n", inbox.UnreadTotal())
				return nil
			})
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a thread and mark it read",
		ArgsUsage: "<thread-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("show takes exactly one thread id", 1)
			}

			return withInbox(c, func(ctx context.Context, inbox *service.InboxService) error {
				detail, err := inbox.SelectThread(ctx, c.Args().First())
				if err != nil {
					return err
				}

				out := c.App.Writer
				fmt.Fprintf(out, "%s (%s)\n", detail.CustomerName, detail.Company)
				fmt.Fprintf(out, "Subject: %s\n\n", detail.Thread.Subject)
				for _, msg := range detail.Thread.Messages {
					from := detail.CustomerName
					if !msg.IsInbound() {
						from = "You"
					}
					fmt.Fprintf(out, "[%s] %s: %s\n", msg.Timestamp.Local().Format(time.DateTime), from, msg.Text)
				}
				return nil
			})
		},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Reply in an existing thread",
		ArgsUsage: "<thread-id> <text...>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("send takes a thread id and the message text", 1)
			}

			threadID := c.Args().First()
			text := strings.Join(c.Args().Tail(), " ")

			return withInbox(c, func(ctx context.Context, inbox *service.InboxService) error {
				msg, err := inbox.SendMessage(ctx, threadID, text)
				if err != nil {
					return err
				}

				fmt.Fprintf(c.App.Writer, "sent %s to thread %s\n", msg.ID, threadID)
				return nil
			})
		},
	}
}

func composeCommand() *cli.Command {
	return &cli.Command{
		Name:  "compose",
		Usage: "Start a new conversation with a customer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "customer", Usage: "Customer `ID`"},
			&cli.StringFlag{Name: "subject", Usage: "Thread subject"},
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "First message"},
		},
		Action: func(c *cli.Context) error {
			return withInbox(c, func(ctx context.Context, inbox *service.InboxService) error {
				thread, err := inbox.CreateThread(ctx, models.ComposeInput{
					CustomerID: c.String("customer"),
					Subject:    c.String("subject"),
					Message:    c.String("message"),
				})
				if err != nil {
					return err
				}

				fmt.Fprintf(c.App.Writer, "created thread %s\n", thread.ID)
				return nil
			})
		},
	}
}

func customersCommand() *cli.Command {
	return &cli.Command{
		Name:  "customers",
		Usage: "List the customer directory",
		Action: func(c *cli.Context) error {
			return withInbox(c, func(_ context.Context, inbox *service.InboxService) error {
				w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCOMPANY")
				for _, customer := range inbox.Customers() {
					fmt.Fprintf(w, "%s\t%s\t%s\n", customer.ID, customer.FullName(), customer.Company)
				}
				return w.Flush()
			})
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change user settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current settings as JSON",
				Action: func(c *cli.Context) error {
					return withInbox(c, func(_ context.Context, inbox *service.InboxService) error {
						return printSettings(c, inbox.Settings().Settings())
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Change fields of one section",
				ArgsUsage: "<profile|appearance|notifications|security> <key=value...>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return cli.Exit("set takes a section and at least one key=value", 1)
					}

					patch, err := parseAssignments(c.Args().Tail())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					section := settings.Section(c.Args().First())

					return withInbox(c, func(ctx context.Context, inbox *service.InboxService) error {
						current, err := inbox.Settings().Update(ctx, section, patch)
						if err != nil {
							return err
						}
						return printSettings(c, current)
					})
				},
			},
		},
	}
}

// parseAssignments turns key=value pairs into a patch. Values that parse as
// JSON keep their type, anything else is a string.
func parseAssignments(args []string) (map[string]any, error) {
	patch := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		patch[key] = value
	}
	return patch, nil
}

func printSettings(c *cli.Context, current *models.Settings) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(current)
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write a sample configuration file",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "crmdesk.toml"
			}

			if err := config.InitConfig(path); err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
			return nil
		},
	}
}

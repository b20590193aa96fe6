package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/accountstore/pkg/accountstore"
	"github.com/bft-labs/accountstore/plugins/slotwatcher"
)

func (c *cli) loginCmd() *cobra.Command {
	var in accountstore.ProfileInput
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Record a sign-in and mark the account as new",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				if err := s.Login(ctx, in); err != nil {
					return err
				}
				return c.printStatus(cmd, s)
			})
		},
	}
	profileFlags(cmd, &in)
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	var in accountstore.ProfileInput
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				if in != (accountstore.ProfileInput{}) {
					if err := s.UpdateProfile(ctx, in); err != nil {
						return err
					}
				}
				return c.print(cmd, s.Profile(), profileRows(s.Profile()))
			})
		},
	}
	profileFlags(cmd, &in)
	return cmd
}

func profileFlags(cmd *cobra.Command, in *accountstore.ProfileInput) {
	f := cmd.Flags()
	f.StringVar(&in.ID, "id", "", "account ID (generated on first login if empty)")
	f.StringVar(&in.Email, "email", "", "account email")
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.AvatarURL, "avatar-url", "", "avatar image URL")
	f.StringVar(&in.Company, "company", "", "company name")
}

// lifecycleCmd builds a command that runs a single status transition.
func (c *cli) lifecycleCmd(use, short string, op func(*accountstore.AccountStore, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				if err := op(s, ctx); err != nil {
					return err
				}
				return c.printStatus(cmd, s)
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the account status and derived flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(_ context.Context, s *accountstore.AccountStore) error {
				return c.printStatus(cmd, s)
			})
		},
	}
}

func (c *cli) settingsCmd() *cobra.Command {
	var (
		theme    string
		language string
		notify   bool
		compact  bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update account settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch accountstore.SettingsPatch
			f := cmd.Flags()
			if f.Changed("theme") {
				t := accountstore.Theme(theme)
				patch.Theme = &t
			}
			if f.Changed("language") {
				patch.Language = &language
			}
			if f.Changed("email-notifications") {
				patch.EmailNotifications = &notify
			}
			if f.Changed("compact") {
				patch.CompactMode = &compact
			}

			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				if patch != (accountstore.SettingsPatch{}) {
					if err := s.UpdateSettings(ctx, patch); err != nil {
						return err
					}
				}
				return c.print(cmd, s.Settings(), settingsRows(s.Settings()))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&theme, "theme", "", "colour scheme (system|light|dark)")
	f.StringVar(&language, "language", "", "interface language")
	f.BoolVar(&notify, "email-notifications", true, "receive email notifications")
	f.BoolVar(&compact, "compact", false, "use the compact layout")
	return cmd
}

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage the account's projects",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List projects",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(_ context.Context, s *accountstore.AccountStore) error {
					return c.print(cmd, s.Projects(), projectRows(s.Projects()))
				})
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
					p, err := s.AddProject(ctx, args[0])
					if err != nil {
						return err
					}
					return c.print(cmd, p, projectRows([]accountstore.Project{p}))
				})
			},
		},
		&cobra.Command{
			Use:   "remove ID",
			Short: "Remove a project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
					removed, err := s.RemoveProject(ctx, args[0])
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("project %q not found", args[0])
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) teamCmd() *cobra.Command {
	var role string
	add := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Add a team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				m, err := s.AddMember(ctx, args[0], accountstore.Role(role))
				if err != nil {
					return err
				}
				return c.print(cmd, m, memberRows([]accountstore.Member{m}))
			})
		},
	}
	add.Flags().StringVar(&role, "role", string(accountstore.RoleMember), "member role (owner|admin|member)")

	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage the account's team",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List team members",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(_ context.Context, s *accountstore.AccountStore) error {
					return c.print(cmd, s.Members(), memberRows(s.Members()))
				})
			},
		},
		add,
		&cobra.Command{
			Use:   "remove ID|EMAIL",
			Short: "Remove a team member",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
					removed, err := s.RemoveMember(ctx, args[0])
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("member %q not found", args[0])
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Check once for a stale account, purging it with --purge-stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				res, err := s.Sweep(ctx, c.cfg.PurgeStale)
				if err != nil {
					return err
				}
				return c.print(cmd, res, sweepRows(res))
			})
		},
	}
}

// statusPrinter logs status changes observed while watching.
type statusPrinter struct {
	accountstore.BaseEventHandler
	c *cli
}

func (p statusPrinter) OnStatusChange(ev accountstore.StatusChangeEvent) {
	p.c.logger.Info().
		Str("from", ev.Previous.String()).
		Str("to", ev.Current.String()).
		Msg("status changed")
}

func (p statusPrinter) OnRehydrate(ev accountstore.RehydrateEvent) {
	p.c.logger.Info().
		Str("status", ev.Status.String()).
		Int("projects", ev.Projects).
		Int("members", ev.Members).
		Msg("state reloaded")
}

func (c *cli) watchCmd() *cobra.Command {
	var retry time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow slot changes and sweep for stale accounts until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			opts := []accountstore.Option{
				accountstore.WithEventHandler(statusPrinter{c: c}),
				accountstore.WithSweeper(accountstore.SweeperConfig{
					Enabled:    true,
					Interval:   c.cfg.SweepInterval,
					PurgeStale: c.cfg.PurgeStale,
				}),
			}
			wcfg := slotwatcher.DefaultConfig()
			wcfg.RetryInterval = retry
			opts = append(opts, slotwatcher.WithSlotWatcher(wcfg))

			return c.run(cmd, func(ctx context.Context, s *accountstore.AccountStore) error {
				c.logger.Info().
					Str("backend", c.cfg.Backend).
					Str("data_dir", c.cfg.DataDir).
					Str("status", s.Status().String()).
					Msg("watching account state")

				<-ctx.Done()
				c.logger.Info().Msg("received shutdown signal")
				return nil
			}, opts...)
		},
	}
	cmd.Flags().DurationVar(&retry, "retry-interval", time.Second, "delay between failed reload attempts")
	return cmd
}

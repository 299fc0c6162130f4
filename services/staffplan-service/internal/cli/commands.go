package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/md-rashed-zaman/staffplan/libs/auth"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/app"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, a, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
				return nil
			})
		},
	}
}

func newImportCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:       "import ENTITY FILE",
		Short:     "Import a CSV file (" + strings.Join(app.ImportEntities(), ", ") + ")",
		Args:      cobra.ExactArgs(2),
		ValidArgs: app.ImportEntities(),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			return withBackend(cmd, a, func(ctx context.Context, b Backend) error {
				n, err := b.ImportCSV(ctx, args[0], f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s.\n", n, args[0])
				return nil
			})
		},
	}
}

func newReportCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and download XLSX reports",
	}
	cmd.AddCommand(newReportGenerateCmd(a), newReportLastCmd(a))
	return cmd
}

func newReportGenerateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate every report now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, a, func(ctx context.Context, b Backend) error {
				reports, err := b.GenerateReports(ctx)
				if err != nil {
					return err
				}
				for _, r := range reports {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d bytes\n", r.ID, r.Filename(), len(r.Data))
				}
				return nil
			})
		},
	}
}

func newReportLastCmd(a *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "last TYPE",
		Short: "Download the latest WORKLOAD or AVAILABILITY report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseReportType(args[0])
			if err != nil {
				return err
			}
			return withBackend(cmd, a, func(ctx context.Context, b Backend) error {
				r, err := b.LastReport(ctx, typ)
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = r.Filename()
				}
				if err := os.WriteFile(path, r.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: the report file name)")
	return cmd
}

func newTokenCmd(a *App) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		roles   []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token for local use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required to mint tokens")
			}
			if strings.TrimSpace(subject) == "" {
				return fmt.Errorf("--sub is required")
			}
			claims := auth.Claims{
				Roles: roles,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject: subject,
					Issuer:  a.JWTIssuer,
				},
			}
			token, err := auth.IssueHS256(a.JWTSecret, claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "roles to grant (repeatable)")
	return cmd
}

func newAvailableCmd(a *App) *cobra.Command {
	var period int
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List users available in the next N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, a, func(ctx context.Context, b Backend) error {
				views, err := b.Available(ctx, period)
				if err != nil {
					return err
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No available users.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tFROM\tTO")
				for _, v := range views {
					to := "-"
					if v.AvailableTo != nil {
						to = v.AvailableTo.String()
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.User.ID, v.User.FullName(), v.User.Email, v.AvailableFrom.String(), to)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&period, "period", 0, "days to look ahead (0: free today)")
	return cmd
}

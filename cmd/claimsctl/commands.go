package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claimsdesk/backend/internal/auth"
	"github.com/claimsdesk/backend/internal/bizdays"
	"github.com/claimsdesk/backend/internal/config"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/numbering"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "claimsctl",
		Short:         "Claims workflow operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newGraphCmd(),
		newBizdaysCmd(),
		newLimitsCmd(),
		newNumberCmd(),
		newTokenCmd(),
	)
	return root
}

func newGraphCmd() *cobra.Command {
	var kind, format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print a status graph",
		Example: `  claimsctl graph --kind claim
  claimsctl graph --kind policy --format dot | dot -Tsvg > policy.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := statemachine.EntityKind(kind)
			if len(statemachine.Statuses(k)) == 0 {
				return fmt.Errorf("unknown kind %q (claim, policy)", kind)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "dot":
				fmt.Fprint(out, statemachine.DOT(k))
			case "text":
				fmt.Fprintf(out, "initial: %s\n", statemachine.InitialStatus(k))
				fmt.Fprintf(out, "terminal: %s\n", strings.Join(statemachine.Terminal(k), ", "))
				for _, e := range statemachine.Edges(k) {
					fmt.Fprintf(out, "%s -> %s\n", e.From, e.To)
				}
			default:
				return fmt.Errorf("unknown format %q (text, dot)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "claim", "entity kind: claim or policy")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or dot")
	return cmd
}

func newBizdaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bizdays",
		Short: "Business-day arithmetic (Monday to Friday)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "between FROM TO",
		Short: "Count business days elapsed from FROM to TO",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(dateLayout, args[0])
			if err != nil {
				return fmt.Errorf("parse FROM: %w", err)
			}
			to, err := time.Parse(dateLayout, args[1])
			if err != nil {
				return fmt.Errorf("parse TO: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), bizdays.BusinessDaysBetween(from, to))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add DATE N",
		Short: "Print the date N business days after DATE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(dateLayout, args[0])
			if err != nil {
				return fmt.Errorf("parse DATE: %w", err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("N must be a non-negative integer")
			}
			fmt.Fprintln(cmd.OutOrStdout(), bizdays.AddBusinessDays(start, n).Format(dateLayout))
			return nil
		},
	})
	return cmd
}

func newLimitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Inspect SLA limit files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Check an SLA limits YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limits, err := sla.LoadLimits(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d limits\n", len(limits))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [FILE]",
		Short: "Print the effective limits, the defaults when FILE is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			limits, err := sla.LoadLimits(path)
			if err != nil {
				return err
			}
			printLimits(cmd, limits)
			return nil
		},
	})
	return cmd
}

// printLimits lists limits in workflow order.
func printLimits(cmd *cobra.Command, limits sla.Limits) {
	for _, st := range models.ClaimStatuses {
		days, ok := limits[st]
		if !ok {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %d business days (at risk from %d)\n", st, days, sla.AtRiskFrom(days))
	}
}

// encoderFlags binds --salt and --min-length, defaulting to the environment.
func encoderFlags(cmd *cobra.Command) func() (*numbering.Encoder, error) {
	cfg := config.Load()
	var salt string
	var minLen int
	cmd.PersistentFlags().StringVar(&salt, "salt", cfg.ClaimNumberSalt, "claim code salt (CLAIM_NUMBER_SALT)")
	cmd.PersistentFlags().IntVar(&minLen, "min-length", cfg.ClaimNumberMinLen, "minimum code length (CLAIM_NUMBER_MIN_LENGTH)")
	return func() (*numbering.Encoder, error) {
		return numbering.NewEncoder(salt, minLen)
	}
}

func newNumberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "number",
		Short: "Convert claim numbers to public codes and back",
	}
	encoder := encoderFlags(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "encode NUMBER",
		Short: "Print the public code of a claim number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse NUMBER: %w", err)
			}
			enc, err := encoder()
			if err != nil {
				return err
			}
			code, err := enc.Encode(n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode CODE",
		Short: "Print the claim number behind a public code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := encoder()
			if err != nil {
				return err
			}
			n, err := enc.Decode(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})
	return cmd
}

func newTokenCmd() *cobra.Command {
	cfg := config.Load()
	var secret, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token ACTOR_ID",
		Short: "Issue an API token for an existing actor",
		Long: `Issue an API token for an existing actor. The API reloads the actor's
role and relationships on every request; --role is informational.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse ACTOR_ID: %w", err)
			}
			if role != "" {
				if _, err := rbac.ParseRole(role); err != nil {
					return err
				}
			}
			token, err := auth.GenerateJWT(secret, id, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", cfg.JWTSecret, "signing secret (JWT_SECRET)")
	cmd.Flags().StringVar(&role, "role", "", "role recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.JWTExpiration, "token lifetime")
	return cmd
}

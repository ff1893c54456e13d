package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"profily/internal/gateway/app"
	"profily/internal/gateway/config"
	"profily/internal/gateway/logging"
	"profily/internal/techstack/mapping"
)

const (
	CmdAnalyze  = "analyze"
	CmdMappings = "mappings"
	FlagToken   = "token"
	FlagUser    = "user"
	FlagRefresh = "refresh"
	FlagOutput  = "output"
	FlagTable   = "table"
	EnvToken    = "GITHUB_TOKEN"
)

// Execute runs the command tree. Cancelling ctx aborts a running analysis.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the techstack command tree.
func NewRootCmd() *cobra.Command {
	var output string
	root := &cobra.Command{
		Use:   "techstack",
		Short: "Detect the technologies used across a GitHub account",
		Long: `techstack inspects a user's GitHub repositories (languages, dependency
manifests, well-known files, README content and topics) and produces a ranked,
categorized tech-stack profile.

  techstack analyze --user alice --token $GITHUB_TOKEN
  techstack analyze --user alice --refresh -o yaml
  techstack mappings --table goMod`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&output, FlagOutput, "o", FormatJSON, "output format (json|yaml)")
	root.AddCommand(newAnalyzeCmd(&output), newMappingsCmd(&output))
	return root
}

func newAnalyzeCmd(output *string) *cobra.Command {
	var (
		token   string
		userID  string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   CmdAnalyze,
		Short: "Analyze a user's repositories and print the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				token = strings.TrimSpace(os.Getenv(EnvToken))
			}
			if token == "" {
				return fmt.Errorf("--%s or %s is required", FlagToken, EnvToken)
			}
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return fmt.Errorf("--%s is required", FlagUser)
			}

			cfg := config.FromEnv()
			log := logging.Init(cfg.Log)
			log.SetOutput(cmd.ErrOrStderr())
			return runAnalyze(cmd.Context(), cmd, cfg, log, userID, token, refresh, *output)
		},
	}
	cmd.Flags().StringVar(&token, FlagToken, "", "GitHub access token (defaults to $"+EnvToken+")")
	cmd.Flags().StringVar(&userID, FlagUser, "", "user id the profile is stored under")
	cmd.Flags().BoolVar(&refresh, FlagRefresh, false, "skip the cache and stored profile")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log logrus.FieldLogger, userID, token string, refresh bool, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := app.NewServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	load := svc.Analyzer.GetProfile
	if refresh {
		load = svc.Analyzer.RefreshProfile
	}
	profile, source, err := load(ctx, userID, token)
	if err != nil {
		return err
	}
	log.WithField("source", source).Info("profile ready")
	return render(cmd.OutOrStdout(), output, profile)
}

type tableSummary struct {
	Table   string `json:"table"`
	Entries int    `json:"entries"`
}

type tableEntry struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Icon     string `json:"icon,omitempty"`
}

func newMappingsCmd(output *string) *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   CmdMappings,
		Short: "Show the bundled identifier to technology tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := mapping.Default()
			if err != nil {
				return err
			}
			if strings.TrimSpace(table) == "" {
				out := make([]tableSummary, 0, len(mapping.Ecosystems()))
				for _, e := range mapping.Ecosystems() {
					out = append(out, tableSummary{Table: e.String(), Entries: m.Table(e).Len()})
				}
				return render(cmd.OutOrStdout(), *output, out)
			}

			e, ok := mapping.ParseEcosystem(table)
			if !ok {
				return fmt.Errorf("unknown table %q", table)
			}
			entries := m.Table(e).Entries()
			out := make([]tableEntry, 0, len(entries))
			for _, en := range entries {
				out = append(out, tableEntry{
					Key:      en.Key,
					Name:     en.Tech.Name,
					Category: string(en.Tech.Category),
					Icon:     en.Tech.Icon,
				})
			}
			return render(cmd.OutOrStdout(), *output, out)
		},
	}
	cmd.Flags().StringVar(&table, FlagTable, "", "list the entries of one table (e.g. goMod)")
	return cmd
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/discovery"
	"github.com/spf13/cobra"
)

var (
	agentsListLimit     int
	agentsListMCPServer string
	agentsListSort      bool
	agentsJSON          bool
	agentsFile          string
	agentsCheckRefs     bool
	agentsValidateAsUpd bool
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	Aliases: []string{"agent"},
	Short:   "Manage agent configurations",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent summaries",
	Long: `List agents as summaries: name, provider, model and the number of assigned
functions, agents and MCP servers. The --mcp-server filter is applied before
--limit.`,
	Args: cobra.NoArgs,
	RunE: runAgentsList,
}

var agentsDetailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Show every agent in full, sorted by name",
	Args:  cobra.NoArgs,
	RunE:  runAgentsDetails,
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show one agent in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsShow,
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <key> -f <file>",
	Short: "Create an agent from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsCreate,
}

var agentsUpdateCmd = &cobra.Command{
	Use:   "update <key> -f <file>",
	Short: "Apply a partial update from a YAML or JSON file",
	Long: `Apply a partial update. Fields present in the file replace the stored values;
absent fields are left untouched. Array fields and custom_settings are
replaced wholesale, never merged key by key.`,
	Args: cobra.ExactArgs(1),
	RunE: runAgentsUpdate,
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsDelete,
}

var agentsValidateCmd = &cobra.Command{
	Use:   "validate -f <file>",
	Short: "Validate an agent file without storing it",
	Args:  cobra.NoArgs,
	RunE:  runAgentsValidate,
}

func init() {
	agentsListCmd.Flags().IntVar(&agentsListLimit, "limit", 0, "Maximum number of agents to list (0 for all)")
	agentsListCmd.Flags().StringVar(&agentsListMCPServer, "mcp-server", "", "Only list agents assigned this MCP server")
	agentsListCmd.Flags().BoolVar(&agentsListSort, "sort", false, "Sort by agent name instead of directory order")

	for _, c := range []*cobra.Command{agentsListCmd, agentsDetailsCmd, agentsShowCmd} {
		c.Flags().BoolVar(&agentsJSON, "json", false, "Output in JSON format")
	}
	for _, c := range []*cobra.Command{agentsCreateCmd, agentsUpdateCmd, agentsValidateCmd} {
		c.Flags().StringVarP(&agentsFile, "file", "f", "", "Agent file (.yaml, .yml or .json)")
		_ = c.MarkFlagRequired("file")
	}
	for _, c := range []*cobra.Command{agentsCreateCmd, agentsUpdateCmd} {
		c.Flags().BoolVar(&agentsCheckRefs, "check-refs", false, "Reject assigned agents and functions that do not exist")
	}
	agentsValidateCmd.Flags().BoolVar(&agentsValidateAsUpd, "update", false, "Validate as a partial update")

	agentsCmd.AddCommand(agentsListCmd, agentsDetailsCmd, agentsShowCmd,
		agentsCreateCmd, agentsUpdateCmd, agentsDeleteCmd, agentsValidateCmd)
	rootCmd.AddCommand(agentsCmd)
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	opts := discovery.SummaryOptions{
		Limit:      agentsListLimit,
		MCPServer:  agentsListMCPServer,
		SortByName: agentsListSort,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	entries, err := readAll(cmd.Context())
	if err != nil {
		return err
	}
	summaries, err := discovery.ListSummaries(entries, opts)
	if err != nil {
		return err
	}

	if agentsJSON {
		return printJSON(cmd.OutOrStdout(), summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No agents found.")
		return nil
	}
	return printSummaryTable(cmd.OutOrStdout(), summaries)
}

func runAgentsDetails(cmd *cobra.Command, args []string) error {
	entries, err := readAll(cmd.Context())
	if err != nil {
		return err
	}
	details := discovery.ListDetails(entries)
	if agentsJSON {
		return printJSON(cmd.OutOrStdout(), details)
	}
	if len(details) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No agents found.")
		return nil
	}
	return printYAML(cmd.OutOrStdout(), details)
}

func runAgentsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	cfg, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	detail := discovery.ProjectDetail(args[0], *cfg)
	if agentsJSON {
		return printJSON(cmd.OutOrStdout(), detail)
	}
	return printYAML(cmd.OutOrStdout(), detail)
}

func runAgentsCreate(cmd *cobra.Command, args []string) error {
	ctx, key := cmd.Context(), args[0]

	raw, err := agentconfig.DecodeFile(agentsFile)
	if err != nil {
		return err
	}
	cfg, err := agentconfig.Validate(raw)
	if err != nil {
		return reportIssues(cmd.ErrOrStderr(), err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if agentsCheckRefs {
		if err := checkRefs(ctx, store, *cfg); err != nil {
			return reportIssues(cmd.ErrOrStderr(), err)
		}
	}
	if _, err := store.Create(ctx, key, *cfg); err != nil {
		return reportIssues(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created agent %q (%s)\n", key, cfg.AgentName)
	return nil
}

func runAgentsUpdate(cmd *cobra.Command, args []string) error {
	ctx, key := cmd.Context(), args[0]

	raw, err := agentconfig.DecodeFile(agentsFile)
	if err != nil {
		return err
	}
	update, err := agentconfig.ValidateUpdate(raw)
	if err != nil {
		return reportIssues(cmd.ErrOrStderr(), err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if agentsCheckRefs {
		existing, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		if err := checkRefs(ctx, store, agentconfig.Merge(*existing, *update)); err != nil {
			return reportIssues(cmd.ErrOrStderr(), err)
		}
	}
	if _, err := store.Update(ctx, key, *update); err != nil {
		return reportIssues(cmd.ErrOrStderr(), err)
	}

	if update.IsEmpty() {
		fmt.Fprintf(cmd.OutOrStdout(), "Agent %q unchanged\n", key)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Updated agent %q (%s)\n", key, strings.Join(update.SetFields(), ", "))
	}
	return nil
}

func runAgentsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted agent %q\n", args[0])
	return nil
}

func runAgentsValidate(cmd *cobra.Command, args []string) error {
	raw, err := agentconfig.DecodeFile(agentsFile)
	if err != nil {
		return err
	}
	if agentsValidateAsUpd {
		_, err = agentconfig.ValidateUpdate(raw)
	} else {
		_, err = agentconfig.Validate(raw)
	}
	if err != nil {
		return reportIssues(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", agentsFile)
	return nil
}

func readAll(ctx context.Context) ([]directory.Entry, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.GetAll(ctx)
}

func checkRefs(ctx context.Context, store directory.Store, cfg agentconfig.AgentConfig) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	agents, functions, err := discovery.KnownReferences(ctx, store, reg)
	if err != nil {
		return err
	}
	return discovery.CheckAssignments(cfg, agents, functions)
}

// reportIssues prints one line per validation issue to w and returns a
// summary error. Other errors pass through unchanged.
func reportIssues(w io.Writer, err error) error {
	var ve *agentconfig.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for _, issue := range ve.Issues {
		fmt.Fprintf(w, "  %s: %s (%s)\n", issue.Field, issue.Message, issue.Rule)
	}
	if len(ve.Issues) == 1 {
		return fmt.Errorf("validation failed: 1 issue")
	}
	return fmt.Errorf("validation failed: %d issues", len(ve.Issues))
}

func printSummaryTable(w io.Writer, summaries []discovery.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tPROVIDER\tMODEL\tFUNCTIONS\tAGENTS\tMCP SERVERS")
	for _, s := range summaries {
		provider := s.ServiceProvider.String()
		if s.ServiceProvider.IsLocal() {
			provider += " (local)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			s.Key, s.AgentName, provider, s.ModelName, s.FunctionCount, s.AgentCount, s.MCPServerCount)
	}
	return tw.Flush()
}

package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/agentdir/internal/registry"
	"github.com/spf13/cobra"
)

var (
	functionsJSON    bool
	functionsService string
)

var functionsCmd = &cobra.Command{
	Use:     "functions",
	Aliases: []string{"fn"},
	Short:   "Inspect the function catalog built from services.yaml",
}

var functionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List callable functions as <service>_<tool>",
	Args:  cobra.NoArgs,
	RunE:  runFunctionsList,
}

var functionsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one function by its composite name",
	Args:  cobra.ExactArgs(1),
	RunE:  runFunctionsShow,
}

var functionsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint the service registry",
	Long: `Check services.yaml for composite-name collisions, relative base URLs,
unknown HTTP methods, endpoints without a leading slash and input schemas
that do not compile.`,
	Args: cobra.NoArgs,
	RunE: runFunctionsCheck,
}

func init() {
	functionsListCmd.Flags().BoolVar(&functionsJSON, "json", false, "Output in JSON format")
	functionsListCmd.Flags().StringVar(&functionsService, "service", "", "Only list functions of this service")
	functionsCmd.AddCommand(functionsListCmd, functionsShowCmd, functionsCheckCmd)
	rootCmd.AddCommand(functionsCmd)
}

func runFunctionsList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	fns, err := registry.ListFunctions(reg)
	if err != nil {
		return err
	}
	if functionsService != "" {
		if _, ok := reg.Service(functionsService); !ok {
			return fmt.Errorf("unknown service %q", functionsService)
		}
		filtered := fns[:0:0]
		for _, fn := range fns {
			if fn.Service == functionsService {
				filtered = append(filtered, fn)
			}
		}
		fns = filtered
	}

	if functionsJSON {
		return printJSON(cmd.OutOrStdout(), fns)
	}
	if len(fns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No functions registered.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMETHOD\tENDPOINT\tDESCRIPTION")
	for _, fn := range fns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fn.Name, fn.Method, fn.Endpoint, fn.Description)
	}
	return tw.Flush()
}

func runFunctionsShow(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	fns, err := registry.ListFunctions(reg)
	if err != nil {
		return err
	}
	fn, ok := registry.FindFunction(fns, args[0])
	if !ok {
		return fmt.Errorf("function %q not found", args[0])
	}
	return printJSON(cmd.OutOrStdout(), fn)
}

func runFunctionsCheck(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	problems := 0

	fns, err := registry.ListFunctions(reg)
	var ce *registry.ConfigurationError
	switch {
	case errors.As(err, &ce):
		fmt.Fprintf(out, "  [FAIL] %s\n", ce.Error())
		problems++
	case err != nil:
		return err
	}

	for _, issue := range registry.Check(reg) {
		name := issue.Service
		if issue.Function != "" {
			name = issue.Function
		}
		fmt.Fprintf(out, "  [FAIL] %s: %s\n", name, issue.Message)
		problems++
	}

	if problems > 0 {
		return fmt.Errorf("%d registry problem(s) found in %s", problems, settings.Registry.Path)
	}
	fmt.Fprintf(out, "  [OK] %d services, %d functions\n", reg.Len(), len(fns))
	return nil
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"drive-distribution/infrastructure/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration entries",
	Long: `Manage the recipients and default CCs of run summaries.

Examples:
  drive-distribution config recipients list
  drive-distribution config add recipient --key park --name "Dana Park" --email park@example.com
  drive-distribution config remove recipient park`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configUpdateCmd)
	configCmd.AddCommand(configRecipientsCmd)
	configRecipientsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List run summary recipients",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigList(cmd, []string{"recipients"})
			},
		},
		&cobra.Command{
			Use:   "add <key> <name> <email>",
			Short: "Add a run summary recipient",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := requireConfig()
				if err != nil {
					return err
				}
				return RunConfigAddWithDependencies(cfg, cfgFile, "recipient", args[0], args[1], args[2], DefaultOutput)
			},
		},
		&cobra.Command{
			Use:   "remove <key>",
			Short: "Remove a run summary recipient",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigRemove(cmd, []string{"recipient", args[0]})
			},
		},
	)
}

// configRecipientsCmd groups the recipient shortcuts
var configRecipientsCmd = &cobra.Command{
	Use:   "recipients",
	Short: "Shortcuts for run summary recipients",
}

// --- ADD command ---

var (
	addKey   string
	addName  string
	addEmail string
)

var configAddCmd = &cobra.Command{
	Use:   "add [recipient|cc]",
	Short: "Add a new config entry",
	Long: `Add a run summary recipient or default CC to the configuration.

Examples:
  drive-distribution config add recipient --key park --name "Dana Park" --email park@example.com
  drive-distribution config add cc --name "Science Office" --email office@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigAdd,
}

func init() {
	configAddCmd.Flags().StringVar(&addKey, "key", "", "Unique key for a recipient")
	configAddCmd.Flags().StringVar(&addName, "name", "", "Display name (required)")
	configAddCmd.Flags().StringVar(&addEmail, "email", "", "Email address (required)")
	_ = configAddCmd.MarkFlagRequired("name")
	_ = configAddCmd.MarkFlagRequired("email")
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	return RunConfigAddWithDependencies(cfg, cfgFile, args[0], addKey, addName, addEmail, DefaultOutput)
}

// RunConfigAddWithDependencies runs the add command with injected dependencies
func RunConfigAddWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "recipient":
		if key == "" {
			return fmt.Errorf("--key is required for recipients")
		}
		if err := mgr.AddRecipient(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added recipient %q: %s <%s>\n", key, name, email)

	case "cc":
		if err := mgr.AddCC(name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added CC %s <%s>\n", name, email)

	default:
		return fmt.Errorf("unknown entity type %q. Use recipient or cc", entityType)
	}

	return nil
}

// --- LIST command ---

var configListCmd = &cobra.Command{
	Use:   "list [recipients|ccs]",
	Short: "List config entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigList,
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	return RunConfigListWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
}

// RunConfigListWithDependencies runs the list command with injected dependencies
func RunConfigListWithDependencies(cfg *config.Config, configPath, entityType string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	var entries []config.Recipient
	switch entityType {
	case "recipients":
		entries = mgr.ListRecipients()
	case "ccs":
		entries = mgr.ListCCs()
	default:
		return fmt.Errorf("unknown entity type %q. Use recipients or ccs", entityType)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No %s configured.\n", entityType)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tEMAIL")
	for _, r := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Key, r.Name, r.Address)
	}
	return w.Flush()
}

// --- REMOVE command ---

var configRemoveCmd = &cobra.Command{
	Use:   "remove [recipient|cc] <key-or-email>",
	Short: "Remove a config entry",
	Long: `Remove a recipient by key or a CC by email address.

Examples:
  drive-distribution config remove recipient park
  drive-distribution config remove cc office@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigRemove,
}

func runConfigRemove(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	return RunConfigRemoveWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
}

// RunConfigRemoveWithDependencies runs the remove command with injected dependencies
func RunConfigRemoveWithDependencies(cfg *config.Config, configPath, entityType, key string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "recipient":
		if err := mgr.RemoveRecipient(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed recipient %q\n", key)

	case "cc":
		if err := mgr.RemoveCC(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed CC %q\n", key)

	default:
		return fmt.Errorf("unknown entity type %q. Use recipient or cc", entityType)
	}

	return nil
}

// --- UPDATE command ---

var (
	updateName  string
	updateEmail string
)

var configUpdateCmd = &cobra.Command{
	Use:   "update recipient <key>",
	Short: "Update a recipient",
	Long: `Update an existing recipient's name or email.

Example:
  drive-distribution config update recipient park --email dana.park@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigUpdate,
}

func init() {
	configUpdateCmd.Flags().StringVar(&updateName, "name", "", "New display name")
	configUpdateCmd.Flags().StringVar(&updateEmail, "email", "", "New email address")
}

func runConfigUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if updateName == "" && updateEmail == "" {
		return fmt.Errorf("at least one of --name or --email is required")
	}
	return RunConfigUpdateWithDependencies(cfg, cfgFile, args[0], args[1], updateName, updateEmail, DefaultOutput)
}

// RunConfigUpdateWithDependencies runs the update command with injected dependencies
func RunConfigUpdateWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	if entityType != "recipient" {
		return fmt.Errorf("unknown entity type %q. Only recipients can be updated", entityType)
	}
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.UpdateRecipient(key, name, email); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated recipient %q\n", key)
	return nil
}

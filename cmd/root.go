package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"drive-distribution/infrastructure/config"
)

var (
	cfgFile string
	cfg     *config.Config
	cfgErr  error
)

// OutputWriter allows capturing output in tests
type OutputWriter = io.Writer

// DefaultOutput is where commands print progress and tables
var DefaultOutput OutputWriter = os.Stdout

var rootCmd = &cobra.Command{
	Use:   "drive-distribution",
	Short: "Distribute Google Drive documents to course members",
	Long: `drive-distribution copies and shares a master Google Drive document with the
members of a course, one copy per student, per group member, per group or
grouping, or a single shared master.

  - Create an activity with its master document and distribution
  - Distribute it to the course roster or to selected groups
  - Inspect the created files and remove an activity
  - Serve the distribution API over HTTP

Example:
  drive-distribution activity create --course 12 --name "Lab report" --distribution std_copy --permission edit
  drive-distribution distribute --activity 7 --notify park`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// Config file is optional for some commands (like help and setup).
	// Commands that need config call requireConfig.
	cfg, cfgErr = config.Load(cfgFile)
	if cfgErr != nil {
		cfg = nil
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

func requireConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	if errors.Is(cfgErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s not found. Run 'drive-distribution setup' first", cfgFile)
	}
	return nil, cfgErr
}

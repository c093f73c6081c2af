// Command zinc is the compiler and VM driver: it builds a .zn source
// file into bytecode, runs it against concrete inputs, type-checks it
// without running, or dumps its lowered instructions for inspection.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"zinc/pkg/config"
)

// fsys is the filesystem every subcommand reads source and witness
// files through; swapped for an in-memory afero.Fs in tests.
var fsys afero.Fs = afero.NewOsFs()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{Use: "zinc"}
	rootCmd.PersistentFlags().String("env", "", "configuration environment to merge over the defaults")
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(dumpBytecodeCmd())
	return rootCmd
}

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	env, _ := cmd.Flags().GetString("env")
	return config.Load(env)
}

func readSource(path string) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

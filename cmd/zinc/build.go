package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"zinc/internal/bytecode"
	"zinc/pkg/zinc"
)

func buildCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build [source.zn]",
		Short: "compile a Zinc source file to a bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			program, err := zinc.Compile(args[0], src)
			if err != nil {
				return fmt.Errorf("%s", zinc.RenderError(err))
			}
			data, err := bytecode.Encode(program.Bytecode())
			if err != nil {
				return fmt.Errorf("encoding bytecode: %w", err)
			}
			if out == "" {
				out = args[0] + ".znb"
			}
			if err := afero.WriteFile(fsys, out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			cmd.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "bytecode output path (default: <source>.znb)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"zinc/pkg/zinc"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [source.zn]",
		Short: "parse and type-check a Zinc source file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			if _, err := zinc.Compile(args[0], src); err != nil {
				return fmt.Errorf("%s", zinc.RenderError(err))
			}
			cmd.Println("ok")
			return nil
		},
	}
}

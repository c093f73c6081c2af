package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"zinc/internal/vm/storage"
	"zinc/pkg/zinc"
)

func hasherByName(name string) storage.Hasher {
	if strings.EqualFold(name, "blake2b") {
		return storage.Blake2bHasher{}
	}
	return storage.Keccak256Hasher{}
}

func runCmd() *cobra.Command {
	var inputs string
	var witness bool
	cmd := &cobra.Command{
		Use:   "run [source.zn]",
		Short: "compile and execute a Zinc program against concrete inputs",
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

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			values, err := parseInputs(inputs)
			if err != nil {
				return err
			}

			result, err := zinc.Run(program, zinc.RunOptions{
				Inputs:      values,
				WitnessMode: witness,
				Storage: zinc.StorageConfig{
					Depth:  cfg.Storage.TreeDepth,
					Hasher: hasherByName(cfg.VM.Hasher),
				},
			})
			if err != nil {
				return fmt.Errorf("%s", zinc.RenderError(err))
			}
			for i, v := range result.OutputInts {
				cmd.Printf("out[%d] = %s\n", i, v.String())
			}
			cmd.Printf("storage_root = %s\n", result.StorageRoot.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&inputs, "inputs", "", "comma-separated decimal witness values for main's parameters")
	cmd.Flags().BoolVar(&witness, "witness", true, "synthesize concrete witness values while executing")
	return cmd
}

func parseInputs(raw string) ([]*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]*big.Int, len(parts))
	for i, p := range parts {
		v, ok := new(big.Int).SetString(strings.TrimSpace(p), 10)
		if !ok {
			return nil, fmt.Errorf("invalid input value %q", p)
		}
		out[i] = v
	}
	return out, nil
}

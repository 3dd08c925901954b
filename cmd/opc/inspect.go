package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-opc/pkg/opc"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show parts, content types, relationships and core properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			pkg, err := opc.Open(args[0], opc.AccessRead)
			if err != nil {
				return err
			}
			defer pkg.Revert()

			report, err := buildReport(pkg)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, json, yaml or toml")
	return cmd
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <file>",
		Short: "List the parts of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, _ := cmd.Flags().GetString("glob")
			pkg, err := opc.Open(args[0], opc.AccessRead)
			if err != nil {
				return err
			}
			defer pkg.Revert()

			var parts []*opc.Part
			if pattern != "" {
				parts, err = pkg.PartsMatching(pattern)
			} else {
				parts, err = pkg.Parts()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, part := range parts {
				fmt.Fprintf(out, "%8d  %s  %s\n", part.Size(), part.Name(), styleMuted.Render(part.ContentType()))
			}
			return nil
		},
	}
	cmd.Flags().StringP("glob", "g", "", `only list parts matching a pattern such as "/word/**/*.xml"`)
	return cmd
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file> <part>",
		Short: "Write the content of a part to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := opc.NewPartName(args[1])
			if err != nil {
				return err
			}
			pkg, err := opc.Open(args[0], opc.AccessRead)
			if err != nil {
				return err
			}
			defer pkg.Revert()

			part := pkg.GetPart(name)
			if part == nil {
				return fmt.Errorf("no part %s in %s", name, args[0])
			}
			data, err := part.Bytes()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

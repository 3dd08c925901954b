package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-opc/pkg/opc"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <file> <part> <source-file>",
		Short: "Add a part, creating the package when it does not exist",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, _ := cmd.Flags().GetString("content-type")
			from, _ := cmd.Flags().GetString("from")
			relType, _ := cmd.Flags().GetString("rel-type")

			name, err := opc.NewPartName(args[1])
			if err != nil {
				return err
			}
			if contentType == "" {
				ct, ok := opc.ContentTypeFromExtension(args[1])
				if !ok {
					return fmt.Errorf("--content-type is required for %s", name)
				}
				contentType = ct
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}

			pkg, err := opc.OpenOrCreate(args[0])
			if err != nil {
				return err
			}
			if err := addPart(pkg, name, contentType, data, from, relType); err != nil {
				pkg.Revert()
				return err
			}
			if err := pkg.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added %s (%s)\n", styleSuccess.Render(iconOK), name, contentType)
			return nil
		},
	}
	cmd.Flags().StringP("content-type", "t", "", "content type of the part (inferred for images)")
	cmd.Flags().String("from", "", "source part of the relationship; the package itself when empty")
	cmd.Flags().String("rel-type", "", "add a relationship of this type to the new part")
	return cmd
}

func addPart(pkg *opc.Package, name opc.PartName, contentType string, data []byte, from, relType string) error {
	if _, err := pkg.CreatePartWithContent(name, contentType, data); err != nil {
		return err
	}
	if relType == "" {
		return nil
	}
	if from == "" {
		_, err := pkg.AddRelationship(name, opc.TargetModeInternal, relType)
		return err
	}
	sourceName, err := opc.NewPartName(from)
	if err != nil {
		return err
	}
	source := pkg.GetPart(sourceName)
	if source == nil {
		return fmt.Errorf("no part %s to relate from", sourceName)
	}
	_, err = source.AddRelationship(name, opc.TargetModeInternal, relType)
	return err
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <file> <part>",
		Short: "Remove a part and its relationship part",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recursive, _ := cmd.Flags().GetBool("recursive")
			name, err := opc.NewPartName(args[1])
			if err != nil {
				return err
			}
			pkg, err := opc.Open(args[0], opc.AccessReadWrite)
			if err != nil {
				return err
			}
			if recursive {
				err = pkg.DeletePartRecursive(name)
			} else {
				err = pkg.DeletePart(name)
			}
			if err != nil {
				pkg.Revert()
				return err
			}
			if err := pkg.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", styleSuccess.Render(iconOK), name)
			return nil
		},
	}
	cmd.Flags().BoolP("recursive", "r", false, "also remove every part reachable through internal relationships")
	return cmd
}

func newThumbnailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail <file> <image>",
		Short: "Set the package thumbnail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := opc.Open(args[0], opc.AccessReadWrite)
			if err != nil {
				return err
			}
			part, err := pkg.AddThumbnail(args[1])
			if err != nil {
				pkg.Revert()
				return err
			}
			if err := pkg.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s thumbnail stored as %s\n", styleSuccess.Render(iconOK), part.Name())
			return nil
		},
	}
}

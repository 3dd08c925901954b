package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-opc/pkg/opc"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a package for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateFile(cmd.OutOrStdout(), args[0])
		},
	}
}

// validateFile prints every problem found in path and returns an error
// when there is at least one.
func validateFile(w io.Writer, path string) error {
	pkg, err := opc.Open(path, opc.AccessRead)
	if err != nil {
		fmt.Fprintf(w, "%s %s: %v\n", styleError.Render(iconFailed), path, err)
		return err
	}
	defer pkg.Revert()

	err = pkg.Validate()
	if err == nil {
		fmt.Fprintf(w, "%s %s is valid\n", styleSuccess.Render(iconOK), path)
		return nil
	}

	problems := []error{err}
	var multi *opc.MultiError
	if errors.As(err, &multi) {
		problems = multi.Errors()
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%s %v\n", styleError.Render(iconFailed), p)
	}
	return fmt.Errorf("%s has %d problem(s)", path, len(problems))
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/stmtimport/internal/core"
)

type importOptions struct {
	strategyID     int64
	createAccounts bool
	commit         bool
	showErrors     int
}

func newImportCmd() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Map a statement file and optionally write its transfers",
		Long: "Map a statement file with a stored strategy and print the result.\n" +
			"Nothing is written unless --create-accounts or --commit is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showErrors < 0 {
				return withCode(exitUsage, errors.New("--show-errors must not be negative"))
			}
			f, err := os.Open(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer f.Close()

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			return runImport(cmd, e.service, f, filepath.Base(args[0]), opts)
		},
	}
	cmd.Flags().Int64Var(&opts.strategyID, "strategy", 0, "Strategy id (default: match by headings)")
	cmd.Flags().BoolVar(&opts.createAccounts, "create-accounts", false, "Create accounts the file refers to but the database lacks")
	cmd.Flags().BoolVar(&opts.commit, "commit", false, "Write the valid transfers")
	cmd.Flags().IntVar(&opts.showErrors, "show-errors", 10, "Number of row errors to print")
	return cmd
}

func runImport(cmd *cobra.Command, svc *core.ImportService, file io.Reader, name string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	req := core.PrepareRequest{FileName: name, File: file}
	if opts.strategyID > 0 {
		req.StrategyID = &opts.strategyID
	}
	sum, err := svc.Prepare(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Discard(sum.ID) }()
	printSummary(out, sum, opts.showErrors)

	if opts.createAccounts && len(sum.NewAccounts) > 0 {
		if sum, err = svc.CreateAccounts(ctx, sum.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "created %d accounts\n", len(sum.CreatedAccounts))
	}

	if !opts.commit {
		if !opts.createAccounts {
			fmt.Fprintln(out, "dry run: nothing was written")
		}
		return nil
	}
	if !sum.CanCommit {
		return fmt.Errorf("%w: %d accounts must be created first (use --create-accounts)", core.ErrInvalidPhase, len(sum.NewAccounts))
	}
	n, err := svc.Commit(ctx, sum.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d transfers (import %s)\n", n, sum.ID)
	return nil
}

func printSummary(w io.Writer, s core.ImportSummary, showErrors int) {
	fmt.Fprintf(w, "file:     %s\n", s.FileName)
	fmt.Fprintf(w, "strategy: %s (id %d)\n", s.StrategyName, s.StrategyID)
	fmt.Fprintf(w, "rows:     %d total, %d valid, %d with errors\n", s.TotalRows, s.ValidRows, s.ErrorCount)
	if len(s.NewAccounts) > 0 {
		fmt.Fprintln(w, "new accounts:")
		for _, a := range s.NewAccounts {
			fmt.Fprintf(w, "  %s (%s)\n", a.Name, a.Field)
		}
	}
	shown := min(showErrors, len(s.Errors))
	if shown > 0 {
		fmt.Fprintln(w, "errors:")
		for _, e := range s.Errors[:shown] {
			fmt.Fprintf(w, "  row %d: %s\n", e.RowIndex, e.Message)
		}
	}
	if rest := s.ErrorCount - shown; rest > 0 && showErrors > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", rest)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/stmtimport/internal/export"
)

func newStrategyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Export and import CSV import strategies",
	}
	cmd.AddCommand(newStrategyListCmd(), newStrategyExportCmd(), newStrategyImportCmd())
	return cmd
}

func newStrategyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.service.ListStrategies(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range list {
				status := "complete"
				if !st.IsComplete() {
					status = "missing " + fmt.Sprint(st.MissingFields())
				}
				fmt.Fprintf(out, "%d\t%s\t[%s]\t%s\n", st.ID, st.Name, strings.Join(st.IdentificationColumns, ", "), status)
			}
			return nil
		},
	}
}

func newStrategyExportCmd() *cobra.Command {
	var (
		id     int64
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a strategy as a portable export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.service.ExportStrategy(cmd.Context(), id)
			if err != nil {
				return err
			}
			data, err := export.Encode(doc)
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Strategy id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

type strategyImportOptions struct {
	createMissing bool
	maps          []string
}

func newStrategyImportCmd() *cobra.Command {
	var opts strategyImportOptions
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a strategy from an export document",
		Long: "Create a strategy from an export document. Names the database does not know\n" +
			"must be settled with --map type:name=id or created with --create-missing.\n" +
			"Without either, the unresolved names are listed and nothing is written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			mapped, err := parseMaps(opts.maps)
			if err != nil {
				return withCode(exitUsage, err)
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			refs, err := e.service.ParseExport(cmd.Context(), doc)
			if err != nil {
				return err
			}
			resolutions, missing := resolve(refs, mapped, opts.createMissing)
			if len(missing) > 0 {
				out := cmd.ErrOrStderr()
				fmt.Fprintln(out, "unresolved references:")
				for _, r := range missing {
					fmt.Fprintf(out, "  %s %q (%s)", strings.ToLower(string(r.Type)), r.Name, r.FieldType)
					if len(r.Suggestions) > 0 {
						fmt.Fprintf(out, ", did you mean %s?", strings.Join(quoteAll(r.Suggestions), " or "))
					}
					fmt.Fprintln(out)
				}
				return fmt.Errorf("%d unresolved references; use --map or --create-missing", len(missing))
			}

			st, err := e.service.ImportStrategy(cmd.Context(), doc, resolutions)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created strategy %d %q\n", st.ID, st.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.createMissing, "create-missing", false, "Create every unresolved account, category and currency")
	cmd.Flags().StringArrayVar(&opts.maps, "map", nil, "Map a name to an existing entity, as type:name=id (repeatable)")
	return cmd
}

func readDocument(path string) (*export.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return export.Decode(data)
}

type refKey struct {
	t    export.RefType
	name string
}

// parseMaps reads --map values of the form type:name=id. The name may
// itself contain '=' and ':'; the id is taken after the last '='.
func parseMaps(values []string) (map[refKey]int64, error) {
	out := make(map[refKey]int64, len(values))
	for _, v := range values {
		typ, rest, ok := strings.Cut(v, ":")
		eq := strings.LastIndex(rest, "=")
		if !ok || eq < 1 {
			return nil, fmt.Errorf("invalid --map %q: want type:name=id", v)
		}
		t, err := parseRefType(typ)
		if err != nil {
			return nil, fmt.Errorf("invalid --map %q: %w", v, err)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rest[eq+1:]), 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid --map %q: id must be a positive integer", v)
		}
		out[refKey{t, rest[:eq]}] = id
	}
	return out, nil
}

func parseRefType(s string) (export.RefType, error) {
	switch t := export.RefType(strings.ToUpper(strings.TrimSpace(s))); t {
	case export.RefAccount, export.RefCategory, export.RefCurrency:
		return t, nil
	default:
		return "", fmt.Errorf("unknown type %q (account, category or currency)", s)
	}
}

// resolve settles refs from the --map values, creating the rest when
// createMissing is set. References left over are returned as missing.
func resolve(refs []export.UnresolvedReference, mapped map[refKey]int64, createMissing bool) ([]export.Resolution, []export.UnresolvedReference) {
	var (
		resolutions []export.Resolution
		missing     []export.UnresolvedReference
	)
	for _, r := range refs {
		if id, ok := mapped[refKey{r.Type, r.Name}]; ok {
			resolutions = append(resolutions, export.MapToExisting(r.Type, r.Name, id))
			continue
		}
		if createMissing {
			resolutions = append(resolutions, export.CreateNew(r.Type, r.Name, ""))
			continue
		}
		missing = append(missing, r)
	}
	return resolutions, missing
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strconv.Quote(n)
	}
	return out
}

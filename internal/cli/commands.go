package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pitabwire/canonico/internal/canonico"
	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/model"
)

func (a *app) listCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := parseListStatus(status)
			if err != nil {
				return err
			}
			page, err := metadata.NewPageProvider(a.svc).CanonicoPage(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if a.settings.Output == OutputJSON {
				return writeJSON(a.opts.Out, page.List)
			}
			_, err = fmt.Fprintln(a.opts.Out, renderTable(page.List, page.Columns))
			return err
		},
	}
	cmd.Flags().StringVar(&status, "status", "active", "status filter: active, inactive or all")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(a.opts.Out, rec)
		},
	}
}

func (a *app) createCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create -f <file>",
		Short: "Create a record from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := readRecord(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			out, err := a.svc.Create(cmd.Context(), rec)
			if err != nil {
				return describe(err)
			}
			a.notifier.Success(fmt.Sprintf("created %s (version %d)", out.Name, out.Version), "Success")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) updateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update [name] -f <file>",
		Short: "Replace a record from a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				switch rec.Name {
				case "":
					rec.Name = args[0]
				case args[0]:
				default:
					return fmt.Errorf("record name %q does not match %q", rec.Name, args[0])
				}
			}
			if rec.Name == "" {
				return fmt.Errorf("record name is required")
			}
			out, err := a.svc.Update(cmd.Context(), rec)
			if err != nil {
				return describe(err)
			}
			a.notifier.Success(fmt.Sprintf("updated %s (version %d)", out.Name, out.Version), "Success")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type statusFunc func(*canonico.Service, context.Context, model.Canonico) (model.Canonico, error)

func (a *app) statusCommand(use, short string, apply statusFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := apply(a.svc, cmd.Context(), model.Canonico{Name: args[0]})
			if err != nil {
				return err
			}
			label := out.Status.Label()
			if label == "" {
				label = "updated"
			}
			a.notifier.Success(fmt.Sprintf("%s is now %s", args[0], label), "Success")
			return nil
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var stdout bool
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Copy a record's JSON to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if stdout {
				return writeJSON(a.opts.Out, rec)
			}
			exporter := &metadata.Exporter{
				Clipboard: a.opts.Clipboard,
				Notifier:  a.notifier,
				Logger:    a.logger,
			}
			// The notifier has already reported the failure.
			if err := exporter.Export(cmd.Context(), rec); err != nil {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print instead of copying")
	return cmd
}

func parseListStatus(s string) (model.Status, error) {
	if strings.EqualFold(s, "all") {
		return model.StatusUnset, nil
	}
	status, err := model.ParseStatus(s)
	if err != nil {
		return model.StatusUnset, fmt.Errorf("invalid --status %q (want active, inactive or all)", s)
	}
	return status, nil
}

func readRecord(stdin io.Reader, file string) (model.Canonico, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return model.Canonico{}, fmt.Errorf("reading %s: %w", file, err)
	}

	var rec model.Canonico
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Canonico{}, fmt.Errorf("parsing %s: %w", file, err)
	}
	return rec, nil
}

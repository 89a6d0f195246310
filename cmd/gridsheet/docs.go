package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/codec"
)

var (
	outputPath string
	pretty     bool
	password   string
	sheetName  string
	format     string
	worksheet  int
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create an empty spreadsheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			sheet, err := svc.New(cmd.Context(), name)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sheet.Metadata())
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a csv, tsv, xlsx, xlsb, xls, ods or json file as a new spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			svc, closeStore, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			res, err := svc.ImportFile(cmd.Context(), data, args[0], codec.ImportOptions{
				Password:  password,
				SheetName: sheetName,
			})
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return printJSON(cmd.OutOrStdout(), res.Spreadsheet.Metadata())
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password of an encrypted xlsx")
	cmd.Flags().StringVar(&sheetName, "sheet-name", "", "Worksheet name for csv/tsv input")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Export a spreadsheet as csv, tsv, xlsx or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, closeStore, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			var buf bytes.Buffer
			if err := svc.Export(cmd.Context(), args[0], f, worksheet, &buf); err != nil {
				return err
			}
			if outputPath == "" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "xlsx", "Export format: csv, tsv, xlsx, json")
	cmd.Flags().IntVar(&worksheet, "worksheet", 0, "Worksheet index for csv/tsv")
	return cmd
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [id] [formula]",
		Short: "Evaluate a formula against a stored worksheet without saving",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			res, err := svc.EvaluateFormula(cmd.Context(), args[0], worksheet, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Value)
			return nil
		},
	}
	cmd.Flags().IntVar(&worksheet, "worksheet", 0, "Worksheet index")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

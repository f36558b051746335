package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
)

func newStampCmd() *cobra.Command {
	var (
		text string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "stamp <file.pdf>",
		Short: "Labels a local PDF in-process",
		Long: `Stamps --text onto every page of a local PDF and writes the result to
--out, or to labeled_<name> next to the input when --out is empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			if text == "" {
				text = e.cfg.Labeling.DefaultText
			}

			in := args[0]
			// #nosec G304 -- the operator names the file to stamp.
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}

			stamper := labeler.NewStamper(e.logger.Named("stamper"))
			labeled, err := stamper.Label(cmd.Context(), labeler.Document{Name: filepath.Base(in), Data: data}, text)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(filepath.Dir(in), artifacts.LabeledName(filepath.Base(in)))
			}
			if err := os.WriteFile(out, labeled, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			e.logger.Info("Stamped document.", zap.String("in", in), zap.String("out", out), zap.String("labelText", text))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "label text (default labeling.default_text)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path")
	return cmd
}

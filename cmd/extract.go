package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/pipeline"
)

var (
	extractStrategy    string
	extractNoVerify    bool
	extractEvidence    bool
	extractOutDir      string
	extractContentType string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract invoice records from document files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline(extractStrategy, extractNoVerify)
		if err != nil {
			return err
		}

		failed := 0
		for _, path := range args {
			if err := extractOne(cmd, p, path); err != nil {
				zap.L().Error("extraction failed",
					zap.String("file", path),
					zap.Error(err),
				)
				failed++
			}
		}

		if failed > 0 {
			return eris.Errorf("cmd: %d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func extractOne(cmd *cobra.Command, p *pipeline.Pipeline, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "cmd: read file")
	}

	contentType := extractContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	doc := model.Document{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}

	res, err := p.Run(cmd.Context(), doc)
	if err != nil {
		return err
	}

	switch res.Status {
	case pipeline.StatusNotInvoice:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: not an invoice\n", path)
		return nil
	case pipeline.StatusNeedsSmallerInput:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: input too large, retry with fewer pages\n", path)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Record.Fenced())

	if extractOutDir != "" {
		if err := writeArtifacts(path, res); err != nil {
			return err
		}
	}
	return nil
}

// writeArtifacts saves the record, and optionally its evidence sidecar,
// next to other outputs in the configured directory.
func writeArtifacts(path string, res *pipeline.Result) error {
	if err := os.MkdirAll(extractOutDir, 0o755); err != nil {
		return eris.Wrap(err, "cmd: create output dir")
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	record, err := json.MarshalIndent(res.Record, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cmd: encode record")
	}
	out := filepath.Join(extractOutDir, stem+"_invoice.json")
	if err := os.WriteFile(out, record, 0o644); err != nil {
		return eris.Wrap(err, "cmd: write record")
	}

	if extractEvidence && res.Evidence != nil {
		evidence, err := json.MarshalIndent(res.Evidence, "", "  ")
		if err != nil {
			return eris.Wrap(err, "cmd: encode evidence")
		}
		out := filepath.Join(extractOutDir, stem+"_evidence.json")
		if err := os.WriteFile(out, evidence, 0o644); err != nil {
			return eris.Wrap(err, "cmd: write evidence")
		}
	}

	return nil
}

func init() {
	extractCmd.Flags().StringVar(&extractStrategy, "strategy", "", "extraction strategy: batch or per_page (default from config)")
	extractCmd.Flags().BoolVar(&extractNoVerify, "no-verify", false, "skip the verification pass")
	extractCmd.Flags().BoolVar(&extractEvidence, "evidence", false, "write the evidence sidecar when available")
	extractCmd.Flags().StringVar(&extractOutDir, "out-dir", "", "directory for JSON artifacts (default: print only)")
	extractCmd.Flags().StringVar(&extractContentType, "content-type", "", "override the detected content type")
	rootCmd.AddCommand(extractCmd)
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"label-designer/internal/designer/mapper"
	"label-designer/internal/designer/models"
	"label-designer/internal/designer/parser"
	"label-designer/internal/designer/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ============================================================
// Root
// ============================================================

func newRootCmd(logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "labelctl",
		Short:         "Offline tools for label templates",
		Long:          "Render, preview, validate and convert label templates stored as JSON or YAML.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		renderCommand(logger),
		previewCommand(logger),
		validateCommand(logger),
		convertCommand(logger),
		importSVGCommand(logger),
	)
	return root
}

// ============================================================
// Commands
// ============================================================

func renderCommand(logger *zap.Logger) *cobra.Command {
	var (
		zoom float64
		out  string
	)

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render the editing canvas of a template as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(args[0], logger)
			if err != nil {
				return err
			}
			store.SetZoom(zoom)

			svg, err := mapper.NewRenderer().RenderCanvas(&mapper.Scene{
				Label:    store.Label(),
				Elements: store.SortedElements(),
				Zoom:     store.Zoom(),
			})
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), out, []byte(svg))
		},
	}

	cmd.Flags().Float64Var(&zoom, "zoom", 1, "canvas zoom (0.25 - 3)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func previewCommand(logger *zap.Logger) *cobra.Command {
	var (
		zoom         float64
		data         []string
		noGuidelines bool
		out          string
	)

	cmd := &cobra.Command{
		Use:   "preview [template]",
		Short: "Render the thermal print preview with bound data fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseData(data)
			if err != nil {
				return err
			}
			store, err := loadStore(args[0], logger)
			if err != nil {
				return err
			}

			svg, err := mapper.NewRenderer().RenderPreview(store.Label(), store.SortedElements(), mapper.PreviewOptions{
				Zoom:           zoom,
				ShowGuidelines: !noGuidelines,
				Data:           values,
			})
			if err != nil {
				return fmt.Errorf("preview: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), out, []byte(svg))
		},
	}

	cmd.Flags().Float64Var(&zoom, "zoom", 1, "preview zoom (0.25 - 3)")
	cmd.Flags().StringArrayVar(&data, "data", nil, "field value as key=value, repeatable")
	cmd.Flags().BoolVar(&noGuidelines, "no-guidelines", false, "hide the 5mm guideline grid")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func validateCommand(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [template]",
		Short: "Check that a template decodes cleanly and fits the thermal printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			data, decodeErr := models.DecodeTemplateFormat(raw, models.FormatFromPath(args[0]))

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "label: %sx%s mm, %d elements\n",
				trimFloat(data.Label.WidthMM), trimFloat(data.Label.HeightMM), len(data.Elements))

			report := mapper.CheckThermal(data.Label)
			if report.MatchedSize != nil {
				fmt.Fprintf(w, "printer: standard size %s\n", report.MatchedSize.Name)
			}
			if !report.Compatible {
				fmt.Fprintf(w, "printer: %s\n", report.Warning)
			}

			if decodeErr != nil {
				logger.Warn("template has problems", zap.String("file", args[0]), zap.Error(decodeErr))
				return fmt.Errorf("invalid template: %w", decodeErr)
			}
			fmt.Fprintln(w, "ok")
			return nil
		},
	}
}

func convertCommand(logger *zap.Logger) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "convert [template]",
		Short: "Convert a template between JSON and YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := models.ParseFormat(format)
			if err != nil {
				return err
			}
			store, err := loadStore(args[0], logger)
			if err != nil {
				return err
			}
			encoded, err := models.EncodeTemplate(store.ExportData(), target)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, encoded)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importSVGCommand(logger *zap.Logger) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "import-svg [file.svg]",
		Short: "Build a template from the shapes of an SVG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := models.ParseFormat(format)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open svg: %w", err)
			}
			defer f.Close()

			data, err := parser.ParseSVG(f)
			if err != nil {
				if errors.Is(err, parser.ErrInvalidSVG) {
					return err
				}
				logger.Warn("some svg nodes were skipped", zap.String("file", args[0]), zap.Error(err))
			}

			encoded, err := models.EncodeTemplate(data, target)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, encoded)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// ============================================================
// Helpers
// ============================================================

// loadStore читает шаблон (формат по расширению) в новый Store.
// Ошибки декодирования не фатальны: макет уже дополнен умолчаниями.
func loadStore(path string, logger *zap.Logger) (*service.Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	data, err := models.DecodeTemplateFormat(raw, models.FormatFromPath(path))
	if err != nil {
		logger.Warn("template loaded with defaults", zap.String("file", path), zap.Error(err))
	}

	store := service.NewStore()
	store.LoadFromData(data)
	return store, nil
}

func parseData(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --data %q, expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		if !bytes.HasSuffix(data, []byte("\n")) {
			data = append(data, '\n')
		}
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

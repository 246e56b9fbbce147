package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"medassist/api/internal/app"
	"medassist/api/internal/handle"
	"medassist/api/internal/httpserver"
	"medassist/api/internal/i18n"
	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
)

// Builder assembles the services lazily so that `languages` never touches them.
type Builder func() *app.App

// NewRootCommand returns the root command with all subcommands attached.
func NewRootCommand(ctx context.Context, fs afero.Fs, build Builder, logger *logging.Logger) *cobra.Command {
	cobra.EnableCommandSorting = false
	root := &cobra.Command{
		Use:   "medassist",
		Short: "Medical report OCR and multilingual medical assistant.",
		Long: `medassist extracts text from photographed medical reports, transcribes
voice notes and answers medical questions in 12 languages.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(ctx, build, logger))
	root.AddCommand(newExtractCommand(ctx, fs, build))
	root.AddCommand(newTranscribeCommand(ctx, fs, build))
	root.AddCommand(newLanguagesCommand())
	return root
}

func newServeCommand(ctx context.Context, build Builder, logger *logging.Logger) *cobra.Command {
	var host, port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := build()
			defer a.Close()

			addr := a.Config.Addr()
			if host != "" || port != "" {
				h, p, _ := net.SplitHostPort(addr)
				if host != "" {
					h = host
				}
				if port != "" {
					p = port
				}
				addr = net.JoinHostPort(h, p)
			}

			if !a.Config.DebugEnabled() {
				gin.SetMode(gin.ReleaseMode)
			}
			h := handle.New(handle.Deps{
				Extractor:   a.Extractor,
				Transcriber: a.Transcriber,
				Chatbot:     a.Chatbot,
				Summarizer:  a.Summarizer,
				Workflow:    a.Workflow,
			}, a.Config.RequestTimeout(), logger)
			return httpserver.New(addr, h, logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override HOST")
	cmd.Flags().StringVarP(&port, "port", "p", "", "override PORT")
	return cmd
}

// ExtractOutput is what `extract --json` prints.
type ExtractOutput struct {
	File   string     `json:"file"`
	Result ocr.Result `json:"result"`
	Report string     `json:"formatted_report"`
}

func newExtractCommand(ctx context.Context, fs afero.Fs, build Builder) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract text from a medical report image.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := build()
			defer a.Close()

			src := ocr.NewFilePath(fs, args[0])
			res := a.Extractor.Extract(ctx, src)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(ExtractOutput{File: args[0], Result: res, Report: ocr.FormatReport(res)}); err != nil {
					return err
				}
			} else {
				if size := src.Size(); size >= 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s)\n", src.Name(), humanize.Bytes(uint64(size)))
				}
				fmt.Fprintln(out, ocr.FormatReport(res))
			}
			if res.Failed() {
				return fmt.Errorf("extraction failed: %s", res.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result and report as JSON")
	return cmd
}

func newTranscribeCommand(ctx context.Context, fs afero.Fs, build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Transcribe a voice recording.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}
			a := build()
			defer a.Close()

			tr, err := a.Transcriber.Transcribe(ctx, audio, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(tr); err != nil {
				return err
			}
			if tr.Failed() {
				return fmt.Errorf("transcription failed: %s", tr.Text)
			}
			return nil
		},
	}
}

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, c := range i18n.Codes() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c, i18n.Name(c), i18n.SelfName(c))
			}
		},
	}
}

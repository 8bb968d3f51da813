package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"radiodx/internal/core/batch"
	perr "radiodx/internal/platform/errors"
	pnet "radiodx/internal/platform/net"
	"radiodx/internal/services/radiograph/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// opener builds the pipeline lazily so --help never touches storage
type opener func() (domain.ServicePort, error)

// errBatchFailed marks a batch with no successes; the outcome is already printed
var errBatchFailed = perr.New(perr.ErrorCodeUnknown, "every item failed")

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "radiodx-cli",
		Short: "Convert, detect and report on dental radiographs from the command line",
		Long: strings.TrimSpace(`
Runs the same pipeline as the API against the configured artifact store.
Every command prints the JSON envelope the API would return.
`),
		SilenceUsage:  true,
		SilenceErrors: true,
		// one id per invocation ties the printed envelope to its log lines
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(pnet.WithRequestID(cmd.Context(), "cli-"+uuid.NewString()))
		},
	}
	root.SetOut(out)

	root.AddCommand(
		convertCmd(open),
		detectCmd(open),
		reportCmd(open),
		annotateCmd(open),
	)
	return root
}

func convertCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert .dcm/.rvg files and store their rasters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := open()
			if err != nil {
				return printErr(cmd, err)
			}
			ups := make([]domain.Upload, len(args))
			for i, p := range args {
				ups[i].Name = filepath.Base(p)
				f, err := os.Open(p)
				if err != nil {
					// the item fails on its own with the open error
					ups[i].Err = err
					continue
				}
				defer f.Close()
				ups[i].Body = f
			}
			return printOutcome(cmd, svc.IngestBatch(cmd.Context(), ups))
		},
	}
}

func detectCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "detect ID...",
		Short: "Detect pathologies for stored rasters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := open()
			if err != nil {
				return printErr(cmd, err)
			}
			return printOutcome(cmd, svc.DetectBatch(cmd.Context(), args))
		},
	}
}

func reportCmd(open opener) *cobra.Command {
	var (
		regenerate bool
		htmlOut    string
	)
	cmd := &cobra.Command{
		Use:   "report ID",
		Short: "Synthesize the diagnostic report for a detected raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := open()
			if err != nil {
				return printErr(cmd, err)
			}
			res, err := svc.Report(cmd.Context(), args[0], domain.ReportOptions{Regenerate: regenerate})
			if err != nil {
				return printErr(cmd, err)
			}
			if htmlOut != "" {
				page, err := svc.ReportHTML(cmd.Context(), args[0])
				if err != nil {
					return printErr(cmd, err)
				}
				if err := os.WriteFile(htmlOut, page, 0o644); err != nil {
					return printErr(cmd, perr.Wrap(err, perr.ErrorCodeStorage, "write html"))
				}
			}
			return printJSON(cmd, pnet.OK(res, pnet.RequestID(cmd.Context())))
		},
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "ignore a stored report")
	cmd.Flags().StringVar(&htmlOut, "html", "", "also write the report as an HTML page to this path")
	return cmd
}

func annotateCmd(open opener) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "annotate ID",
		Short: "Write the raster with detection boxes drawn on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := open()
			if err != nil {
				return printErr(cmd, err)
			}
			png, err := svc.Annotated(cmd.Context(), args[0])
			if err != nil {
				return printErr(cmd, err)
			}
			if outPath == "" {
				outPath = args[0] + "_annotated.png"
			}
			if err := os.WriteFile(outPath, png, 0o644); err != nil {
				return printErr(cmd, perr.Wrap(err, perr.ErrorCodeStorage, "write annotated image"))
			}
			return printJSON(cmd, pnet.OK(map[string]string{"file_id": args[0], "path": outPath}, pnet.RequestID(cmd.Context())))
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default <id>_annotated.png)")
	return cmd
}

func printOutcome[T any](cmd *cobra.Command, o batch.Outcome[T]) error {
	status := http.StatusOK
	if o.Failed() {
		status = http.StatusUnprocessableEntity
	}
	w := pnet.Reply(status, o, pnet.RequestID(cmd.Context()))
	if err := printJSON(cmd, w); err != nil {
		return err
	}
	if o.Failed() {
		return errBatchFailed
	}
	return nil
}

func printErr(cmd *cobra.Command, err error) error {
	if werr := printJSON(cmd, pnet.Error(err, pnet.RequestID(cmd.Context()))); werr != nil {
		return fmt.Errorf("%w (print: %v)", err, werr)
	}
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

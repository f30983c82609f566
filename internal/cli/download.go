package cli

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cobaltctl/internal/mediafile"
	"cobaltctl/pkg/cobalt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const progressPeriod = 200 * time.Millisecond

func newDownloadCmd(a *app) *cobra.Command {
	var (
		rf     requestFlags
		outDir string
		item   int
		sum    string
	)

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Resolve a media URL and save the file",
		Long: `Resolve a media URL and stream the resulting file to disk.

A picker response needs --item to choose an entry; without it the picker's
audio track is saved when there is one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rf.build(a, cmd.Flags(), args[0])
			if err != nil {
				return err
			}

			c, _, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}

			resp, err := resolve(cmd.Context(), a, c, req)
			if err != nil {
				return err
			}

			source, name, err := mediafile.Target(resp, item)
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = a.cfg.Dir.Downloads
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			dest := filepath.Join(outDir, name)

			opts := []cobalt.DownloadOption{}
			if progress := progressPrinter(cmd.ErrOrStderr()); progress != nil {
				opts = append(opts, cobalt.WithProgress(progress), cobalt.WithProgressPeriod(progressPeriod))
			}
			if sum != "" {
				opts = append(opts, cobalt.WithChecksum(sha256.New(), sum))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Transport.DownloadTimeout)
			defer cancel()

			a.log.DebugContext(ctx, "downloading", slog.String("source", source), slog.String("dest", dest))

			written, err := c.Download(ctx, source, dest, opts...)
			if errors.Is(err, cobalt.ErrChecksumMismatch) || errors.Is(err, cobalt.ErrContentLengthMismatch) {
				// the bytes are complete but wrong; an interrupted file is kept for inspection
				if rmErr := os.Remove(dest); rmErr != nil {
					a.log.WarnContext(ctx, "removing corrupt download", slog.String("dest", dest), slog.Any("error", rmErr))
				}
			}
			if err != nil {
				return fmt.Errorf("download %s: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", dest, humanize.Bytes(uint64(written)))

			return nil
		},
	}

	rf.register(cmd.Flags())
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory (default COBALT_DIR_DOWNLOAD)")
	cmd.Flags().IntVar(&item, "item", mediafile.NoItem, "Picker entry to save, starting at 0")
	cmd.Flags().StringVar(&sum, "sha256", "", "Expected SHA-256 of the file, hex encoded")

	return cmd
}

func resolve(ctx context.Context, a *app, c *cobalt.Client, req cobalt.ExtractionRequest) (cobalt.Response, error) {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	resp, err := c.GetMedia(ctx, "", req)
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}

	return resp, nil
}

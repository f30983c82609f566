package cli

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"cobaltctl/pkg/cobalt"
	"cobaltctl/pkg/ptr"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}

// progressLine renders one progress report, e.g. "12 MB / 40 MB (30%) eta 5s".
func progressLine(p cobalt.Progress) string {
	line := fmt.Sprintf("%s / %s (%d%%)",
		humanize.Bytes(uint64(p.Downloaded)), humanize.Bytes(uint64(p.Total)), p.Percent)

	if p.ETA > 0 && p.Downloaded < p.Total {
		line += " eta " + p.ETA.Round(time.Second).String()
	}

	return line
}

// progressPrinter redraws a single status line when w is a terminal and stays silent otherwise.
func progressPrinter(w io.Writer) func(cobalt.Progress) {
	if !isTerminal(w) {
		return nil
	}

	return func(p cobalt.Progress) {
		fmt.Fprintf(w, "\r\033[K%s", progressLine(p))

		if p.Downloaded == p.Total {
			fmt.Fprintln(w)
		}
	}
}

func printResponse(w io.Writer, resp cobalt.Response) {
	switch r := resp.(type) {
	case *cobalt.RedirectResponse:
		fmt.Fprintf(w, "%s\t%s\n", r.Filename, r.URL)
	case *cobalt.PickerResponse:
		if r.Audio != nil {
			fmt.Fprintf(w, "audio\t%s\t%s\n", cmp.Or(ptr.Deref(r.AudioFilename), "-"), *r.Audio)
		}

		for i, item := range r.Picker {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, item.Type, item.URL)
		}
	case *cobalt.ErrorResponse:
		fmt.Fprintf(w, "error\t%s\n", r.Error.Code)

		if ctx := r.Error.Context; ctx != nil {
			if ctx.Service != nil {
				fmt.Fprintf(w, "service\t%s\n", *ctx.Service)
			}

			if ctx.Limit != nil {
				fmt.Fprintf(w, "limit\t%d\n", *ctx.Limit)
			}
		}
	}
}

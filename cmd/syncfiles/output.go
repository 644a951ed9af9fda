package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/bft-labs/syncfiles/pkg/syncfiles"
)

const fileIndent = 4

func printResult(w io.Writer, res syncfiles.BatchResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if res.Failed() {
		fmt.Fprintf(w, "%s %s: %s\n", color.RedString("✗"), res.Action, res.Error)
	} else {
		fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), res.Action)
	}
	if res.BatchID != "" {
		fmt.Fprintf(w, "  batch id: %s\n", res.BatchID)
	}
	if res.ConfirmationCode != "" {
		fmt.Fprintf(w, "  confirmation code: %s\n", color.CyanString(res.ConfirmationCode))
	}
	printFiles(w, "sent", res.LastSentFiles, color.GreenString("↑"))
	printFiles(w, "archived", res.LastArchivedFiles, color.HiBlackString("→"))
	printFiles(w, "media sent", res.LastMediaSent, color.GreenString("↑"))
	printFiles(w, "pending", res.PendingFiles, color.YellowString("•"))
	return nil
}

func printFiles(w io.Writer, label string, files []string, prefix string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s (%d):\n", label, len(files))
	for _, f := range files {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat(" ", fileIndent), prefix, f)
	}
}

type historyRow struct {
	Filename     string `json:"filename"`
	Created      string `json:"created"`
	SentAt       string `json:"sent_at,omitempty"`
	ApprovalCode string `json:"approval_code,omitempty"`
}

func printHistory(w io.Writer, entries []syncfiles.LedgerEntry, asJSON bool) error {
	if asJSON {
		rows := make([]historyRow, 0, len(entries))
		for _, e := range entries {
			row := historyRow{Filename: e.Filename, Created: e.Created.UTC().Format("2006-01-02T15:04:05Z07:00")}
			if e.SentAt != nil {
				row.SentAt = e.SentAt.UTC().Format("2006-01-02T15:04:05Z07:00")
			}
			if e.ApprovalCode != nil {
				row.ApprovalCode = *e.ApprovalCode
			}
			rows = append(rows, row)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, color.HiBlackString("no files sent yet"))
		return nil
	}
	for _, e := range entries {
		sent := "-"
		if e.SentAt != nil {
			sent = humanize.Time(*e.SentAt)
		}
		code := color.YellowString("unconfirmed")
		if e.ApprovalCode != nil {
			code = color.GreenString(*e.ApprovalCode)
		}
		fmt.Fprintf(w, "%-40s %-16s %s\n", e.Filename, sent, code)
	}
	return nil
}

// newProgressPrinter returns a progress callback writing one line per file update.
func newProgressPrinter(w io.Writer) syncfiles.ProgressFunc {
	var mu sync.Mutex
	return func(p syncfiles.Progress) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\r%s %s / %s (%.0f%%)", p.Filename,
			humanize.Bytes(uint64(p.Sent)), humanize.Bytes(uint64(p.Total)), p.Percent())
		if p.Sent >= p.Total {
			fmt.Fprintln(w)
		}
	}
}

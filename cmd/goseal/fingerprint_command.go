package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shandysiswandi/goseal/internal/pkg/digest"
	"github.com/spf13/cobra"
)

const stdinName = "-"

type fingerprintEntry struct {
	Input       string `json:"input" yaml:"input"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Size        int64  `json:"size" yaml:"size"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

type fingerprintReport struct {
	Files []fingerprintEntry `json:"files" yaml:"files"`
}

func (r fingerprintReport) headers() []string {
	return []string{"Input", "Fingerprint", "Size"}
}

func (r fingerprintReport) rows() [][]string {
	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Error != "" {
			rows = append(rows, []string{f.Input, "error: " + f.Error, ""})
			continue
		}
		rows = append(rows, []string{f.Input, f.Fingerprint, strconv.FormatInt(f.Size, 10)})
	}
	return rows
}

func newFingerprintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [file...]",
		Short: "Print the SHA-256 fingerprint of files or stdin",
		Long: "Print the lowercase hex SHA-256 fingerprint and size of each file. " +
			"Standard input is read when no file or \"-\" is given.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{stdinName}
			}

			report := fingerprintReport{Files: make([]fingerprintEntry, 0, len(args))}
			failed := 0
			for _, name := range args {
				entry := fingerprintEntry{Input: name}
				res, err := fingerprintInput(cmd, name)
				if err != nil {
					entry.Error = err.Error()
					failed++
				} else {
					entry.Fingerprint = res.Fingerprint
					entry.Size = res.Size
				}
				report.Files = append(report.Files, entry)
			}

			if err := writeOutput(cmd, ctx.output(), report); err != nil {
				return err
			}
			if failed > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d of %d inputs could not be read", failed, len(args))}
			}
			return nil
		},
	}
}

func fingerprintInput(cmd *cobra.Command, name string) (digest.Result, error) {
	var r io.Reader
	if name == stdinName {
		r = cmd.InOrStdin()
	} else {
		// #nosec G304 -- reading user-named files is the command's purpose.
		f, err := os.Open(name)
		if err != nil {
			return digest.Result{}, err
		}
		defer f.Close()
		r = f
	}

	return digest.SumContext(cmd.Context(), r)
}

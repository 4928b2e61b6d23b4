package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/spf13/cobra"
)

// exitMalformed distinguishes a corrupt stored hash from a mismatch.
const exitMalformed = 2

var errEmptySecret = errors.New("no secret on standard input")

type hashReport struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Hash      string `json:"hash" yaml:"hash"`
}

func (r hashReport) headers() []string { return []string{"Algorithm", "Hash"} }
func (r hashReport) rows() [][]string  { return [][]string{{r.Algorithm, r.Hash}} }

type verifyReport struct {
	Match       bool `json:"match" yaml:"match"`
	NeedsRehash bool `json:"needs_rehash" yaml:"needs_rehash"`
}

func (r verifyReport) headers() []string { return []string{"Match", "Needs Rehash"} }
func (r verifyReport) rows() [][]string {
	return [][]string{{yesNo(r.Match), yesNo(r.NeedsRehash)}}
}

type inspectReport struct {
	Algorithm   string `json:"algorithm" yaml:"algorithm"`
	Cost        int    `json:"cost,omitempty" yaml:"cost,omitempty"`
	Memory      uint32 `json:"memory,omitempty" yaml:"memory,omitempty"`
	Iterations  uint32 `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Parallelism uint8  `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`
	NeedsRehash bool   `json:"needs_rehash" yaml:"needs_rehash"`
}

func (r inspectReport) headers() []string {
	return []string{"Algorithm", "Cost", "Memory KiB", "Iterations", "Parallelism", "Needs Rehash"}
}

func (r inspectReport) rows() [][]string {
	blank := func(v uint64) string {
		if v == 0 {
			return "-"
		}
		return strconv.FormatUint(v, 10)
	}
	return [][]string{{
		r.Algorithm,
		blank(uint64(r.Cost)),
		blank(uint64(r.Memory)),
		blank(uint64(r.Iterations)),
		blank(uint64(r.Parallelism)),
		yesNo(r.NeedsRehash),
	}}
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash a secret read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			multi, err := ctx.hashers()
			if err != nil {
				return err
			}

			alg := multi.Primary()
			if strings.TrimSpace(algorithm) != "" {
				if alg, err = hash.ParseAlgorithm(algorithm); err != nil {
					return err
				}
			}
			h, err := multi.Hasher(alg)
			if err != nil {
				return err
			}

			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			stored, err := h.Hash(secret)
			if err != nil {
				return err
			}

			return writeOutput(cmd, ctx.output(), hashReport{Algorithm: alg.String(), Hash: stored})
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "Algorithm: bcrypt or argon2id (default from hash.primary)")

	return cmd
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var stored string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a secret read from stdin against a stored hash",
		Long: "Check a secret read from stdin against a stored hash. " +
			"Exits 1 on mismatch and 2 when the stored hash is malformed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			multi, err := ctx.hashers()
			if err != nil {
				return err
			}

			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			match, err := multi.Verify(stored, secret)
			if err != nil {
				return malformedError(err)
			}

			report := verifyReport{Match: match}
			if match {
				if report.NeedsRehash, err = multi.NeedsRehash(stored); err != nil {
					return malformedError(err)
				}
			}

			if err := writeOutput(cmd, ctx.output(), report); err != nil {
				return err
			}
			if !match {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stored, "hash", "", "Stored hash to verify against")
	_ = cmd.MarkFlagRequired("hash")

	return cmd
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var stored string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the parameters encoded in a stored hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			multi, err := ctx.hashers()
			if err != nil {
				return err
			}

			info, err := multi.Inspect(stored)
			if err != nil {
				return malformedError(err)
			}
			rehash, err := multi.NeedsRehash(stored)
			if err != nil {
				return malformedError(err)
			}

			return writeOutput(cmd, ctx.output(), inspectReport{
				Algorithm:   info.Algorithm.String(),
				Cost:        info.Cost,
				Memory:      info.Memory,
				Iterations:  info.Iterations,
				Parallelism: info.Parallelism,
				NeedsRehash: rehash,
			})
		},
	}

	cmd.Flags().StringVar(&stored, "hash", "", "Stored hash to inspect")
	_ = cmd.MarkFlagRequired("hash")

	return cmd
}

// readSecret reads all of r and drops one trailing line ending, so both
// `echo` and `printf` work.
func readSecret(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}

	s := strings.TrimSuffix(strings.TrimSuffix(string(b), "\n"), "\r")
	if s == "" {
		return "", errEmptySecret
	}
	return s, nil
}

func malformedError(err error) error {
	if errors.Is(err, hash.ErrMalformedHash) {
		return &exitError{code: exitMalformed, err: fmt.Errorf("stored hash is corrupt: %w", err)}
	}
	return err
}

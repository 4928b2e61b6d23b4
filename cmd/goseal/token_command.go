package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

type tokenReport struct {
	ClientID string `json:"client_id" yaml:"client_id"`
	Token    string `json:"token" yaml:"token"`
}

func (r tokenReport) headers() []string { return []string{"Client", "Token"} }
func (r tokenReport) rows() [][]string  { return [][]string{{r.ClientID, r.Token}} }

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var clientID, name string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a service token signed with the configured JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(clientID) == "" {
				return errors.New("--client must not be blank")
			}

			signer, err := ctx.signer()
			if err != nil {
				return err
			}

			token, err := signer.Generate(clientID, name)
			if err != nil {
				return err
			}

			return writeOutput(cmd, ctx.output(), tokenReport{ClientID: clientID, Token: token})
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "Client id placed in the token subject")
	cmd.Flags().StringVar(&name, "name", "", "Human readable client name")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

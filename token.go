package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/service"
)

func tokenCMD() *cobra.Command {
	var subject string
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for /api/v1 (requires API_JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := service.NewTokenService(config.Load().Server)
			if err != nil {
				return err
			}
			issued, err := tokens.Issue(subject)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(issued)
		},
	}
	token.Flags().StringVar(&subject, "subject", "dashboard", "token subject")
	return token
}

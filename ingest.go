package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func ingestCMD() *cobra.Command {
	var status string
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Sync resolved tickets from Jira into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), storePostgres)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.ingestService().Sync(cmd.Context(), status)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	ingest.Flags().StringVar(&status, "status", "", "Jira status to sync (default JIRA_DONE_STATUS)")
	return ingest
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env 는 있을 때만 읽음 (운영 환경은 실제 환경변수 사용)
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "ticketbot",
		Short:         "Retrieval-augmented assistant over resolved Jira tickets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCMD(), ingestCMD(), migrateCMD(), tokenCMD())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

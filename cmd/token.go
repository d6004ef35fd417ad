package cmd

import (
	"fmt"
	"os"

	"github.com/jjenkins/billtracker/internal/handlers"
	"github.com/spf13/cobra"
)

var tokenEmail string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for an email address",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := setup()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		defer log.Sync()

		sessions, err := handlers.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
		if err != nil {
			log.Fatal("Failed to configure sessions", "error", err)
		}
		token, err := sessions.Issue(tokenEmail)
		if err != nil {
			log.Fatal("Failed to issue token", "error", err)
		}
		log.Info("Issued session token", "email", tokenEmail, "expires_in", cfg.SessionTTL.String())
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVarP(&tokenEmail, "email", "e", "", "Email address the token identifies")
	_ = tokenCmd.MarkFlagRequired("email")
}

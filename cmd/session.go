package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/signup/internal/presentation"
	"github.com/zjrosen/signup/internal/session/sqlite"
)

var (
	sessionLimit int
	sessionJSON  bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear stored sign-in sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		list, err := store.List(cmd.Context(), sessionLimit)
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout(), sessionJSON).
			FormatSessions(presentation.FromSessions(list, time.Now()))
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		n, err := store.DeleteAll(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s).\n", n)
		return err
	},
}

func init() {
	sessionListCmd.Flags().IntVar(&sessionLimit, "limit", 0, "show at most this many sessions (0 = all)")
	sessionListCmd.Flags().BoolVar(&sessionJSON, "json", false, "print JSON")
	sessionCmd.AddCommand(sessionListCmd, sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func openSessionStore() (*sqlite.Store, error) {
	if !cfg.SessionStorage.Enabled {
		return nil, errors.New("session storage is disabled (session_storage.enabled)")
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return store, nil
}

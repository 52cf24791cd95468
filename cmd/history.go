package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past research runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		for _, e := range entries {
			kind := " "
			if e.Contextual {
				kind = "↳"
			}
			fmt.Printf("%s  %s  %s  (%d results, %d articles)  %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.ID,
				kind,
				e.Results,
				e.Articles,
				e.Query,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete stored runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
		}
		fmt.Println("deleted " + strconv.Itoa(len(args)) + " run(s)")
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

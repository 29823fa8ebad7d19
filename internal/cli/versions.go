package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tripcheck/internal/versions"
)

var (
	versionsDB     string
	versionsLog    string
	versionsLimit  int
	versionsVerify bool
	versionsFormat string
)

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().StringVar(&versionsDB, "db", "", "SQLite version store (default: versions.sqlite from config)")
	versionsCmd.Flags().StringVar(&versionsLog, "log", "", "JSONL version log (default: versions.log from config)")
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 0, "Maximum versions to list from SQLite (0 = all)")
	versionsCmd.Flags().BoolVar(&versionsVerify, "verify", false, "Verify the version log hash chain instead of listing")
	versionsCmd.Flags().StringVarP(&versionsFormat, "format", "f", "text", "Output format (text|json)")
}

var versionsCmd = &cobra.Command{
	Use:   "versions [trip-id]",
	Short: "List or verify recorded trip versions",
	Long: "Lists versions recorded after applied and undone changes, oldest first.\n" +
		"Reads SQLite when --db (or versions.sqlite) is set, otherwise the JSONL log.\n" +
		"With --verify, checks the log's hash chain and exits 1 if it is broken.",
	Args: cobra.MaximumNArgs(1),
	RunE: runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var tripID string
	if len(args) == 1 {
		tripID = args[0]
	}

	logPath := versionsLog
	if logPath == "" {
		logPath = cfg.Versions.Log
	}
	dbPath := versionsDB
	if dbPath == "" {
		dbPath = cfg.Versions.SQLite
	}

	if versionsVerify {
		if logPath == "" {
			logPath = versions.DefaultLogPath()
		}
		result := versions.Verify(logPath)
		if versionsFormat == "json" {
			if err := printJSON(result); err != nil {
				return err
			}
		} else if result.Valid {
			fmt.Printf("%s: chain intact (%d versions)\n", logPath, result.Lines)
		} else {
			fmt.Printf("%s: chain broken at line %d: %s\n", logPath, result.ErrorLine, result.Error)
		}
		if !result.Valid {
			return fmt.Errorf("version log verification failed")
		}
		return nil
	}

	var list []versions.Version
	switch {
	case versionsDB != "" || (dbPath != "" && versionsLog == ""):
		store, err := versions.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		list, err = store.List(cmd.Context(), tripID, versionsLimit)
		if err != nil {
			return err
		}
	default:
		if logPath == "" {
			logPath = versions.DefaultLogPath()
		}
		list, err = versions.ReadLog(logPath, tripID)
		if err != nil {
			return err
		}
	}

	if versionsFormat == "json" {
		if list == nil {
			list = []versions.Version{}
		}
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("No versions recorded.")
		return nil
	}
	for _, v := range list {
		fmt.Printf("%s  %-12s %-10s %-36s certainty %d -> %d\n",
			v.CreatedAt.Local().Format(time.DateTime), v.TripID, v.Source, v.ChangeID,
			v.Summary.Certainty.Before, v.Summary.Certainty.After)
	}
	return nil
}

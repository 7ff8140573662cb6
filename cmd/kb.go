package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and manage the prospect knowledge base",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved prospects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		prospects, err := st.ListProspects(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tROLE\tSTATUS\tSAVED")
		for _, p := range prospects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Name, p.Company, p.Role, p.Status, p.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var kbShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a prospect's full record and messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p, err := st.GetProspect(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(p), "encode prospect")
	},
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Prospects:  %d\nCompanies:  %d\nIndustries: %d\n",
			stats.Total, stats.Companies, stats.Industries)
		return nil
	},
}

var kbStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Update a prospect's outreach status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.ProspectStatus(args[1])
		switch status {
		case model.ProspectStatusSent, model.ProspectStatusOpened, model.ProspectStatusReplied,
			model.ProspectStatusMeetingBooked, model.ProspectStatusGhosted:
		default:
			return eris.Errorf("invalid status %q", args[1])
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		if err := st.UpdateStatus(ctx, args[0], status); err != nil {
			return err
		}
		fmt.Printf("Prospect %s set to %s\n", args[0], status)
		return nil
	},
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a prospect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		if err := st.DeleteProspect(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Prospect %s deleted\n", args[0])
		return nil
	},
}

func init() {
	kbCmd.AddCommand(kbListCmd, kbShowCmd, kbStatsCmd, kbStatusCmd, kbDeleteCmd)
	rootCmd.AddCommand(kbCmd)
}

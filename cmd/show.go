package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/dropwatch/internal/extract"
	"github.com/matheuskafuri/dropwatch/internal/signal"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored opportunity",
	Long: `Print a stored opportunity as JSON, with the score rebuilt from its stored
fields and text. The ID is the post ID the opportunity was built from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		return showOpportunity(cmd.OutOrStdout(), db, args[0])
	},
}

type opportunityGetter interface {
	GetOpportunity(id string) (store.Opportunity, error)
}

type showResult struct {
	Opportunity  store.Opportunity `json:"opportunity"`
	Breakdown    signal.Breakdown  `json:"breakdown"`
	DeadlineRule string            `json:"deadline_rule,omitempty"`
}

func showOpportunity(w io.Writer, db opportunityGetter, id string) error {
	o, err := db.GetOpportunity(id)
	if err != nil {
		return fmt.Errorf("loading opportunity: %w", err)
	}

	res := showResult{
		Opportunity: o,
		Breakdown:   signal.ScoreWithBreakdown(o.Fields(), o.Text),
	}
	if o.Deadline != nil {
		if _, rule, ok := extract.DeadlineRule(o.Text); ok {
			res.DeadlineRule = rule
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
	"github.com/matheuskafuri/dropwatch/internal/classify"
	"github.com/matheuskafuri/dropwatch/internal/domain"
	"github.com/matheuskafuri/dropwatch/internal/extract"
	"github.com/matheuskafuri/dropwatch/internal/logging"
	"github.com/matheuskafuri/dropwatch/internal/normalize"
	"github.com/matheuskafuri/dropwatch/internal/opportunity"
	"github.com/matheuskafuri/dropwatch/internal/signal"
)

var (
	flagExtractID       string
	flagExtractPreserve bool
	flagExtractRaw      bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Extract an opportunity from a single post",
	Long: `Run the extraction engine on one post and print the result as JSON.

The post text is taken from the arguments, or from stdin when none are given.
Nothing is stored and no alerts are sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer logging.Sync(log)

		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no post text given")
		}

		ann, err := annotate.New(cfg.Annotator, cfg.AnnotatorKey())
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		defer annotate.Close(ann)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		res, err := extractPost(ctx, extractRequest{
			ID:           flagExtractID,
			Text:         text,
			PreserveCase: flagExtractPreserve || cfg.PreserveCase,
			Raw:          flagExtractRaw,
		}, opportunity.NewBuilder(ann), classify.New(cfg.Keywords))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

type extractRequest struct {
	ID           string
	Text         string
	PreserveCase bool
	Raw          bool
}

type extractResult struct {
	Text      string            `json:"text"`
	Kind      classify.Kind     `json:"kind"`
	Candidate *domain.Candidate `json:"candidate"`
	Breakdown *signal.Breakdown `json:"breakdown,omitempty"`
	// DeadlineRule names the label the deadline was read from.
	DeadlineRule string `json:"deadline_rule,omitempty"`
}

// extractPost normalizes and runs the engine on a single post. A nil
// candidate means the post named neither a project nor a token.
func extractPost(ctx context.Context, req extractRequest, b *opportunity.Builder, c *classify.Classifier) (extractResult, error) {
	text := req.Text
	if !req.Raw {
		text = normalize.Normalize(text, req.PreserveCase)
	}
	res := extractResult{Text: text, Kind: c.Classify(text)}

	cand, err := b.Build(ctx, domain.RawPost{ID: req.ID, Text: text})
	if err != nil {
		return res, fmt.Errorf("extracting: %w", err)
	}
	if cand == nil {
		return res, nil
	}
	bd := signal.ScoreWithBreakdown(cand.Fields(), text)
	res.Candidate = cand
	res.Breakdown = &bd
	if cand.Deadline != nil {
		if _, rule, ok := extract.DeadlineRule(text); ok {
			res.DeadlineRule = rule
		}
	}
	return res, nil
}

func init() {
	extractCmd.Flags().StringVar(&flagExtractID, "id", "0", "post ID used for the source URL")
	extractCmd.Flags().BoolVar(&flagExtractPreserve, "preserve-case", false, "keep letter case when normalizing (needed to find token symbols)")
	extractCmd.Flags().BoolVar(&flagExtractRaw, "raw", false, "skip normalization")
}

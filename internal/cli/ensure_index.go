package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/notesearch/internal/app"
	searchrepo "github.com/kailas-cloud/notesearch/internal/repository/search"
)

var (
	ensureIndexPrint   bool
	ensureIndexTimeout int
)

var ensureIndexCmd = &cobra.Command{
	Use:   "ensure-index",
	Short: "Create the notes index when it does not exist",
	Long: `Create the configured notes index with the mapping used by typed search.
An existing index is left untouched. Use --print to show the index body
without contacting the engine.`,
	RunE: runEnsureIndex,
}

func init() {
	ensureIndexCmd.Flags().BoolVar(&ensureIndexPrint, "print", false, "Print the index body and exit")
	ensureIndexCmd.Flags().IntVar(&ensureIndexTimeout, "timeout", 30, "Request timeout in seconds")
}

func runEnsureIndex(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	qc := app.QueryConfig(cfg.Search)
	out := cmd.OutOrStdout()

	if ensureIndexPrint {
		body, err := searchrepo.IndexBody(qc)
		if err != nil {
			return err
		}
		return printJSON(out, json.RawMessage(body))
	}

	eng, err := app.NewEngine(cfg.Search)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(ensureIndexTimeout)*time.Second)
	defer cancel()

	created, err := searchrepo.EnsureIndex(ctx, eng, cfg.Search.Index, qc)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created index %s\n", cfg.Search.Index)
	} else {
		fmt.Fprintf(out, "Index %s already exists\n", cfg.Search.Index)
	}
	return nil
}

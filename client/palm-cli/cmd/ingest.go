package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var ingestFlags struct {
	strategy     string
	documentID   string
	chunkSize    int
	chunkOverlap int
	minChunkSize int
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file-path]",
	Short: "Upload a .pdf or .txt file to the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		fields := map[string]string{
			"chunking_strategy": ingestFlags.strategy,
			"document_id":       ingestFlags.documentID,
		}
		for name, v := range map[string]int{
			"chunk_size":     ingestFlags.chunkSize,
			"chunk_overlap":  ingestFlags.chunkOverlap,
			"min_chunk_size": ingestFlags.minChunkSize,
		} {
			if cmd.Flags().Changed(flagName(name)) {
				fields[name] = strconv.Itoa(v)
			}
		}

		var res struct {
			DocumentID string `json:"document_id"`
			Chunks     int    `json:"chunks"`
			Status     string `json:"status"`
		}
		if err := c.upload("/api/ingest", args[0], fields, &res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document ingested: %s (%d chunks, %s)\n", res.DocumentID, res.Chunks, res.Status)
		return nil
	},
}

// flagName maps a form field to its command line flag.
func flagName(field string) string {
	switch field {
	case "chunk_size":
		return "chunk-size"
	case "chunk_overlap":
		return "chunk-overlap"
	case "min_chunk_size":
		return "min-chunk-size"
	}
	return field
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.strategy, "strategy", "fixed_size", "chunking strategy: fixed_size or semantic")
	f.StringVar(&ingestFlags.documentID, "document-id", "", "client generated document UUID (re-ingesting replaces the document)")
	f.IntVar(&ingestFlags.chunkSize, "chunk-size", 0, "chunk size in characters (server default when unset)")
	f.IntVar(&ingestFlags.chunkOverlap, "chunk-overlap", 0, "fixed_size overlap in characters (server default when unset)")
	f.IntVar(&ingestFlags.minChunkSize, "min-chunk-size", 0, "semantic minimum chunk size (server default when unset)")
}

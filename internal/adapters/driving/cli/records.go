package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

var (
	recordsStatus string
	recordsLimit  int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage tracked file records",
	Long: `List the files filer has staged or saved.

Staged records belong to imports that never finished; resume them with
'filer import --retry <record-id>'.`,
	RunE: runRecordsList,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records",
	Args:  cobra.NoArgs,
	RunE:  runRecordsList,
}

var recordsGetCmd = &cobra.Command{
	Use:   "get [record-id]",
	Short: "Show a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsGet,
}

var recordsIngestCmd = &cobra.Command{
	Use:   "ingest [record-id]",
	Short: "Index a saved file into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsIngest,
}

func init() {
	for _, c := range []*cobra.Command{recordsCmd, recordsListCmd} {
		c.Flags().StringVar(&recordsStatus, "status", "", "filter by status (staged, saved)")
		c.Flags().IntVarP(&recordsLimit, "limit", "n", 50, "maximum number of records")
	}
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	recordsCmd.AddCommand(recordsIngestCmd)
	rootCmd.AddCommand(recordsCmd)
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	if recordService == nil {
		return errors.New("record service not configured")
	}

	status := domain.RecordStatus(recordsStatus)
	records, err := recordService.List(commandContext(cmd), status, recordsLimit)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No records found.")
		return nil
	}

	for i := range records {
		r := &records[i]
		location := r.SavedPath
		if location == "" {
			location = r.SourcePath
		}
		cmd.Printf("  %s  %-6s  %s\n", r.ID, r.Status, location)
	}
	cmd.Printf("\nTotal: %d records\n", len(records))
	return nil
}

func runRecordsGet(cmd *cobra.Command, args []string) error {
	if recordService == nil {
		return errors.New("record service not configured")
	}

	r, err := recordService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	cmd.Printf("Record: %s\n\n", r.ID)
	cmd.Printf("  File:      %s\n", r.FileName)
	cmd.Printf("  Status:    %s\n", r.Status)
	cmd.Printf("  Source:    %s\n", r.SourcePath)
	if r.StagedPath != "" {
		cmd.Printf("  Staged:    %s\n", r.StagedPath)
	}
	if r.SavedPath != "" {
		cmd.Printf("  Saved:     %s\n", r.SavedPath)
		cmd.Printf("  Directory: %s\n", displayDirectory(r.Directory))
	}
	cmd.Printf("  Size:      %d bytes\n", r.Size)
	if !r.IngestedAt.IsZero() {
		cmd.Printf("  Ingested:  %s\n", r.IngestedAt.Local().Format(time.DateTime))
	}
	if r.Description != "" {
		cmd.Printf("\n%s\n", r.Description)
	}
	return nil
}

func runRecordsIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("knowledge base not configured")
	}

	res, err := ingestor.Ingest(commandContext(cmd), domain.IngestRequest{RecordID: args[0]})
	if err != nil {
		return fmt.Errorf("failed to ingest record: %w", err)
	}

	embedded := "without embeddings"
	if res.Embedded {
		embedded = "with embeddings"
	}
	cmd.Printf("Indexed %d chunks %s\n", res.Chunks, embedded)
	return nil
}

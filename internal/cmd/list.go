package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/db"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/podman"
	"github.com/pacbox/pacbox/internal/ui"
)

// NewListCmd creates the list command
func NewListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput bool
		filterName string
		sortBy     string
		withState  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List provisioned containers",
		Long:  `List containers provisioned by pacbox, with optional live runtime state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			records, err := database.List(ctx)
			if err != nil {
				ui.PrintError("failed to list containers: %v", err)
				return fmt.Errorf("list containers: %w", err)
			}

			filtered := filterRecords(records, filterName)
			sortRecords(filtered, sortBy)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			if len(filtered) == 0 {
				if filterName != "" {
					ui.PrintWarning("No containers match %q", filterName)
				} else {
					ui.PrintInfo("No containers provisioned yet, run 'pacbox setup'")
				}
				return nil
			}

			var states map[string]core.ContainerState
			if withState {
				states = liveStates(ctx, filtered)
			}

			printContainerTable(cmd, filtered, states)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().StringVar(&filterName, "name", "", "filter by container name (fuzzy match)")
	cmd.Flags().StringVar(&sortBy, "sort", "date", "sort by: name, image, date")
	cmd.Flags().BoolVar(&withState, "state", false, "query the live container state")

	return cmd
}

// filterRecords keeps records whose name fuzzily matches the filter
func filterRecords(records []core.ContainerRecord, filterName string) []core.ContainerRecord {
	if filterName == "" {
		return records
	}

	filtered := make([]core.ContainerRecord, 0, len(records))
	for _, rec := range records {
		if fuzzy.MatchNormalizedFold(filterName, rec.Name) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// sortRecords sorts records by the specified field
func sortRecords(records []core.ContainerRecord, sortBy string) {
	switch strings.ToLower(sortBy) {
	case "name":
		sort.Slice(records, func(i, j int) bool {
			return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
		})
	case "image":
		sort.Slice(records, func(i, j int) bool {
			if records[i].Image == records[j].Image {
				return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
			}
			return records[i].Image < records[j].Image
		})
	default:
		sort.Slice(records, func(i, j int) bool {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		})
	}
}

// liveStates queries podman for the state of every listed container
func liveStates(ctx context.Context, records []core.ContainerRecord) map[string]core.ContainerState {
	pod := podman.New(execx.NewOSRunner())
	states := make(map[string]core.ContainerState, len(records))
	for _, rec := range records {
		state, err := pod.State(ctx, rec.Name)
		if err != nil {
			state = core.StateUnknown
		}
		states[rec.Name] = state
	}
	return states
}

func printContainerTable(cmd *cobra.Command, records []core.ContainerRecord, states map[string]core.ContainerState) {
	headers := []string{"Name", "Image", "Created", "Features"}
	if states != nil {
		headers = append(headers, "State")
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader(headers),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, rec := range records {
		row := []any{
			rec.Name,
			rec.Image,
			rec.CreatedAt.Format("2006-01-02 15:04"),
			featureSummary(rec.Features),
		}
		if states != nil {
			row = append(row, ui.ColorizeState(string(states[rec.Name])))
		}
		table.Append(row...)
	}

	table.Render()
}

func featureSummary(f core.Features) string {
	var parts []string
	if f.Multilib {
		parts = append(parts, "multilib")
	}
	if f.Gaming {
		parts = append(parts, "gaming")
	}
	if f.BuildCache {
		parts = append(parts, "cache")
	}
	if f.OptimizeMirrors {
		parts = append(parts, "mirrors")
	}
	if f.BoxBuddy {
		parts = append(parts, "boxbuddy")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

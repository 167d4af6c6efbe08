package main

import (
	"fmt"

	"github.com/formula-lab/crm-api/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full bidirectional company/customer sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := current.svc.Sync.InitialBidirectionalSync(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var duplicatesCmd = &cobra.Command{
	Use:       "duplicates <customers|companies>",
	Short:     "List groups of records that look like the same entity",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"customers", "companies"},
	RunE: func(cmd *cobra.Command, args []string) error {
		find := current.svc.Sync.DetectDuplicateCustomers
		if args[0] == "companies" {
			find = current.svc.Sync.DetectDuplicateCompanies
		}
		groups, err := find(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(groups)
	},
}

var (
	mergePrimary    string
	mergeDuplicates []string
)

var mergeCmd = &cobra.Command{
	Use:       "merge <customers|companies>",
	Short:     "Merge duplicate records into a primary record",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"customers", "companies"},
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, err := uuid.Parse(mergePrimary)
		if err != nil {
			return fmt.Errorf("invalid --primary: %w", err)
		}
		duplicates := make([]uuid.UUID, 0, len(mergeDuplicates))
		for _, d := range mergeDuplicates {
			id, err := uuid.Parse(d)
			if err != nil {
				return fmt.Errorf("invalid --duplicate %q: %w", d, err)
			}
			duplicates = append(duplicates, id)
		}

		merge := current.svc.Sync.MergeCustomers
		if args[0] == "companies" {
			merge = current.svc.Sync.MergeCompanies
		}
		result, err := merge(cmd.Context(), primary, duplicates)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Recompute denormalized customer, company and conversation counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		customers, err := current.svc.Customers.RecalculateStats(ctx)
		if err != nil {
			return fmt.Errorf("customers: %w", err)
		}
		companies, err := current.svc.Companies.RecalculateStats(ctx)
		if err != nil {
			return fmt.Errorf("companies: %w", err)
		}
		messages, err := current.svc.Conversations.RecalculateMessageCounts(ctx)
		if err != nil {
			return fmt.Errorf("conversations: %w", err)
		}
		return printJSON(map[string]interface{}{
			"customers":     customers,
			"companies":     companies,
			"conversations": messages,
		})
	},
}

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Show number sequence positions and the next REQ/ORD numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		overview, err := current.svc.Numbers.Overview(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(overview)
	},
}

var resetConfirmation string

var resetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Delete every business record; settings and audit logs are kept",
	Example: `  crmadmin reset --confirm "` + service.ResetConfirmationPhrase + `"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := current.svc.Reset.ResetAll(cmd.Context(), resetConfirmation, false)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergePrimary, "primary", "", "id of the record to keep")
	mergeCmd.Flags().StringSliceVar(&mergeDuplicates, "duplicate", nil, "id of a record to merge into the primary (repeatable)")
	_ = mergeCmd.MarkFlagRequired("primary")
	_ = mergeCmd.MarkFlagRequired("duplicate")

	resetCmd.Flags().StringVar(&resetConfirmation, "confirm", "", "the confirmation phrase")
	_ = resetCmd.MarkFlagRequired("confirm")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/caserecord"
)

func newListCmd() *cobra.Command {
	var limit int
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent cases from the case index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			q := a.dbClient.CaseRecord.Query().
				Order(ent.Desc(caserecord.FieldUpdatedAt)).
				Limit(limit)
			if openOnly {
				q = q.Where(caserecord.StatusEQ(caserecord.StatusOpen))
			}

			cases, err := q.All(ctx)
			if err != nil {
				return fmt.Errorf("list cases: %w", err)
			}

			for _, c := range cases {
				fmt.Printf("%s\t%s\t%s\t%s/%s\truns=%d\tupdated=%s\n",
					c.ID, c.CaseKey, c.Status, deref(c.Namespace), deref(c.WorkloadName), c.RunCount, c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of cases to list")
	cmd.Flags().BoolVar(&openOnly, "open-only", false, "only list cases with status=open")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

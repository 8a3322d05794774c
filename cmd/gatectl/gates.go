package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gateadmin/internal/gatemaster"
	"github.com/gateadmin/internal/listctl"
)

func newGatesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gates",
		Short:   "Manage Gate Master records",
		GroupID: "gates",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}
			return c.requireSession(cmd.Context())
		},
	}
	cmd.AddCommand(newGatesListCmd(c), newGatesCreateCmd(c), newGatesUpdateCmd(c), newGatesDeleteCmd(c))
	return cmd
}

func newGatesListCmd(c *cli) *cobra.Command {
	var (
		page, limit int
		search      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List gates page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl := listctl.New(cmd.Context(), gatemaster.NewService(c.api), listctl.Options{
				Page:   page,
				Limit:  limit,
				Search: search,
			})
			defer ctl.Close()
			if err := ctl.Load(); err != nil {
				return userError(err)
			}
			s := ctl.State()
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), s.Rows)
			}
			printGateTable(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number (from 1)")
	cmd.Flags().IntVar(&limit, "limit", listctl.DefaultLimit, "rows per page")
	cmd.Flags().StringVar(&search, "search", "", "filter by gate name (NamaGerbang)")
	return cmd
}

// gateFlags — поля записи для create/update.
type gateFlags struct {
	id         int
	branchID   int
	branchName string
	gateName   string
}

func (f *gateFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.id, "id", 0, "gate id")
	cmd.Flags().IntVar(&f.branchID, "branch-id", 0, "branch id (IdCabang)")
	cmd.Flags().StringVar(&f.branchName, "branch-name", "", "branch name (NamaCabang)")
	cmd.Flags().StringVar(&f.gateName, "name", "", "gate name (NamaGerbang)")
}

func newGatesCreateCmd(c *cli) *cobra.Command {
	var f gateFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a gate; without --id the next id after the first page is suggested",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Создание идёт через тот же контроллер, что и экран: загрузка первой страницы
			// даёт подсказку id, форма проверяет поля.
			ctl := listctl.New(cmd.Context(), gatemaster.NewService(c.api), listctl.Options{})
			defer ctl.Close()
			if err := ctl.Load(); err != nil {
				return userError(err)
			}
			if err := ctl.OpenCreate(); err != nil {
				return err
			}
			fields := map[string]string{
				listctl.FieldBranchID:   strconv.Itoa(f.branchID),
				listctl.FieldBranchName: f.branchName,
				listctl.FieldGateName:   f.gateName,
			}
			if f.id > 0 {
				fields[listctl.FieldID] = strconv.Itoa(f.id)
			}
			for field, value := range fields {
				if err := ctl.UpdateDraft(field, value); err != nil {
					return err
				}
			}
			id := ctl.State().Draft.ID
			if err := ctl.Submit(); err != nil {
				if s := ctl.State(); s.Modal == listctl.ModalCreate && s.Draft.ID != id {
					return fmt.Errorf("%w; next free id is %s", userError(err), s.Draft.ID)
				}
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created gate %s\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newGatesUpdateCmd(c *cli) *cobra.Command {
	var f gateFlags
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a gate record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.id <= 0 || f.branchID <= 0 {
				return errors.New("--id and --branch-id must be positive")
			}
			g := gatemaster.GateMaster{ID: f.id, BranchID: f.branchID, BranchName: f.branchName, GateName: f.gateName}
			if err := gatemaster.NewService(c.api).Update(cmd.Context(), g); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated gate %s\n", g.Key())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newGatesDeleteCmd(c *cli) *cobra.Command {
	var id, branchID int
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a gate by (id, branch id)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := gatemaster.NewService(c.api).Delete(cmd.Context(), id, branchID); err != nil {
				if errors.Is(err, gatemaster.ErrMissingKey) {
					return errors.New("--id and --branch-id are both required")
				}
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted gate %d-%d\n", branchID, id)
			return nil
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "gate id")
	cmd.Flags().IntVar(&branchID, "branch-id", 0, "branch id (IdCabang)")
	return cmd
}

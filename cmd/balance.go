package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var balanceCMD = &cobra.Command{
	Use:   "balance <account> [cash] [bank]",
	Short: "show an account's balances, or set them when amounts are given",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account id: %w", err)
		}
		amounts := make([]decimal.Decimal, 0, 2)
		for _, a := range args[1:] {
			d, err := decimal.NewFromString(a)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", a, err)
			}
			amounts = append(amounts, d)
		}

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		if len(amounts) > 0 {
			if err = app.Ledger.SetCash(ctx, id, amounts[0]); err != nil {
				return err
			}
		}
		if len(amounts) > 1 {
			if err = app.Ledger.SetBank(ctx, id, amounts[1]); err != nil {
				return err
			}
		}

		cash, err := app.Ledger.Cash(ctx, id)
		if err != nil {
			return err
		}
		bank, err := app.Ledger.Bank(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cash: %s\nbank: %s\n",
			app.Ledger.FormatAmount(cash), app.Ledger.FormatAmount(bank))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCMD)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrdersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Track your orders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := c.orders.ListOrders(cmd.Context(), c.userID)
			if err != nil {
				return err
			}
			renderOrders(c.out, c.styles, orders)
			return nil
		},
	}

	var yes bool
	cancel := &cobra.Command{
		Use:   "cancel <order>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID("order", args[0])
			if err != nil {
				return err
			}
			ok, err := c.confirmer(yes).Confirm(cmd.Context(), fmt.Sprintf("Cancel order %d?", orderID))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(c.out, c.styles.muted.Render("Nothing was changed."))
				return nil
			}

			order, err := c.orders.CancelOrder(cmd.Context(), c.userID, orderID)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.styles.success.Render(fmt.Sprintf("Order %s is %s.", order.OrderNumber, order.Status)))
			return nil
		},
	}
	cancel.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	cmd.AddCommand(list, cancel)
	return cmd
}

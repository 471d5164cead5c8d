package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, raw)
	}
	return id, nil
}

func newCartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change your cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.show(c.cart.FetchCart(cmd.Context(), c.userID))
		},
	}

	set := &cobra.Command{
		Use:   "set <item> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			return c.show(c.cart.SetQuantity(cmd.Context(), c.userID, itemID, args[1]))
		},
	}

	add := &cobra.Command{
		Use:   "add <product> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			quantity := 1
			if len(args) == 2 {
				if quantity, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid quantity: %q", args[1])
				}
			}
			return c.show(c.cart.AddItem(cmd.Context(), c.userID, productID, quantity))
		},
	}

	var removeYes bool
	remove := &cobra.Command{
		Use:   "remove <item>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			return c.show(c.cart.RemoveItem(cmd.Context(), c.userID, itemID, c.confirmer(removeYes)))
		},
	}
	remove.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")

	var clearYes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every line from the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.show(c.cart.ClearCart(cmd.Context(), c.userID, c.confirmer(clearYes)))
		},
	}
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")

	cmd.AddCommand(show, set, add, remove, clearCmd)
	return cmd
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}

func parseQuantity(s string) (int, error) {
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return q, nil
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func (c *cli) productsCmd() *cobra.Command {
	var (
		search  string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			load := c.app.Catalog.Fetch
			if refresh {
				load = c.app.Catalog.Refresh
			}
			if err := load(ctx); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tALLERGENS")
			for _, p := range c.app.Catalog.Search(search) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, money(p.Price), p.Allergens)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the catalog cache")
	return cmd
}

// cartAction runs op against a freshly fetched cart and prints the result.
func (c *cli) cartAction(use, short string, args cobra.PositionalArgs, op func(cmd *cobra.Command, s *cart.Synchronizer, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			if err := c.app.Cart.Fetch(cmd.Context()); err != nil {
				return err
			}
			if err := op(cmd, c.app.Cart, argv); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), c.app.Cart.Lines())
			return nil
		},
	}
}

func (c *cli) cartCmd() *cobra.Command {
	cmd := c.cartAction("cart", "Show the cart", cobra.NoArgs,
		func(*cobra.Command, *cart.Synchronizer, []string) error { return nil })

	withID := func(fn func(cmd *cobra.Command, s *cart.Synchronizer, id int64) error) func(*cobra.Command, *cart.Synchronizer, []string) error {
		return func(cmd *cobra.Command, s *cart.Synchronizer, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return fn(cmd, s, id)
		}
	}

	cmd.AddCommand(
		c.cartAction("add PRODUCT_ID [QUANTITY]", "Add a product to the cart", cobra.RangeArgs(1, 2),
			func(cmd *cobra.Command, s *cart.Synchronizer, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				qty := 1
				if len(args) == 2 {
					if qty, err = parseQuantity(args[1]); err != nil {
						return err
					}
				}
				return s.Add(cmd.Context(), id, qty)
			}),
		c.cartAction("set PRODUCT_ID QUANTITY", "Set a line's quantity; 0 removes it", cobra.ExactArgs(2),
			func(cmd *cobra.Command, s *cart.Synchronizer, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				qty, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				return s.SetQuantity(cmd.Context(), id, qty)
			}),
		c.cartAction("inc PRODUCT_ID", "Add one unit", cobra.ExactArgs(1),
			withID(func(cmd *cobra.Command, s *cart.Synchronizer, id int64) error {
				return s.Increment(cmd.Context(), id)
			})),
		c.cartAction("dec PRODUCT_ID", "Remove one unit", cobra.ExactArgs(1),
			withID(func(cmd *cobra.Command, s *cart.Synchronizer, id int64) error {
				return s.Decrement(cmd.Context(), id)
			})),
		c.cartAction("remove PRODUCT_ID", "Remove a line", cobra.ExactArgs(1),
			withID(func(cmd *cobra.Command, s *cart.Synchronizer, id int64) error {
				return s.Remove(cmd.Context(), id)
			})),
		c.cartAction("clear", "Empty the cart", cobra.NoArgs,
			func(cmd *cobra.Command, s *cart.Synchronizer, _ []string) error {
				return s.Clear(cmd.Context())
			}),
	)
	return cmd
}

func (c *cli) checkoutCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Review the order and, with --yes, place it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			summary, err := c.app.Checkout.Prepare(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSummary(w, summary)
			if !confirm {
				fmt.Fprintln(w, "\nRun again with --yes to place the order.")
				return nil
			}

			orderID, err := c.app.Checkout.PlaceOrder(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nOrder #%d placed.\n", orderID)
			c.app.Checkout.Acknowledge()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Place the order")
	return cmd
}

func (c *cli) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders [ORDER_ID]",
		Short: "List past orders or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Orders.Fetch(cmd.Context()); err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid order id %q", args[0])
				}
				o, ok := c.app.Orders.Find(id)
				if !ok {
					return fmt.Errorf("order %d not found", id)
				}
				printOrder(w, o)
				return nil
			}

			list := c.app.Orders.Orders()
			if len(list) == 0 {
				fmt.Fprintln(w, "No orders yet.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tSTATUS\tITEMS\tTOTAL")
			for _, o := range list {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", o.OrderID, o.Status, o.ItemCount(), money(o.TotalPrice))
			}
			return tw.Flush()
		},
	}
}

func printCart(w io.Writer, lines []domain.CartLine) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, money(l.UnitPrice), money(l.LineTotal()))
	}
	fmt.Fprintf(tw, "\t\t\t\t%s\n", money(domain.TotalPrice(lines)))
	_ = tw.Flush()
}

func printSummary(w io.Writer, s domain.CheckoutSummary) {
	printCart(w, s.Lines)
	fmt.Fprintf(w, "\nSubtotal:  %s\n", money(s.Subtotal))
	fmt.Fprintf(w, "Shipping:  %s\n", money(s.ShippingFee))
	fmt.Fprintf(w, "Total:     %s\n", money(s.GrandTotal))
	fmt.Fprintf(w, "Payment:   %s\n", s.PaymentMethod)
	fmt.Fprintf(w, "Ship to:   %s\n", indent(s.ShippingAddress))
	if s.ContactNumber != "" {
		fmt.Fprintf(w, "Contact:   %s\n", s.ContactNumber)
	}
}

func printOrder(w io.Writer, o domain.Order) {
	fmt.Fprintf(w, "Order #%d (%s)\n", o.OrderID, o.Status)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE")
	for _, it := range o.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", it.ProductID, it.ProductName, it.Quantity, money(it.Price))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Total:     %s\n", money(o.TotalPrice))
	fmt.Fprintf(w, "Payment:   %s\n", o.PaymentMethod)
	fmt.Fprintf(w, "Ship to:   %s\n", indent(o.ShippingAddress))
	if o.ContactNumber != "" {
		fmt.Fprintf(w, "Contact:   %s\n", o.ContactNumber)
	}
}

func indent(multiline string) string {
	return strings.ReplaceAll(multiline, "\n", "\n           ")
}

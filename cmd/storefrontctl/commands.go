package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/validation"
	"strconv"
)

func intArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, args[i])
	}
	return n, nil
}

func (a *app) printSession(token string, user *entity.User) {
	fmt.Fprintf(a.out, "Signed in as %s %s <%s> (%s)\n", user.FirstName, user.LastName, user.Email, user.Role)
	fmt.Fprintf(a.out, "export STOREFRONT_TOKEN=%s\n", token)
}

func (a *app) registerCmd() *cobra.Command {
	req := validation.Register{}
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ConfirmPassword = req.Password
			req.Role = entity.Role(role)
			s, err := a.client.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printSession(s.Token, s.User)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&role, "role", "", "customer, vendor or admin")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	req := validation.Login{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printSession(s.Token, s.User)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session of the current token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(a.out, "Not signed in")
				return nil
			}
			fmt.Fprintf(a.out, "%s %s <%s> (%s)\n", user.FirstName, user.LastName, user.Email, user.Role)
			return nil
		},
	}
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			renderCategories(a.out, categories)
			return nil
		},
	}
}

func (a *app) productsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Browse the catalog"}

	var q catalog.Query
	var sort string
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Sort = catalog.ParseSort(sort)
			products, err := a.client.Products(cmd.Context(), q)
			if err != nil {
				return err
			}
			renderProducts(a.out, products)
			return nil
		},
	}
	list.Flags().StringVar(&q.Search, "search", "", "match name or description")
	list.Flags().IntVar(&q.CategoryID, "category", 0, "category id")
	list.Flags().StringVar(&sort, "sort", string(catalog.SortNewest), "newest, price-low, price-high or rating")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "ID")
			if err != nil {
				return err
			}
			product, err := a.client.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderProduct(a.out, product)
			return nil
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (a *app) showCart(cmd *cobra.Command) error {
	items, err := a.client.CartItems(cmd.Context())
	if err != nil {
		return err
	}
	summary, err := a.client.CartSummary(cmd.Context())
	if err != nil {
		return err
	}
	renderCart(a.out, items, summary)
	return nil
}

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Manage the shopping cart"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showCart(cmd)
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "PRODUCT_ID")
			if err != nil {
				return err
			}
			if _, err := a.client.AddToCart(cmd.Context(), validation.CartAdd{ProductID: id, Quantity: quantity}); err != nil {
				return err
			}
			return a.showCart(cmd)
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "how many")

	update := &cobra.Command{
		Use:   "update LINE_ID QUANTITY",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "LINE_ID")
			if err != nil {
				return err
			}
			qty, err := intArg(args, 1, "QUANTITY")
			if err != nil {
				return err
			}
			if _, err := a.client.UpdateCartItem(cmd.Context(), id, qty); err != nil {
				return err
			}
			return a.showCart(cmd)
		},
	}

	rm := &cobra.Command{
		Use:   "rm LINE_ID",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "LINE_ID")
			if err != nil {
				return err
			}
			return a.client.RemoveFromCart(cmd.Context(), id)
		},
	}

	clearCart := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.ClearCart(cmd.Context())
		},
	}

	cmd.AddCommand(show, add, update, rm, clearCart)
	return cmd
}

func (a *app) checkoutCmd() *cobra.Command {
	var addr entity.ShippingAddress
	var payment validation.Payment
	var method, key string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.client.CartItems(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("the cart is empty")
			}

			req := validation.PlaceOrder{ShippingAddress: addr, PaymentMethod: entity.PaymentMethod(method)}
			for _, it := range items {
				req.Items = append(req.Items, validation.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
			}
			if req.PaymentMethod == entity.PaymentCard {
				req.Payment = &payment
			}

			order, err := a.client.PlaceOrder(cmd.Context(), req, key)
			if err != nil {
				return err
			}
			renderOrder(a.out, order)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr.FirstName, "first-name", "", "recipient first name")
	f.StringVar(&addr.LastName, "last-name", "", "recipient last name")
	f.StringVar(&addr.Address, "address", "", "street address")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.State, "state", "", "state")
	f.StringVar(&addr.ZipCode, "zip", "", "ZIP code")
	f.StringVar(&method, "payment", string(entity.PaymentCard), "card or paypal")
	f.StringVar(&payment.CardNumber, "card-number", "", "card number")
	f.StringVar(&payment.ExpiryDate, "expiry", "", "card expiry, MM/YY")
	f.StringVar(&payment.CVV, "cvv", "", "card security code")
	f.StringVar(&key, "idempotency-key", "", "reuse to retry without ordering twice")
	return cmd
}

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Order history"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := a.client.Orders(cmd.Context())
			if err != nil {
				return err
			}
			renderOrders(a.out, orders)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "ID")
			if err != nil {
				return err
			}
			order, err := a.client.Order(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderOrder(a.out, order)
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a pending or processing order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "ID")
			if err != nil {
				return err
			}
			order, err := a.client.CancelOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderOrder(a.out, order)
			return nil
		},
	}

	reorder := &cobra.Command{
		Use:   "reorder ID",
		Short: "Put a delivered order's products back in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "ID")
			if err != nil {
				return err
			}
			res, err := a.client.Reorder(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, name := range res.Skipped {
				fmt.Fprintf(a.out, "Skipped %s: out of stock or removed\n", name)
			}
			return a.showCart(cmd)
		},
	}

	status := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move an order to a new status (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "ID")
			if err != nil {
				return err
			}
			order, err := a.client.UpdateOrderStatus(cmd.Context(), id, entity.OrderStatus(args[1]))
			if err != nil {
				return err
			}
			renderOrder(a.out, order)
			return nil
		},
	}

	cmd.AddCommand(list, get, cancel, reorder, status)
	return cmd
}

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Admin dashboard"}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show revenue, order, user and product totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			renderStats(a.out, stats)
			return nil
		},
	})
	return cmd
}

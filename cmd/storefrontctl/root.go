package main

import (
	"fmt"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"io"
	"os"
	"storefront/internal/client"
)

type app struct {
	server string
	token  string
	out    io.Writer
	errOut io.Writer
	client *client.Client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Browse the catalog, manage a cart and place orders on a storefront server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			a.client = client.New(a.server,
				client.WithToken(a.token),
				client.WithNotifier(client.NotifierFunc(a.notify)))
		},
	}
	root.PersistentFlags().StringVar(&a.server, "server", envOr("STOREFRONT_SERVER", "http://localhost:8080"), "server base URL (env STOREFRONT_SERVER)")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv("STOREFRONT_TOKEN"), "bearer token (env STOREFRONT_TOKEN)")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.categoriesCmd(),
		a.productsCmd(),
		a.cartCmd(),
		a.checkoutCmd(),
		a.ordersCmd(),
		a.adminCmd(),
	)
	return root
}

func (a *app) notify(n client.Notification) {
	title := n.Title
	if n.Variant == client.VariantDestructive {
		title = text.FgRed.Sprint(title)
	} else {
		title = text.FgGreen.Sprint(title)
	}
	fmt.Fprintf(a.errOut, "%s: %s\n", title, n.Description)
}

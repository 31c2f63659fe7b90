// Command storefront is a terminal client for the shop API: sign in, browse
// the catalog, manage the cart and place orders.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const (
	Version = "0.1.0"
	appName = "storefront"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", api.Message(err))
		os.Exit(1)
	}
}

// cli holds the application shared by every subcommand of one invocation.
type cli struct {
	envFile string
	app     *app.App
}

func rootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Terminal storefront client",
		Long: `storefront talks to the shop API on your behalf.

Credentials are kept encrypted in a local SQLite file between runs
(STOREFRONT_SECRET_DB, STOREFRONT_SECRET_PASSPHRASE). Settings are read
from the environment and an optional .env file.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}
	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", "", "Env file to load (default .env)")

	cmd.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.productsCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
		c.profileCmd(),
		&cobra.Command{
			Use:              "version",
			Short:            "Print version information",
			PersistentPreRun: func(*cobra.Command, []string) {},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if c.envFile != "" {
		files = append(files, c.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Service: appName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	c.app, err = app.New(cmd.Context(), cfg, log)
	return err
}

func (c *cli) teardown(*cobra.Command, []string) error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

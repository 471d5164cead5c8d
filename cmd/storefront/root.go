package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justinloleng/ecommerce/internal/backend"
	"github.com/justinloleng/ecommerce/internal/config"
	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/event"
	"github.com/justinloleng/ecommerce/internal/repository/memory"
	"github.com/justinloleng/ecommerce/internal/service"
	"github.com/justinloleng/ecommerce/pkg/httpclient"
	"github.com/justinloleng/ecommerce/pkg/logger"
	"github.com/justinloleng/ecommerce/pkg/money"
)

// errReported ends a command whose failure is already on screen.
var errReported = errors.New("reported")

// cli holds what every command needs once flags and environment are read.
type cli struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.ClientConfig
	userID int64
	styles styles
	logger *slog.Logger

	cart    *service.Reconciler
	orders  *service.OrderService
	catalog *service.CatalogService
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}

	var (
		apiURL  string
		userID  int64
		noColor bool
	)

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Manage your cart and orders from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("user") {
				cfg.UserID = userID
			}
			if noColor {
				cfg.NoColor = true
			}
			return c.setup(cfg)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "storefront API base URL (default $STOREFRONT_CLI_API_URL)")
	root.PersistentFlags().Int64Var(&userID, "user", 0, "shopper id (default $STOREFRONT_CLI_USER_ID)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newCartCmd(c),
		newProductsCmd(c),
		newOrdersCmd(c),
	)
	return root
}

// setup builds the services for one invocation. Sessions live in memory
// for the lifetime of the process.
func (c *cli) setup(cfg *config.ClientConfig) error {
	if cfg.UserID <= 0 {
		return fmt.Errorf("a shopper id is required: pass --user or set %sUSER_ID", config.ClientPrefix)
	}

	c.cfg = cfg
	c.userID = cfg.UserID
	c.styles = newStyles(!cfg.NoColor)
	c.logger = logger.NewText(cfg.LogLevel, c.errOut)

	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = cfg.Timeout
	api := backend.New(httpclient.New(hcfg), cfg.APIURL, c.logger)

	calc := domain.TotalCalculator{
		ShippingFee:             money.Cents(cfg.ShippingFeeCents),
		ChargeShippingWhenEmpty: cfg.ShippingOnEmptyCart,
	}
	c.cart = service.NewReconciler(api, api, memory.NewSessionRepository(), event.Discard{}, calc, c.logger)
	c.orders = service.NewOrderService(api, event.Discard{}, c.logger, 0)
	c.catalog = service.NewCatalogService(api, c.logger)
	return nil
}

// confirmer asks on the terminal unless yes was given up front.
func (c *cli) confirmer(yes bool) service.Confirmer {
	if yes {
		return service.Preconfirmed(true)
	}
	return service.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(c.out, "%s [y/N] ", prompt)
		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

// show renders view and turns err into the command result. A declined
// confirmation is not a failure.
func (c *cli) show(view *domain.CartView, err error) error {
	if errors.Is(err, domain.ErrConfirmationRequired) {
		fmt.Fprintln(c.out, c.styles.muted.Render("Nothing was changed."))
		return nil
	}
	renderCart(c.out, c.styles, view)
	if err == nil {
		return nil
	}
	if view != nil && view.Notice != "" {
		return errReported
	}
	return err
}

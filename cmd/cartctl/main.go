// Command cartctl manages a local shopping cart and checks it out against the
// storefront API.
//
//	cartctl add [-qty N] [-size S] [-color C] <product-id>
//	cartctl update [-size S] [-color C] <product-id> <qty>
//	cartctl remove [-size S] [-color C] <product-id>
//	cartctl clear
//	cartctl show
//	cartctl checkout -name N -phone P -address A [-notes T] [-email E -password P]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/pkg/cart"
	"storefront/pkg/client"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const usage = `usage: cartctl <command> [flags] [args]

commands:
  add       add a product line (merges with an identical line)
  update    set the quantity of a line, 0 removes it
  remove    remove a line
  clear     empty the cart
  show      list lines with current prices and totals
  checkout  place an order for the cart and clear it
`

func main() {
	v := config.New()
	logger.Init(v.GetString("APP_ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.LoadCart(v), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "cartctl:", err)
		os.Exit(1)
	}
}

type cli struct {
	store *cart.Store
	api   *client.Client
	token string
	out   io.Writer
}

func run(ctx context.Context, cfg *config.CartConfig, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return flag.ErrHelp
	}

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return fmt.Errorf("invalid CART_FREE_SHIPPING_THRESHOLD: %w", err)
	}
	fee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return fmt.Errorf("invalid CART_SHIPPING_FEE: %w", err)
	}

	c := &cli{
		store: cart.NewStore(storage,
			cart.WithFreeShippingThreshold(threshold),
			cart.WithShippingFee(fee),
			cart.WithLogger(logger.L().Named("cart")),
		),
		api:   client.New(cfg.APIURL, nil),
		token: cfg.Token,
		out:   out,
	}
	return c.exec(ctx, args[0], args[1:])
}

func openStorage(ctx context.Context, cfg *config.CartConfig) (cart.Storage, func(), error) {
	switch cfg.Storage {
	case "", "file":
		return cart.NewFileStorage(cfg.Dir), func() {}, nil
	case "redis":
		rdb, err := cart.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return cart.NewRedisStorage(rdb, "cart:", 0), func() { rdb.Close() }, nil
	case "memory":
		return cart.NewMemoryStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown CART_STORAGE %q", cfg.Storage)
	}
}

func variantFlags(fs *flag.FlagSet) func() *cart.Variant {
	size := fs.String("size", "", "variant size")
	color := fs.String("color", "", "variant color")
	return func() *cart.Variant {
		if *size == "" && *color == "" {
			return nil
		}
		return &cart.Variant{Size: *size, Color: *color}
	}
}

func (c *cli) exec(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(c.out)

	switch cmd {
	case "add":
		qty := fs.Int("qty", 1, "quantity")
		variant := variantFlags(fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("add takes exactly one product id")
		}
		lines, err := c.store.AddLine(ctx, fs.Arg(0), *qty, variant())
		if err != nil {
			return err
		}
		return c.printLines(lines)

	case "update":
		variant := variantFlags(fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return errors.New("update takes a product id and a quantity")
		}
		qty, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid quantity %q", fs.Arg(1))
		}
		lines, err := c.store.UpdateQuantity(ctx, fs.Arg(0), qty, variant())
		if err != nil {
			return err
		}
		return c.printLines(lines)

	case "remove":
		variant := variantFlags(fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("remove takes exactly one product id")
		}
		lines, err := c.store.RemoveLine(ctx, fs.Arg(0), variant())
		if err != nil {
			return err
		}
		return c.printLines(lines)

	case "clear":
		if err := c.store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "cart cleared")
		return nil

	case "show":
		return c.show(ctx)

	case "checkout":
		var ship cart.Shipping
		fs.StringVar(&ship.Name, "name", "", "recipient name")
		fs.StringVar(&ship.Phone, "phone", "", "recipient phone")
		fs.StringVar(&ship.Address, "address", "", "delivery address")
		fs.StringVar(&ship.Notes, "notes", "", "order notes")
		email := fs.String("email", "", "log in with this email instead of CART_TOKEN")
		password := fs.String("password", "", "password for -email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return c.checkout(ctx, ship, *email, *password)

	default:
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) printLines(lines []cart.Line) error {
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tVARIANT\tQTY")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\n", l.ProductID, variantLabel(l.Variant), l.Quantity)
	}
	return w.Flush()
}

func variantLabel(v *cart.Variant) string {
	switch {
	case v == nil:
		return "-"
	case v.Size != "" && v.Color != "":
		return v.Size + "/" + v.Color
	case v.Size != "":
		return v.Size
	default:
		return v.Color
	}
}

func (c *cli) show(ctx context.Context) error {
	lines, err := c.store.Lines(ctx)
	if err != nil {
		return err
	}
	if err := c.printLines(lines); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	totals, err := c.store.Totals(ctx, c.api)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nsubtotal: %s\nshipping: %s\ntotal:    %s\n",
		totals.Subtotal.StringFixed(2), totals.Shipping.StringFixed(2), totals.Total.StringFixed(2))
	for _, id := range totals.Unpriced {
		fmt.Fprintf(c.out, "warning: no price for %s\n", id)
	}
	return nil
}

func (c *cli) checkout(ctx context.Context, ship cart.Shipping, email, password string) error {
	req, err := c.store.CheckoutRequest(ctx, ship)
	if err != nil {
		return err
	}

	token := c.token
	if email != "" {
		token, err = c.api.Login(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}
	if token == "" {
		return errors.New("checkout needs CART_TOKEN or -email/-password")
	}

	order, err := c.api.PlaceOrder(ctx, token, req)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.ProductID != "" {
			return fmt.Errorf("checkout rejected for product %s: %s", apiErr.ProductID, apiErr.Message)
		}
		return err
	}

	if err := c.store.Clear(ctx); err != nil {
		logger.L().Warn("order placed but cart could not be cleared",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
	fmt.Fprintf(c.out, "order %s placed, total %s, status %s\n",
		order.OrderNumber, order.Total.StringFixed(2), order.Status)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitelangsirat/deswita-backend/internal/cart"
	"github.com/sitelangsirat/deswita-backend/internal/datacontext"
	"github.com/sitelangsirat/deswita-backend/internal/gateway"
	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

const whatsappNumber = "6285229312990"

type options struct {
	api      string
	token    string
	snapshot string
	timeout  time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.api, "api", envOr("DESWITA_API", "http://localhost:3000"), "API base URL")
	flag.StringVar(&opts.token, "token", os.Getenv("DESWITA_TOKEN"), "admin bearer token")
	flag.StringVar(&opts.snapshot, "snapshot", "", "directory with legacy products/articles/events JSON used for seeding")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Output = "stderr"
	logCfg.Component = "siteadmin"
	log := logger.New(logCfg)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := run(ctx, opts, flag.Args(), os.Stdout); err != nil {
		log.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Deswita content admin\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] stats\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] list <products|articles|events>\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] add <collection> <file.json>\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] update <collection> <file.json>\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] delete <collection> <id>\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] upload <image>\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] login <username> <password>\n")
	fmt.Fprintf(os.Stderr, "  siteadmin [flags] checkout <name> <address> <product-id>...\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, opts options, args []string, out io.Writer) error {
	gw := gateway.New(opts.api, gateway.WithToken(opts.token))

	cmd, args := args[0], args[1:]
	switch cmd {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		token, err := gw.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, token)
		return nil
	case "upload":
		if len(args) != 1 {
			return fmt.Errorf("usage: upload <image>")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		url, err := gw.Upload(ctx, filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, url)
		return nil
	}

	var ctxOpts []datacontext.Option
	if opts.snapshot != "" {
		ctxOpts = append(ctxOpts, datacontext.WithSnapshot(opts.snapshot))
	}
	data, err := datacontext.New(gw, ctxOpts...)
	if err != nil {
		return err
	}
	if err := data.Load(ctx); err != nil {
		return err
	}

	switch cmd {
	case "stats":
		fmt.Fprintf(out, "products\t%d\narticles\t%d\nevents\t%d\n",
			len(data.Products()), len(data.Articles()), len(data.Events()))
		return nil
	case "list":
		if len(args) != 1 {
			return fmt.Errorf("usage: list <collection>")
		}
		return list(data, content.Collection(args[0]), out)
	case "add", "update":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <collection> <file.json>", cmd)
		}
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return save(ctx, data, cmd == "add", content.Collection(args[0]), raw, out)
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: delete <collection> <id>")
		}
		if err := remove(ctx, data, content.Collection(args[0]), args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", args[1])
		return nil
	case "checkout":
		if len(args) < 3 {
			return fmt.Errorf("usage: checkout <name> <address> <product-id>...")
		}
		var c cart.Cart
		for _, id := range args[2:] {
			p, ok := data.ProductByID(id)
			if !ok {
				return fmt.Errorf("unknown product %q", id)
			}
			c.Add(p)
		}
		fmt.Fprintln(out, cart.CheckoutURL(whatsappNumber, cart.Customer{Name: args[0], Address: args[1]}, c.Items()))
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(data *datacontext.Context, c content.Collection, out io.Writer) error {
	var v any
	switch c {
	case content.Products:
		v = data.Products()
	case content.Articles:
		v = data.Articles()
	case content.Events:
		v = data.Events()
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// save decodes raw as an entity of collection c and adds or updates it.
// New entities without an id get one here, as the admin forms do.
func save(ctx context.Context, data *datacontext.Context, isNew bool, c content.Collection, raw []byte, out io.Writer) error {
	now := time.Now()
	var id string
	switch c {
	case content.Products:
		var p content.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if err := validateProduct(p); err != nil {
			return err
		}
		p.Normalize()
		if p.Image == "" {
			p.Image = p.PrimaryImage()
		}
		if len(p.Sizes) > 0 {
			p.Size = p.Sizes[0]
		}
		if isNew && p.ID == "" {
			p.ID = content.NewID("p", now)
		}
		id = p.ID
		if isNew {
			return report(out, "added", id, data.AddProduct(ctx, p))
		}
		return report(out, "updated", id, data.UpdateProduct(ctx, p))
	case content.Articles:
		var a content.Article
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		if a.ISODate != "" {
			display, err := content.DisplayDate(a.ISODate)
			if err != nil {
				return err
			}
			a.Date = display
		}
		if isNew && a.ID == "" {
			a.ID = content.NewID("a", now)
		}
		id = a.ID
		if isNew {
			return report(out, "added", id, data.AddArticle(ctx, a))
		}
		return report(out, "updated", id, data.UpdateArticle(ctx, a))
	case content.Events:
		var e content.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		if e.ISODate != "" {
			display, err := content.DisplayDate(e.ISODate)
			if err != nil {
				return err
			}
			e.Date = display
		}
		if isNew && e.ID == "" {
			e.ID = content.NewID("e", now)
		}
		id = e.ID
		if isNew {
			return report(out, "added", id, data.AddEvent(ctx, e))
		}
		return report(out, "updated", id, data.UpdateEvent(ctx, e))
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
}

func validateProduct(p content.Product) error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if p.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	switch p.Category {
	case content.CategoryDrink, content.CategoryCare, content.CategorySeed:
	default:
		return fmt.Errorf("category must be Drink, Care or Seed, got %q", p.Category)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func remove(ctx context.Context, data *datacontext.Context, c content.Collection, id string) error {
	switch c {
	case content.Products:
		return data.DeleteProduct(ctx, id)
	case content.Articles:
		return data.DeleteArticle(ctx, id)
	case content.Events:
		return data.DeleteEvent(ctx, id)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
}

func report(out io.Writer, verb, id string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", id, err)
	}
	fmt.Fprintf(out, "%s %s\n", verb, id)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/agentdeck/agentdeck/internal/adapter/postgres"
	"github.com/agentdeck/agentdeck/internal/adapter/ristretto"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/apikey"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/service"
)

// runAdmin dispatches admin subcommands (create-key, list-keys, revoke-key,
// seed-pricing, rebuild-buckets, verify-buckets).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-key":
		return runAdminCreateKey(args[1:])
	case "list-keys":
		return runAdminListKeys(args[1:])
	case "revoke-key":
		return runAdminRevokeKey(args[1:])
	case "seed-pricing":
		return runAdminSeedPricing(args[1:])
	case "rebuild-buckets":
		return runAdminRebuildBuckets(args[1:])
	case "verify-buckets":
		return runAdminVerifyBuckets(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: agentdeck admin <command> [options]

Commands:
  create-key       Mint a new API key
  list-keys        List API keys
  revoke-key       Revoke an API key
  seed-pricing     Insert the default pricing rows that are missing
  rebuild-buckets  Rebuild the daily cost buckets from stored activities
  verify-buckets   Compare stored daily buckets against a recomputation
  help             Show this help message

Examples:
  agentdeck admin create-key --name ci-ingest --scopes ingest
  agentdeck admin create-key --name ops --scopes read,admin --secret
  agentdeck admin revoke-key --id 2f6c0c0a-7c4d-4af0-9f38-1f14c151c899
  agentdeck admin verify-buckets --days 14
`)
}

// adminDeps bundles the store-backed services admin commands run against.
type adminDeps struct {
	store   *postgres.Store
	auth    *service.AuthService
	pricing *service.PricingService
}

func loadAdminDeps() (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// A local cache and an inert hub stand in for the server's; pricing
	// writes still invalidate and broadcast through the same code path.
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("cache: %w", err)
	}

	store := postgres.NewStore(pool)
	deps := &adminDeps{
		store:   store,
		auth:    service.NewAuthService(store, &cfg.Auth),
		pricing: service.NewPricingService(store, l1, ws.NewHub(), cfg.Cache.PricingTTL),
	}

	cleanup := func() {
		l1.Close()
		pool.Close()
	}
	return deps, cleanup, nil
}

func runAdminCreateKey(args []string) error {
	fs := flag.NewFlagSet("create-key", flag.ContinueOnError)
	name := fs.String("name", "", "key name (required)")
	scopes := fs.String("scopes", "", "comma-separated scopes: read, ingest, admin (required)")
	expiresIn := fs.Int("expires-in", 0, "expiry in seconds (0 = never)")
	withSecret := fs.Bool("secret", false, "prompt for an operator-chosen secret instead of generating one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *scopes == "" {
		return fmt.Errorf("--scopes is required")
	}

	req := &apikey.CreateRequest{
		Name:      *name,
		Scopes:    splitScopes(*scopes),
		ExpiresIn: *expiresIn,
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	var resp *apikey.CreateResponse
	if *withSecret {
		secret, perr := promptSecret("Secret: ")
		if perr != nil {
			return fmt.Errorf("read secret: %w", perr)
		}
		confirm, perr := promptSecret("Confirm secret: ")
		if perr != nil {
			return fmt.Errorf("read secret: %w", perr)
		}
		if secret != confirm {
			return fmt.Errorf("secrets do not match")
		}
		resp, err = deps.auth.MintKey(ctx, req, secret)
	} else {
		resp, err = deps.auth.CreateKey(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}

	fmt.Fprintf(os.Stderr, "API key created: %s (id=%s, scopes=%s)\n",
		resp.Key.Name, resp.Key.ID, strings.Join(resp.Key.Scopes, ","))
	fmt.Fprintln(os.Stderr, "The key below is shown exactly once; store it now.")
	fmt.Println(resp.PlainKey)
	return nil
}

func runAdminListKeys(args []string) error {
	fs := flag.NewFlagSet("list-keys", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	keys, err := deps.auth.List(context.Background())
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found.")
		return nil
	}

	now := time.Now().UTC()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tPREFIX\tSCOPES\tCREATED\tSTATUS")
	for i := range keys {
		k := &keys[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			k.ID, k.Name, k.Prefix, strings.Join(k.Scopes, ","),
			k.CreatedAt.Format("2006-01-02"), keyStatus(k, now))
	}
	return w.Flush()
}

func runAdminRevokeKey(args []string) error {
	fs := flag.NewFlagSet("revoke-key", flag.ContinueOnError)
	id := fs.String("id", "", "key id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.auth.Revoke(context.Background(), *id); err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}

	fmt.Fprintf(os.Stderr, "API key %s revoked.\n", *id)
	return nil
}

func runAdminSeedPricing(args []string) error {
	fs := flag.NewFlagSet("seed-pricing", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := deps.pricing.Seed(context.Background())
	if err != nil {
		return fmt.Errorf("seed pricing: %w", err)
	}

	if n == 0 {
		fmt.Println("Pricing already seeded.")
		return nil
	}
	fmt.Printf("Seeded %d pricing entries.\n", n)
	return nil
}

func runAdminRebuildBuckets(args []string) error {
	fs := flag.NewFlagSet("rebuild-buckets", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := deps.store.RebuildDailyBuckets(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild buckets: %w", err)
	}

	fmt.Printf("Rebuilt daily buckets from %d activities.\n", n)
	return nil
}

func runAdminVerifyBuckets(args []string) error {
	fs := flag.NewFlagSet("verify-buckets", flag.ContinueOnError)
	days := fs.Int("days", 30, "trailing window to verify")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days < 1 {
		return fmt.Errorf("--days must be positive")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	end := time.Now().UTC()
	start := cost.DayOf(end).AddDate(0, 0, -(*days - 1))

	stored, err := deps.store.ListDailyBuckets(ctx, start, end)
	if err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}
	recomputed, err := deps.store.AggregateDaily(ctx, start, end)
	if err != nil {
		return fmt.Errorf("aggregate activities: %w", err)
	}

	type pair struct {
		stored, recomputed cost.DailyBucket
	}
	byDay := make(map[time.Time]*pair)
	for _, b := range stored {
		byDay[b.Day] = &pair{stored: b}
	}
	for _, b := range recomputed {
		p, ok := byDay[b.Day]
		if !ok {
			p = &pair{}
			byDay[b.Day] = p
		}
		p.recomputed = b
	}

	var drifted []time.Time
	for day, p := range byDay {
		if p.stored.CostMicro != p.recomputed.CostMicro || p.stored.Activities != p.recomputed.Activities {
			drifted = append(drifted, day)
		}
	}

	if len(drifted) == 0 {
		fmt.Printf("Daily buckets verified over %d days: no drift.\n", *days)
		return nil
	}

	sort.Slice(drifted, func(i, j int) bool { return drifted[i].Before(drifted[j]) })
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DAY\tSTORED_USD\tRECOMPUTED_USD\tSTORED_ACTS\tRECOMPUTED_ACTS")
	for _, day := range drifted {
		p := byDay[day]
		_, _ = fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%d\t%d\n",
			day.Format("2006-01-02"),
			p.stored.CostMicro.USD(), p.recomputed.CostMicro.USD(),
			p.stored.Activities, p.recomputed.Activities)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return fmt.Errorf("%d of %d days drifted; run rebuild-buckets to reconcile", len(drifted), *days)
}

func splitScopes(raw string) []string {
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func keyStatus(k *apikey.Key, now time.Time) string {
	switch {
	case !k.RevokedAt.IsZero() && !now.Before(k.RevokedAt):
		return "revoked"
	case !k.ExpiresAt.IsZero() && now.After(k.ExpiresAt):
		return "expired"
	default:
		return "active"
	}
}

// promptSecret reads a secret from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)                         // newline after secret input
	if err != nil {
		return "", err
	}
	return string(b), nil
}

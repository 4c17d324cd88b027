// Command sellctl drives the SellApp API from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sellapp/sellapp/cmd/sellctl/cli"
	"github.com/sellapp/sellapp/internal/client"
)

type config struct {
	URL       string `envconfig:"SELLCTL_URL" default:"http://127.0.0.1:8080"`
	Token     string `envconfig:"SELLCTL_TOKEN"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	Verbose   bool   `envconfig:"SELLCTL_VERBOSE" default:"false"`
}

const usage = `usage: sellctl <command> [flags]

commands:
  login                  --email --password
  dashboard watch        [--company N] [--period week] [--from --to] [--interval 5m] [--once]
  sales list             [--company N] [--status PAID] [--method] [--search] [--from --to] [--page] [--limit]
  sales delete ID...
  audit export           [--company N] [--type sale|repair|swap] [--search] [--from --to] [--limit] [--out file.csv]
  backups run-scheduled
  backups stats
  jobs trigger NAME      backup:scheduled | dashboard:warmup
  jobs queues
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load()
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "sellctl: %v\n", err)
		return 2
	}
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if args[0] == "jobs" {
		return runJobs(ctx, cfg, args[1:], stdout, stderr)
	}

	c, err := client.New(cfg.URL, client.WithToken(cfg.Token), client.WithLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "sellctl: %v\n", err)
		return 2
	}
	ops := cli.NewOpsCLI(c)

	cmd := args[0]
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") && cmd != "login" {
		cmd += " " + args[1]
		args = args[1:]
	}
	fs := flag.NewFlagSet("sellctl "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOut := fs.Bool("json", false, "print JSON")
	out := func() cli.Output { return cli.Output{JSONOutput: *jsonOut, Stdout: stdout, Stderr: stderr} }

	switch cmd {
	case "login":
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		return ops.LoginCommand(ctx, cli.LoginOptions{Output: out(), Email: *email, Password: *password})

	case "dashboard watch":
		q := rangeFlags(fs)
		interval := fs.Duration("interval", client.DefaultRefreshInterval, "refresh interval")
		once := fs.Bool("once", false, "print once and exit")
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		return ops.WatchCommand(ctx, cli.DashboardOptions{Output: out(), Query: *q, Interval: *interval, Once: *once})

	case "sales list":
		var f client.SalesFilter
		fs.Int64Var(&f.CompanyID, "company", 0, "company id")
		fs.StringVar(&f.PaymentStatus, "status", "", "payment status")
		fs.StringVar(&f.PaymentMethod, "method", "", "payment method")
		fs.StringVar(&f.Search, "search", "", "search text")
		fs.StringVar(&f.From, "from", "", "from date YYYY-MM-DD")
		fs.StringVar(&f.To, "to", "", "to date YYYY-MM-DD")
		page := fs.Int("page", 1, "page")
		limit := fs.Int("limit", 20, "rows per page")
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		return ops.SalesListCommand(ctx, cli.SalesListOptions{Output: out(), Filter: f, Page: *page, Limit: *limit})

	case "sales delete":
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		ids, err := parseIDs(fs.Args())
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "sales delete: %v\n", err)
			return 2
		}
		return ops.SalesDeleteCommand(ctx, cli.SalesDeleteOptions{Output: out(), IDs: ids})

	case "audit export":
		var f client.AuditFilter
		fs.Int64Var(&f.CompanyID, "company", 0, "company id")
		fs.StringVar(&f.Kind, "type", "", "record type")
		fs.StringVar(&f.Search, "search", "", "search text")
		fs.StringVar(&f.From, "from", "", "from date YYYY-MM-DD")
		fs.StringVar(&f.To, "to", "", "to date YYYY-MM-DD")
		page := fs.Int("page", 1, "page")
		limit := fs.Int("limit", 100, "rows to export")
		path := fs.String("out", "", "output file, stdout when empty")
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		opts := cli.AuditExportOptions{Output: out(), Filter: f, Page: *page, Limit: *limit}
		if *path != "" {
			file, err := os.Create(*path)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "audit export: %v\n", err)
				return 1
			}
			defer file.Close()
			opts.Out = file
		}
		return ops.AuditExportCommand(ctx, opts)

	case "backups run-scheduled":
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		return ops.RunScheduledCommand(ctx, out())

	case "backups stats":
		if fs.Parse(args[1:]) != nil {
			return 2
		}
		return ops.BackupStatsCommand(ctx, out())
	}

	_, _ = fmt.Fprintf(stderr, "sellctl: unknown command %q\n\n%s", cmd, usage)
	return 2
}

func runJobs(ctx context.Context, cfg config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	ops := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		_ = ops.Close()
	}()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			_, _ = fmt.Fprintln(stderr, "jobs trigger: job name required")
			return 2
		}
		info, err := ops.Trigger(ctx, args[1])
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return 0
	case "queues":
		stats, err := ops.InspectQueues(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs queues: %v\n", err)
			return 1
		}
		for _, s := range stats {
			_, _ = fmt.Fprintf(stdout, "%-8s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
		}
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "sellctl: unknown jobs command %q\n", args[0])
	return 2
}

func rangeFlags(fs *flag.FlagSet) *client.RangeQuery {
	var q client.RangeQuery
	fs.Int64Var(&q.CompanyID, "company", 0, "company id, empty for the platform view")
	fs.StringVar(&q.Period, "period", "", "today, week, month or year")
	fs.StringVar(&q.From, "from", "", "from date YYYY-MM-DD")
	fs.StringVar(&q.To, "to", "", "to date YYYY-MM-DD")
	return &q
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, raw := range args {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid sale id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

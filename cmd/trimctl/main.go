package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"trimtrack/internal/client"
	"trimtrack/internal/domain"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: trimctl [flags] <command> [args]

commands:
  register <username> <password>
  login <username> <password>
  logout
  me
  add <value> [kg|lb] [YYYY-MM-DD]
  list [limit]
  latest [kg|lb]
  stats [kg|lb]
  target <value> [kg|lb]
  delete <id>
  chart [days] [kg|lb]
  profile
  metrics
  food <description>
  today
  diet
  plan
`

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".trimctl.json"
	}
	return filepath.Join(dir, "trimtrack", "trimctl.json")
}

func main() {
	server := flag.String("server", envOr("TRIMTRACK_URL", "http://localhost:8080"), "API base URL")
	storePath := flag.String("store", defaultStorePath(), "token store file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage); flag.PrintDefaults() }
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*server, client.NewFileStore(*storePath))
	out, err := run(context.Background(), c, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		if client.IsAuthExpired(err) {
			fmt.Fprintln(os.Stderr, "not logged in: run trimctl login")
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func unitArg(args []string, i int) (domain.Unit, error) {
	return domain.ParseUnit(arg(args, i), domain.Kilograms)
}

func need(args []string, n int, cmd string) error {
	if len(args) < n {
		return fmt.Errorf("%s: expected %d argument(s), see trimctl -h", cmd, n)
	}
	return nil
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) (any, error) {
	switch cmd {
	case "register":
		if err := need(args, 2, cmd); err != nil {
			return nil, err
		}
		return c.Register(ctx, client.RegisterRequest{Username: args[0], Password: args[1]})
	case "login":
		if err := need(args, 2, cmd); err != nil {
			return nil, err
		}
		return c.Login(ctx, args[0], args[1])
	case "logout":
		return nil, c.Logout(ctx)
	case "me":
		return c.Me(ctx)
	case "add":
		if err := need(args, 1, cmd); err != nil {
			return nil, err
		}
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("add: %w", err)
		}
		unit, err := unitArg(args, 1)
		if err != nil {
			return nil, err
		}
		return c.RecordWeight(ctx, value, unit, arg(args, 2), "")
	case "list":
		limit, _ := strconv.Atoi(arg(args, 0))
		return c.ListWeights(ctx, limit)
	case "latest":
		unit, err := unitArg(args, 0)
		if err != nil {
			return nil, err
		}
		return c.Latest(ctx, unit)
	case "stats":
		unit, err := unitArg(args, 0)
		if err != nil {
			return nil, err
		}
		return c.Stats(ctx, unit)
	case "target":
		if err := need(args, 1, cmd); err != nil {
			return nil, err
		}
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		unit, err := unitArg(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, c.SetTarget(ctx, value, unit)
	case "delete":
		if err := need(args, 1, cmd); err != nil {
			return nil, err
		}
		return nil, c.DeleteWeight(ctx, args[0])
	case "chart":
		days, err := strconv.Atoi(arg(args, 0))
		if err != nil || days <= 0 {
			days = 30
		}
		unit, err := unitArg(args, 1)
		if err != nil {
			return nil, err
		}
		return c.Chart(ctx, days, unit)
	case "profile":
		return c.Profile(ctx)
	case "metrics":
		return c.HealthMetrics(ctx)
	case "food":
		if err := need(args, 1, cmd); err != nil {
			return nil, err
		}
		return c.AnalyzeFood(ctx, args[0])
	case "today":
		return c.FoodToday(ctx)
	case "diet":
		return c.DietSuggestions(ctx)
	case "plan":
		return c.WeightLossPlan(ctx)
	}
	return nil, fmt.Errorf("unknown command %q, see trimctl -h", cmd)
}

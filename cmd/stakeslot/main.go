package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eigerco/stakeslot/internal/config"
	"github.com/eigerco/stakeslot/internal/crypto"
	"github.com/eigerco/stakeslot/internal/gate"
	"github.com/eigerco/stakeslot/internal/ledger"
	"github.com/eigerco/stakeslot/internal/migration"
	"github.com/eigerco/stakeslot/internal/store"
	"github.com/eigerco/stakeslot/pkg/db/pebble"
	"github.com/eigerco/stakeslot/pkg/log"
)

const usage = `usage: stakeslot [flags] <command> [args]

commands:
  gate                                     show which migration operations are available
  fund <wallet> <lamports>                 credit a funding wallet
  create <pool> <mint> <capacity> <payer>  create a rent funded stake entry
  inspect <address>                        show capacity, funding and tail state of a stake entry
  list                                     list stake entries with capacity and balance
  resize <address> <size> <payer>          resize a stake entry
  fill-zeros <address>                     zero the unused tail of a stake entry

flags:
`

var errUsage = errors.New("invalid usage")

// main runs one command against the account store.
// go run ./cmd/stakeslot -db ./data gate
func main() {
	if err := run(os.Args[1:], os.Stdout, prometheus.DefaultRegisterer, prometheus.DefaultGatherer); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.CLI.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	fs := flag.NewFlagSet("stakeslot", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "YAML config file")
	dbPath := fs.String("db", "", "account database directory, overrides the config file")
	logLevel := fs.String("log-level", "", "log level, overrides the config file")
	logJSON := fs.Bool("log-json", false, "log as JSON")
	metricsFile := fs.String("metrics-file", "", "write metrics in the text exposition format to this file after the command")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *dbPath != "" {
		cfg.DB = *dbPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logJSON {
		cfg.Log.Format = "json"
	}
	if err := initLogger(cfg.Log); err != nil {
		return err
	}

	cmd := fs.Args()
	if len(cmd) == 0 {
		fs.Usage()
		return errUsage
	}

	if cmd[0] == "gate" {
		return printGate(stdout, gate.Deployed)
	}

	kv, err := pebble.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open account database: %w", err)
	}
	accounts := store.NewAccounts(kv)
	defer accounts.Close() //nolint:errcheck

	executor := ledger.NewExecutor(
		accounts,
		migration.New(gate.Deployed, cfg.Rent),
		ledger.NewMetrics(reg),
	)
	log.CLI.Debug().Str("command", cmd[0]).Str("db", cfg.DB).Msg("running command")

	err = dispatch(executor, accounts, cmd, stdout)
	if *metricsFile != "" {
		// rejected and failed operations are counted too, so write even on error
		if werr := prometheus.WriteToTextfile(*metricsFile, gatherer); werr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", werr))
		}
	}
	return err
}

func initLogger(cfg config.Log) error {
	level, err := log.ParseLogLevel(cfg.Level)
	if err != nil {
		return err
	}
	typ, err := log.ParseLoggerType(cfg.Format)
	if err != nil {
		return err
	}
	log.Init(log.Options{LogLevel: level, Type: typ, Output: os.Stderr})
	return nil
}

func dispatch(executor *ledger.Executor, accounts *store.Accounts, cmd []string, stdout io.Writer) error {
	switch cmd[0] {
	case "fund":
		if len(cmd) != 3 {
			return fmt.Errorf("%w: fund <wallet> <lamports>", errUsage)
		}
		addr, err := crypto.ParseHash(cmd[1])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(cmd[2], 10, 64)
		if err != nil {
			return fmt.Errorf("parse lamports: %w", err)
		}
		wallet, err := executor.Fund(addr, amount)
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"wallet": addr.String(), "lamports": wallet.Lamports})

	case "create":
		if len(cmd) != 5 {
			return fmt.Errorf("%w: create <pool> <mint> <capacity> <payer>", errUsage)
		}
		pool, err := crypto.ParseHash(cmd[1])
		if err != nil {
			return err
		}
		mint, err := crypto.ParseHash(cmd[2])
		if err != nil {
			return err
		}
		capacity, err := strconv.Atoi(cmd[3])
		if err != nil {
			return fmt.Errorf("parse capacity: %w", err)
		}
		payer, err := crypto.ParseHash(cmd[4])
		if err != nil {
			return err
		}
		addr, err := executor.CreateEntry(pool, mint, capacity, payer)
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"address": addr.String()})

	case "inspect":
		if len(cmd) != 2 {
			return fmt.Errorf("%w: inspect <address>", errUsage)
		}
		addr, err := crypto.ParseHash(cmd[1])
		if err != nil {
			return err
		}
		in, err := executor.Inspect(addr)
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{
			"address":         in.Address.String(),
			"capacity":        in.Capacity,
			"used_size":       in.UsedSize,
			"balance":         in.Balance,
			"minimum_balance": in.MinimumBalance,
			"undersized":      in.Undersized,
			"tail_zeroed":     in.TailZeroed,
		})

	case "list":
		slots, err := accounts.Slots()
		if err != nil {
			return err
		}
		for _, s := range slots {
			fmt.Fprintf(stdout, "%s %d %d\n", s.Address, s.Slot.Capacity(), s.Slot.Balance)
		}
		return nil

	case "resize":
		if len(cmd) != 4 {
			return fmt.Errorf("%w: resize <address> <size> <payer>", errUsage)
		}
		addr, err := crypto.ParseHash(cmd[1])
		if err != nil {
			return err
		}
		size, err := strconv.Atoi(cmd[2])
		if err != nil {
			return fmt.Errorf("parse size: %w", err)
		}
		payer, err := crypto.ParseHash(cmd[3])
		if err != nil {
			return err
		}
		receipt, err := executor.Resize(addr, size, payer)
		if err != nil {
			return err
		}
		return printReceipt(stdout, receipt)

	case "fill-zeros":
		if len(cmd) != 2 {
			return fmt.Errorf("%w: fill-zeros <address>", errUsage)
		}
		addr, err := crypto.ParseHash(cmd[1])
		if err != nil {
			return err
		}
		receipt, err := executor.FillZeros(addr)
		if err != nil {
			return err
		}
		return printReceipt(stdout, receipt)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd[0])
	}
}

func printGate(w io.Writer, g gate.Gate) error {
	out := make(map[string]string, len(gate.Operations))
	for _, op := range gate.Operations {
		out[op.String()] = g.Availability(op).String()
	}
	return printJSON(w, out)
}

func printReceipt(w io.Writer, r ledger.Receipt) error {
	return printJSON(w, map[string]any{
		"tx":        r.ID.String(),
		"operation": r.Operation.String(),
		"address":   r.Address.String(),
		"state":     r.State.String(),
		"capacity":  r.Capacity,
		"balance":   r.Balance,
	})
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/config"
	"github.com/CityOfZion/neo-ruby-sdk/database/sqlstore"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/metrics"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/contract"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/simulation"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

func runCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("t", false, "print execution trace to stderr")
	cfgFile := fs.String("config", "", "TOML config `file`")
	dsn := fs.String("db", "", "persistent storage: postgres:// URL or SQLite file")
	retName := fs.String("ret", "Void", "return `type` of bytecode files")
	stats := fs.Bool("stats", false, "print latency statistics to stderr")
	fs.Parse(args)
	if fs.NArg() < 1 {
		usage("run")
	}

	cfg, err := config.Load(*cfgFile, nil)
	if err != nil {
		fatal(2, err, errors.Detail(err))
	}
	if *dsn != "" {
		cfg.Storage.DSN = *dsn
		cfg.Storage.Driver = config.DriverSQLite
		if strings.HasPrefix(*dsn, "postgres://") || strings.HasPrefix(*dsn, "postgresql://") {
			cfg.Storage.Driver = config.DriverPostgres
		}
	}
	ret, err := contract.ParseParamType(*retName)
	if err != nil {
		fatal(2, err)
	}

	engineOpts := []vm.Option{vm.WithRunLimit(cfg.VM.RunLimit)}
	if *trace || cfg.VM.Trace {
		engineOpts = append(engineOpts, vm.WithTrace(os.Stderr))
	}
	opts := []simulation.Option{simulation.WithEngineOptions(engineOpts...)}
	if cfg.Storage.Driver != config.DriverMemory {
		db, err := sqlstore.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			fatal(2, err)
		}
		defer db.Close()
		opts = append(opts,
			simulation.WithStore(db.Store()),
			simulation.WithRegistry(db.Registry(cfg.Registry.CacheSize)),
		)
	}
	sim := simulation.New(opts...)
	for _, w := range cfg.VM.Witnesses {
		h, err := vm.ParseHash(w)
		if err != nil {
			fatal(2, err)
		}
		sim.Chain.AddWitness(h)
	}

	c, err := sim.LoadContract(ctx, fs.Arg(0), ret)
	if _, ok := errors.Root(err).(*os.PathError); ok {
		fatal(2, err)
	}
	if err != nil {
		fatal(1, err)
	}
	params, err := parseArgs(fs.Args()[1:], c.Params)
	if err != nil {
		fatal(2, err)
	}

	res, err := c.Invoke(ctx, params...)
	for _, msg := range sim.Runtime.Logs() {
		fmt.Fprintln(os.Stderr, "log:", msg)
	}
	for _, n := range sim.Runtime.Notifications() {
		fmt.Fprintln(os.Stderr, "notify:", n.Item)
	}
	if *stats {
		printStats()
	}
	if err != nil {
		fatal(1, err)
	}
	if c.Return != contract.Void {
		fmt.Println(formatResult(res))
	}
}

// parseArgs converts command-line arguments. With known parameter
// types each argument is parsed as its type; otherwise an argument
// may carry its type as a Type: prefix.
func parseArgs(args []string, params []contract.ParamType) ([]interface{}, error) {
	if params != nil && len(args) != len(params) {
		return nil, errors.WithDetailf(contract.ErrCast, "%d arguments for %d parameters", len(args), len(params))
	}
	var out []interface{}
	for i, a := range args {
		var (
			v   interface{}
			err error
		)
		switch {
		case params != nil:
			v, err = contract.ParseArg(a, params[i])
		default:
			v, err = parseUntyped(a)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i+1)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseUntyped(a string) (interface{}, error) {
	if i := strings.IndexByte(a, ':'); i > 0 {
		if t, err := contract.ParseParamType(a[:i]); err == nil {
			return contract.ParseArg(a[i+1:], t)
		}
	}
	if n, ok := new(big.Int).SetString(a, 10); ok {
		return n, nil
	}
	return a, nil
}

func formatResult(v interface{}) string {
	switch v := v.(type) {
	case []byte:
		return fmt.Sprintf("%x", v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, el := range v {
			parts[i] = formatResult(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case nil:
		return "nil"
	}
	return fmt.Sprint(v)
}

func printStats() {
	snap := metrics.Snapshot()
	for _, name := range metrics.Names() {
		s, ok := snap[name]
		if !ok {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s count=%d mean=%s p95=%s p99=%s max=%s\n", name, s.Count, s.Mean, s.P95, s.P99, s.Max)
	}
}

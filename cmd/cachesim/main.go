// Command cachesim replays a synthetic Zipf key trace against a bounded
// cache and reports the hit ratio of each eviction policy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cache "github.com/venkatsvpr/golang-cache"
	"github.com/venkatsvpr/golang-cache/internal/sim"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

type app struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "cachesim",
		Short: "Replay a synthetic key trace against a bounded cache",
		Long: `cachesim generates a Zipf-distributed key trace and replays it against
an LRU or FIFO cache, filling every miss, then prints hits, misses and the
final cache size.

Every flag can also be set through a config file (--config) or through
environment variables prefixed with CACHESIM_, e.g. CACHESIM_CAPACITY=512.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
		RunE: a.run,
	}

	defaults := cache.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&a.cfgFile, "config", "", "config file (toml, yaml or json)")
	f.Int("capacity", defaults.Capacity, "maximum number of cached keys")
	f.String("policy", defaults.Policy, "eviction policy: lru or fifo")
	f.Int("flush-cycle", defaults.FlushCycle, "whole-cache flush period in seconds, 0 disables it")
	f.Uint64("keys", 10000, "number of distinct keys in the trace")
	f.Int("ops", 1000000, "number of lookups to replay")
	f.Int64("seed", 1, "trace random seed")
	f.Float64("skew", 1.1, "Zipf skew of the trace, must be greater than 1")
	f.Bool("compare", false, "replay the same trace against every policy")
	f.String("log-level", zerolog.InfoLevel.String(), "log level")
	return cmd
}

func (a *app) initConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix("CACHESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// config keys use underscores so they match cache.Config's tags
	var bindErr error
	cmd.Flags().VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "config" || bindErr != nil {
			return
		}
		key := strings.ReplaceAll(fl.Name, "-", "_")
		if err := v.BindPFlag(key, fl); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", fl.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	if a.cfgFile == "" {
		return nil
	}
	v.SetConfigFile(a.cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", a.cfgFile, err)
	}
	return nil
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	v := a.v
	level, err := zerolog.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger()
	ctx := logger.WithContext(cmd.Context())

	var cfg cache.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	trace, err := sim.ZipfTrace(sim.TraceOptions{
		Keys: v.GetUint64("keys"),
		Ops:  v.GetInt("ops"),
		Seed: v.GetInt64("seed"),
		Skew: v.GetFloat64("skew"),
	})
	if err != nil {
		return err
	}
	logger.Debug().Int("ops", len(trace)).Uint64("keys", v.GetUint64("keys")).Msg("trace generated")

	policies := []string{cfg.Policy}
	if v.GetBool("compare") {
		policies = []string{cache.LRU.Name(), cache.FIFO.Name()}
	}

	for _, policy := range policies {
		cfg.Policy = policy
		res, err := replay(ctx, cfg, trace, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-4s hits=%d misses=%d ratio=%.4f size=%d/%d\n",
			res.Policy, res.Hits, res.Misses, res.HitRatio(), res.Len, res.Cap)
	}
	return nil
}

func replay(ctx context.Context, cfg cache.Config, trace []uint64, logger zerolog.Logger) (sim.Result, error) {
	c, err := cache.New[uint64, uint64](cfg, cache.WithLogger[uint64, uint64](logger))
	if err != nil {
		return sim.Result{}, err
	}
	defer c.Close()

	start := time.Now()
	res, err := sim.Replay(ctx, c, trace)
	if err != nil {
		return res, err
	}
	res.Policy = c.Policy().Name()
	res.Cap = c.Cap()
	logger.Info().
		Str("policy", res.Policy).
		Dur("elapsed", time.Since(start)).
		Float64("hit_ratio", res.HitRatio()).
		Msg("replay finished")
	return res, nil
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind                string
	dataPath            string
	leaderboardInterval time.Duration
	matchmakingTimeout  time.Duration
	port                int
	prefix              string
	profile             bool
	revealDelay         time.Duration
	tlsCert             string
	tlsKey              string
	verbose             bool
	version             bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.matchmakingTimeout <= 0 {
		return fmt.Errorf("invalid matchmaking timeout: %s", c.matchmakingTimeout)
	}
	if c.revealDelay < 0 {
		return fmt.Errorf("invalid reveal delay: %s", c.revealDelay)
	}
	if c.leaderboardInterval <= 0 {
		return fmt.Errorf("invalid leaderboard interval: %s", c.leaderboardInterval)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WORDFIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordfight",
		Short:         "A real-time two-player quiz duel server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDFIGHT_BIND)")
	fs.StringVar(&cfg.dataPath, "data", "", "path to word list, empty for the embedded default (env: WORDFIGHT_DATA)")
	fs.DurationVar(&cfg.leaderboardInterval, "leaderboard-interval", 3200*time.Millisecond, "time between leaderboard broadcasts (env: WORDFIGHT_LEADERBOARD_INTERVAL)")
	fs.DurationVar(&cfg.matchmakingTimeout, "matchmaking-timeout", 12*time.Second, "wait before rematching with a previous opponent (env: WORDFIGHT_MATCHMAKING_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDFIGHT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WORDFIGHT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WORDFIGHT_PROFILE)")
	fs.DurationVar(&cfg.revealDelay, "reveal-delay", 1800*time.Millisecond, "pause between both answers arriving and the round outcome (env: WORDFIGHT_REVEAL_DELAY)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WORDFIGHT_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WORDFIGHT_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WORDFIGHT_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WORDFIGHT_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordfight v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

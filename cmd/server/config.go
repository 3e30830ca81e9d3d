package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind      string
	port      int
	bank      string
	gameCode  string
	publicURL string
	verbose   bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.bank == "" {
		return fmt.Errorf("a question bank file is required (--bank)")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BUZZBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "buzzboard-server",
		Short:         "Authoritative game server for the buzzboard party quiz.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BUZZBOARD_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 3001, "port to listen on (env: BUZZBOARD_PORT)")
	fs.StringVar(&cfg.bank, "bank", "questions.json", "path to the question bank JSON file (env: BUZZBOARD_BANK)")
	fs.StringVar(&cfg.gameCode, "game-code", "", "pre-create a session with this fixed code (env: BUZZBOARD_GAME_CODE)")
	fs.StringVar(&cfg.publicURL, "public-url", "http://localhost:3000", "base URL encoded into join QR codes (env: BUZZBOARD_PUBLIC_URL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: BUZZBOARD_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("buzzboard-server v{{.Version}}\n")

	return cmd
}

// Command koala issues one Graph or REST API call from the command line and
// prints the decoded result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmccreight/koala"
	"github.com/gmccreight/koala/internal/logger"
)

const defaultCallTimeout = 30 * time.Second

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	var (
		debug    bool
		jsonLogs bool
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:           "koala",
		Short:         "Call the Facebook Graph and REST APIs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logger.ParseLevel(logLevel)
			if debug {
				level = zerolog.DebugLevel
				_ = os.Setenv("KOALA_DEBUG", "true")
			}
			if jsonLogs {
				log.Logger = logger.New("koala", cmd.ErrOrStderr())
				zerolog.SetGlobalLevel(level)
			} else {
				logger.Console(cmd.ErrOrStderr(), level)
			}
			log.Debug().Msg("debug logging enabled")
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output, including HTTP dumps")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON instead of console text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnv("KOALA_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newCallCmd())
	return rootCmd
}

func newCallCmd() *cobra.Command {
	var (
		token     string
		method    string
		params    []string
		component string
		baseURL   string
		timeout   time.Duration
		rest      bool
		beta      bool
		video     bool
		ssl       bool
	)

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Issue one API call and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			var callOpts []koala.CallOption
			if rest {
				callOpts = append(callOpts, koala.WithRESTAPI())
			}
			if beta {
				callOpts = append(callOpts, koala.WithBeta())
			}
			if video {
				callOpts = append(callOpts, koala.WithVideo())
			}
			if ssl {
				callOpts = append(callOpts, koala.WithSSL())
			}
			if component != "" {
				c, err := koala.ParseComponent(component)
				if err != nil {
					return err
				}
				callOpts = append(callOpts, koala.WithHTTPComponent(c))
			}

			cfg, err := koala.LoadConfig()
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}

			c, err := koala.New(token, koala.WithHTTPTransportConfig(cfg))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			log.Debug().
				Str("path", path).
				Str("method", method).
				Int("params", len(parsed)).
				Str("component", component).
				Msg("calling api")

			start := time.Now()
			result, err := c.API(ctx, path, parsed, method, callOpts...)
			if err != nil {
				log.Error().
					Err(err).
					Str("path", path).
					Dur("elapsed", time.Since(start)).
					Msg("api call failed")
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&token, "token", os.Getenv("KOALA_ACCESS_TOKEN"), "OAuth access token (default $KOALA_ACCESS_TOKEN)")
	cmd.Flags().StringVarP(&method, "method", "X", "get", "HTTP verb")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Request parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&component, "component", "", "Return one raw response component: status, body or headers")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Send every call to this base URL instead of the Facebook servers")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultCallTimeout, "Overall call timeout")
	cmd.Flags().BoolVar(&rest, "rest", false, "Use the REST API server")
	cmd.Flags().BoolVar(&beta, "beta", false, "Use the beta tier")
	cmd.Flags().BoolVar(&video, "video", false, "Use the video upload server")
	cmd.Flags().BoolVar(&ssl, "ssl", false, "Force https")

	return cmd
}

// parseParams turns key=value pairs into a parameter map. Later pairs win.
func parseParams(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// printResult writes strings and numbers as-is, everything else as indented
// JSON.
func printResult(w io.Writer, result any) error {
	switch v := result.(type) {
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case int:
		_, err := fmt.Fprintln(w, v)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

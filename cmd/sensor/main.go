package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/simulate"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/pkg/client"
)

var (
	predictorURL string
	cfgFile      string
	verbose      bool
	logger       = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Encryption Algorithm Recommendation - Sensor Client",
	Long: `sensor simulates IoT sensors asking the predictor service which
encryption algorithm suits their workload.

Run without a subcommand for the interactive menu.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.sensor")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if predictorURL == "" {
			predictorURL = viper.GetString("predictor_url")
		}
		if predictorURL == "" {
			predictorURL = "http://localhost:5000"
		}

		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		}
		return nil
	},
	RunE: runMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.sensor/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&predictorURL, "url", "", "predictor service URL (default http://localhost:5000, or $PREDICTOR_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(healthCmd)
}

func newClient() (*client.Client, error) {
	return client.New(predictorURL,
		client.WithCircuitBreaker(30*time.Second, func(from, to string) {
			logger.Warn("predictor circuit breaker", zap.String("from", from), zap.String("to", to))
		}),
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ── simulate ─────────────────────────────────────────────────────────────────

var (
	simSensors    int
	simInterval   time.Duration
	simIterations int
	simSeed       int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulation with multiple sensors",
	Long: `Simulate checks /health, then for each iteration sends one request per
sensor with random parameters. Requests are staggered across the interval:

  sensor simulate --sensors 5 --interval 2s --iterations 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(simulate.Config{
			Sensors:    simSensors,
			Iterations: simIterations,
			Interval:   simInterval,
			Seed:       simSeed,
		})
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simSensors, "sensors", 5, "number of sensors to simulate")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 2*time.Second, "pause between iterations")
	simulateCmd.Flags().IntVar(&simIterations, "iterations", simulate.DefaultIterations, "number of iterations")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed for reproducible runs (0 = time-based)")
}

func runSimulation(cfg simulate.Config) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	r, err := simulate.NewRunner(c, cfg, os.Stdout, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	sum, err := r.Run(ctx)
	if sum != nil {
		simulate.PrintSummary(os.Stdout, sum)
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nSimulation interrupted.")
			return nil
		}
		return fmt.Errorf("%w (is the predictor running at %s?)", err, c.BaseURL())
	}
	return nil
}

// ── request ──────────────────────────────────────────────────────────────────

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Send a specific request with parameters typed at the prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(simulate.NewPrompter(os.Stdin, os.Stdout))
	},
}

func runRequest(p *simulate.Prompter) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	choices := simulate.DefaultChoices()
	if info, err := c.Model(ctx); err == nil {
		if cs, err := simulate.ChoicesFromModel(info); err == nil {
			choices = cs
		}
	}

	fmt.Println("Send a specific request to the encryption algorithm API")
	params, err := p.Params(choices)
	if err != nil {
		return err
	}
	return simulate.SendOnce(ctx, c, params, os.Stdout)
}

// ── health ───────────────────────────────────────────────────────────────────

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the predictor is up with its model loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		h, err := c.Health(ctx)
		if err != nil {
			return fmt.Errorf("could not connect to %s: %w", c.BaseURL(), err)
		}
		fmt.Printf("status: %s\nmodel_loaded: %t\n", h.Status, h.ModelLoaded)
		if !h.Healthy() {
			return simulate.ErrUnhealthy
		}
		return nil
	},
}

// ── menu ─────────────────────────────────────────────────────────────────────

func runMenu(cmd *cobra.Command, args []string) error {
	fmt.Println("Encryption Algorithm Recommendation - Sensor Client")
	fmt.Println("---------------------------------------------------")
	fmt.Println("1. Run simulation with multiple sensors")
	fmt.Println("2. Send a specific request")
	fmt.Println("3. Exit")

	p := simulate.NewPrompter(os.Stdin, os.Stdout)
	choice, err := p.Line("\nEnter your choice (1-3): ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		raw, err := p.Line("Number of sensors to simulate: ")
		if err != nil {
			return err
		}
		sensors, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid number of sensors %q", raw)
		}
		raw, err = p.Line("Interval between iterations (seconds): ")
		if err != nil {
			return err
		}
		secs, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid interval %q", raw)
		}
		return runSimulation(simulate.Config{
			Sensors:  sensors,
			Interval: time.Duration(secs * float64(time.Second)),
		})
	case "2":
		return runRequest(p)
	default:
		fmt.Println("Exiting.")
		return nil
	}
}

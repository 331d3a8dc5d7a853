// Package main implements netwait, a command line tool that runs a
// batch of commands against a network device and waits until the
// output satisfies the supplied conditions.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netwait/netwait/pkg/conditional"
	"github.com/netwait/netwait/pkg/logger"
	"github.com/netwait/netwait/pkg/report"
	"github.com/netwait/netwait/pkg/runner"
	"github.com/netwait/netwait/pkg/wait"
)

const defaultConnectTimeout = 30 * time.Second

var (
	version = "dev"

	// Error definitions.
	ErrCommandRequired  = errors.New("at least one --command is required")
	ErrUnknownTransport = errors.New("transport must be \"local\" or \"ssh\"")
	ErrUnknownOutput    = errors.New("output must be \"text\" or \"json\"")

	// errUnsatisfied signals a soft failure already reported to the
	// user; main only has to set the exit code.
	errUnsatisfied = errors.New("conditions not satisfied")
)

var (
	commands       []string
	waitFor        []string
	match          string
	retries        int
	interval       time.Duration
	transport      string
	host           string
	port           int
	user           string
	password       string
	identityFile   string
	connectTimeout time.Duration
	output         string
	logLevel       string
	noColor        bool
	quiet          bool
)

var rootCmd = &cobra.Command{
	Use:   "netwait",
	Short: "Run device commands and wait for their output to satisfy conditions",
	Long: `netwait sends a batch of commands to a network device and retries on a
fixed interval until the output satisfies the supplied wait conditions,
or the retry budget runs out.

Conditions test one command's output, selected by its position in the
batch:

  result[0] contains "up"
  result[1] matches "uptime is [0-9]+ days"
  result[0].interfaces.0.status eq up      (gjson path into JSON output)

With --match all (the default) every condition must pass, each on any
attempt. With --match any a single passing condition ends the wait.`,
	Example: `  # Wait locally until a host answers ping
  netwait -c "ping -c1 -W1 10.0.0.1" -w "result[0] contains '0% packet loss'" --retries 30

  # Wait until a device reports its OS version over SSH
  netwait -t ssh --host sw1 --user admin --password secret \
    -c "show version" -w "result[0] contains Version" --retries 10 --interval 5s

  # Environment variables
  export NETWAIT_HOST=sw1
  export NETWAIT_USER=admin
  netwait -t ssh -c "show interfaces" -w "result[0] contains up"`,
	RunE:          runWait,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.Flags().StringArrayVarP(&commands, "command", "c", nil,
		"command to send to the device (repeatable, order is preserved)")
	rootCmd.Flags().StringArrayVarP(&waitFor, "wait-for", "w", nil,
		"condition the output must satisfy (repeatable)")
	rootCmd.Flags().StringVarP(&match, "match", "m", "all",
		"match policy for multiple conditions: all or any")
	rootCmd.Flags().IntVarP(&retries, "retries", "r", wait.DefaultRetries,
		"maximum number of attempts")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", wait.DefaultInterval,
		"pause between attempts (e.g. 500ms, 5s)")

	rootCmd.Flags().StringVarP(&transport, "transport", "t", "local",
		"where to run the commands: local or ssh")
	rootCmd.Flags().StringVar(&host, "host", "", "device address (ssh transport)")
	rootCmd.Flags().IntVar(&port, "port", 0, "device port (ssh transport, default 22)")
	rootCmd.Flags().StringVar(&user, "user", "", "login user (ssh transport)")
	rootCmd.Flags().StringVar(&password, "password", "", "login password (ssh transport)")
	rootCmd.Flags().StringVar(&identityFile, "identity", "",
		"private key file, takes precedence over --password (ssh transport)")
	rootCmd.Flags().DurationVar(&connectTimeout, "connect-timeout", defaultConnectTimeout,
		"dial and handshake timeout (ssh transport)")

	rootCmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the final status")

	viper.SetEnvPrefix("NETWAIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for _, name := range []string{
		"match", "retries", "interval",
		"transport", "host", "port", "user", "password", "identity", "connect-timeout",
	} {
		_ = viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

func runWait(cmd *cobra.Command, _ []string) error {
	applyEnv(cmd)

	if len(commands) == 0 {
		return ErrCommandRequired
	}
	matchPolicy, err := wait.ParseMatchPolicy(match)
	if err != nil {
		return err
	}

	log := logger.NewNoLogger()
	if !quiet {
		log = logger.NewLogger(logLevel)
	}

	run, closeRun, err := buildRunner(log)
	if err != nil {
		return err
	}
	defer closeRun()

	waiter, err := wait.NewWaiter(run, func(text string) (wait.Predicate, error) {
		return conditional.Compile(text)
	})
	if err != nil {
		return err
	}
	waiter.SetMatch(matchPolicy)
	waiter.SetRetries(retries)
	waiter.SetInterval(interval)
	waiter.SetLogger(log)

	result, err := waiter.Run(cmd.Context(), commands, waitFor)
	if err != nil {
		return err
	}

	printer := report.NewPrinter(noColor, quiet)
	switch output {
	case "json":
		if err := printer.PrintJSON(result); err != nil {
			return err
		}
	case "text":
		printer.Print(commands, result)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, output)
	}

	if !result.Satisfied {
		return errUnsatisfied
	}
	return nil
}

// applyEnv lets NETWAIT_* environment variables stand in for flags the
// user did not set explicitly.
func applyEnv(cmd *cobra.Command) {
	if !cmd.Flags().Changed("match") && viper.GetString("match") != "" {
		match = viper.GetString("match")
	}
	if !cmd.Flags().Changed("retries") && viper.GetInt("retries") != 0 {
		retries = viper.GetInt("retries")
	}
	if !cmd.Flags().Changed("interval") && viper.GetDuration("interval") != 0 {
		interval = viper.GetDuration("interval")
	}
	if !cmd.Flags().Changed("transport") && viper.GetString("transport") != "" {
		transport = viper.GetString("transport")
	}
	if !cmd.Flags().Changed("host") && viper.GetString("host") != "" {
		host = viper.GetString("host")
	}
	if !cmd.Flags().Changed("port") && viper.GetInt("port") != 0 {
		port = viper.GetInt("port")
	}
	if !cmd.Flags().Changed("user") && viper.GetString("user") != "" {
		user = viper.GetString("user")
	}
	if !cmd.Flags().Changed("password") && viper.GetString("password") != "" {
		password = viper.GetString("password")
	}
	if !cmd.Flags().Changed("identity") && viper.GetString("identity") != "" {
		identityFile = viper.GetString("identity")
	}
	if !cmd.Flags().Changed("connect-timeout") && viper.GetDuration("connect-timeout") != 0 {
		connectTimeout = viper.GetDuration("connect-timeout")
	}
}

// buildRunner returns the configured runner and a cleanup function.
func buildRunner(log logger.Logger) (wait.Runner, func(), error) {
	switch transport {
	case "local":
		local := runner.NewLocal()
		local.SetLogger(log)
		return local, func() {}, nil
	case "ssh":
		sshRunner, err := runner.NewSSH(runner.SSHConfig{
			Host:           host,
			Port:           port,
			User:           user,
			Password:       password,
			IdentityFile:   identityFile,
			ConnectTimeout: connectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		sshRunner.SetLogger(log)
		return sshRunner, func() { _ = sshRunner.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, ErrCommandRequired) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "")
			_ = rootCmd.Usage()
		} else if !errors.Is(err, errUnsatisfied) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

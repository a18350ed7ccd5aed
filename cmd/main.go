package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/bibin-skaria/vislayers/internal/config"
	"github.com/bibin-skaria/vislayers/internal/errors"
	"github.com/bibin-skaria/vislayers/internal/logging"
	"github.com/bibin-skaria/vislayers/layers"
	"github.com/bibin-skaria/vislayers/scene"
	"github.com/bibin-skaria/vislayers/visibility"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	maxVisits  int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vislayers",
		Short: "Render layer membership and propagation tools",
		Long: `vislayers computes render layer membership for a hierarchy of nodes.
Each node either declares its own layers or inherits them from its parent;
propagation recomputes only the subtrees whose membership actually changed.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file (may be .zst compressed)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")
	flags.IntVar(&opts.maxVisits, "max-visits", 0, "Maximum node visits per propagation pass (0 means unlimited)")

	cmd.AddCommand(newPropagateCommand(opts))
	cmd.AddCommand(newLayersCommand())

	return cmd
}

// load resolves the configuration file, then applies flags set on cmd.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("max-visits") {
		cfg.Propagation.MaxVisits = o.maxVisits
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newPropagateCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "propagate <scene>",
		Short: "Replay a scene file and print computed layers after each pass",
		Long: `Build the hierarchy described by a scene file, run a propagation pass,
then apply each scripted step and run another pass. The computed layers of
every node are printed after each pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputText && output != outputYAML {
				return errors.New().
					Category(errors.CategoryConfiguration).
					Operation("propagate").
					Messagef("unknown output %q", output).
					Suggestion("use text or yaml").
					Build()
			}

			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			runID := fmt.Sprintf("vislayers-%d", time.Now().Unix())
			logger := logging.New(cfg.Log, runID)

			return runPropagate(cmd.OutOrStdout(), logger, cfg, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format (text, yaml)")

	return cmd
}

// passReport is the YAML form of one propagation pass.
type passReport struct {
	Pass  int               `yaml:"pass"`
	Step  string            `yaml:"step,omitempty"`
	Stats visibility.Stats  `yaml:"stats"`
	Nodes []scene.NodeState `yaml:"nodes"`
}

func runPropagate(out io.Writer, logger *logging.Logger, cfg config.Config, path, output string) error {
	file, err := scene.Load(path)
	if err != nil {
		return err
	}
	world, err := file.Build()
	if err != nil {
		return err
	}
	logger.LogSceneLoaded(path, world.Len(), len(file.Steps))

	metrics := visibility.NewMetrics()
	propagator := visibility.NewPropagator(world, world, visibility.Config{
		MaxVisits: cfg.Propagation.MaxVisits,
		Logger:    logger.Entry(),
		Metrics:   metrics,
	})

	var reports []passReport
	pass := func(n int, step string) error {
		stale := world.DrainStale()
		logger.LogPassStart(n, len(stale))
		stats := propagator.Propagate(stale)
		logger.LogPassComplete(n, stats)

		report := passReport{Pass: n, Step: step, Stats: stats, Nodes: world.Snapshot()}
		if output == outputYAML {
			reports = append(reports, report)
			return nil
		}
		return writeTextReport(out, report)
	}

	if err := pass(0, ""); err != nil {
		return err
	}
	for i, step := range file.Steps {
		if err := file.ApplyStep(world, i); err != nil {
			return err
		}
		logger.LogStepApplied(i, len(step.Edits))

		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		if err := pass(i+1, name); err != nil {
			return err
		}
	}

	logger.LogSummary(metrics.Snapshot())

	if output == outputYAML {
		data, err := yaml.Marshal(reports)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return nil
}

func writeTextReport(out io.Writer, report passReport) error {
	header := fmt.Sprintf("Pass %d", report.Pass)
	if report.Step != "" {
		header += " (" + report.Step + ")"
	}
	fmt.Fprintf(out, "%s: %d stale, %d visited, %d updated, %d pruned",
		header, report.Stats.Stale, report.Stats.Visited, report.Stats.Updated, report.Stats.Pruned)
	if report.Stats.Missing > 0 {
		fmt.Fprintf(out, ", %d missing", report.Stats.Missing)
	}
	if report.Stats.Truncated {
		fmt.Fprint(out, ", truncated")
	}
	fmt.Fprintln(out)

	if err := scene.WriteTable(out, report.Nodes); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}

func newLayersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Set algebra on layer lists",
		Long: `Combine two comma-separated layer lists, for example:

  vislayers layers union 1,2,3 3,200`,
	}

	binary := map[string]func(a, b layers.Set) layers.Set{
		"union":        layers.Set.Union,
		"intersection": layers.Set.Intersection,
		"difference":   layers.Set.SymmetricDifference,
	}
	for _, name := range []string{"union", "intersection", "difference"} {
		op := binary[name]
		cmd.AddCommand(&cobra.Command{
			Use:   name + " <a> <b>",
			Short: fmt.Sprintf("Print the %s of two layer lists", name),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, b, err := parseOperands(args)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), op(a, b))
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "intersects <a> <b>",
		Short: "Report whether two layer lists share a layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parseOperands(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Intersects(b))
			return nil
		},
	})

	return cmd
}

func parseOperands(args []string) (layers.Set, layers.Set, error) {
	a, err := parseLayers(args[0])
	if err != nil {
		return layers.Set{}, layers.Set{}, err
	}
	b, err := parseLayers(args[1])
	if err != nil {
		return layers.Set{}, layers.Set{}, err
	}
	return a, b, nil
}

// parseLayers reads a comma-separated layer list. An empty string or "-" is
// the empty set.
func parseLayers(s string) (layers.Set, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return layers.Empty(), nil
	}

	var set layers.Set
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		n, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return layers.Set{}, errors.New().
				Category(errors.CategoryValidation).
				Operation("parse_layers").
				Messagef("invalid layer %q", field).
				Cause(err).
				Build()
		}
		if layers.Layer(n) > scene.MaxLayer {
			return layers.Set{}, errors.New().
				Category(errors.CategoryValidation).
				Operation("parse_layers").
				Messagef("layer %d exceeds limit %d", n, scene.MaxLayer).
				Build()
		}
		set.Add(layers.Layer(n))
	}
	return set, nil
}

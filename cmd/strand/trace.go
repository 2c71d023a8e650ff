package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strand-ml/strand/internal/config"
	"github.com/strand-ml/strand/internal/dispatch"
	"github.com/strand-ml/strand/internal/fallback"
	"github.com/strand-ml/strand/internal/kernels"
	"github.com/strand-ml/strand/internal/logging"
	"github.com/strand-ml/strand/internal/telemetry"
	"github.com/strand-ml/strand/internal/tensor"
)

var traceCmd = &cobra.Command{
	Use:   "trace [operator]",
	Short: "Run one operator under the composite-view key and trace the interception",
	Long: `Builds the default registry, invokes the given operator (default "neg")
on a 2x2 tensor with the CompositeView capability active, and prints the
caller-visible result. Run with log level debug to see each transform and
reconciliation step.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	if cfg.Metrics.Port > 0 {
		telemetry.Expose(cfg.Metrics.Port)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	opName := "neg"
	if len(args) == 1 {
		opName = args[0]
	}
	op, err := reg.Lookup(opName)
	if err != nil {
		return err
	}

	t, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	if err != nil {
		return err
	}
	logging.L().Info("input", "tensor", t.String())

	frame := dispatch.NewFrame(dispatch.TensorValue(t))
	keys := dispatch.NewKeySet(dispatch.KeyBackend, dispatch.KeyCompositeView)
	if err := reg.Call(op, keys, frame); err != nil {
		return fmt.Errorf("call %s: %w", opName, err)
	}

	for i, res := range frame.Results() {
		if res.IsTensor() {
			fmt.Printf("result %d: ", i)
			res.Tensor().Dump(os.Stdout)
		} else {
			fmt.Printf("result %d: %v\n", i, res.Scalar())
		}
	}
	return nil
}

func buildRegistry(cfg config.Config) (*dispatch.Registry, error) {
	reg := dispatch.NewRegistry()
	if err := kernels.Register(reg); err != nil {
		return nil, fmt.Errorf("register kernels: %w", err)
	}
	if _, err := fallback.RegisterCompositeView(reg); err != nil {
		return nil, err
	}
	if cfg.Manifest != "" {
		m, err := config.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		if err := m.Apply(reg); err != nil {
			return nil, err
		}
	}
	reg.Freeze()
	return reg, nil
}

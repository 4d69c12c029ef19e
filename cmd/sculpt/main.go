// Package main provides the sculpt CLI: offline, single-shot editing of
// ONNX model files through the same service a desktop shell would use.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sculpt-ml/sculpt/editor"
)

// Version is the current sculpt CLI version.
var Version = "0.1.0"

var (
	configPath string
	outputPath string
	quiet      bool

	pruneRatio   float64
	quantizeMode string
	nodeID       string
	bypass       bool
	showNodes    bool
)

var rootCmd = &cobra.Command{
	Use:     "sculpt",
	Short:   "Sculpt - structural editing of ONNX computation graphs",
	Long:    `Sculpt edits ONNX models structurally: prune weights, quantize tensors, and remove nodes, with every edit validated before it is committed.`,
	Version: Version,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <model.onnx>",
	Short: "Print a structural summary of a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var pruneCmd = &cobra.Command{
	Use:   "prune <model.onnx>",
	Short: "Zero out low-magnitude weights globally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(args[0], editor.Params{Kind: "prune", Ratio: pruneRatio})
	},
}

var quantizeCmd = &cobra.Command{
	Use:   "quantize <model.onnx>",
	Short: "Quantize weight tensors (int8 or float16)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(args[0], editor.Params{Kind: "quantize", Mode: quantizeMode})
	},
}

var removeNodeCmd = &cobra.Command{
	Use:   "remove-node <model.onnx>",
	Short: "Remove a node, optionally bypassing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(args[0], editor.Params{Kind: "remove-node", NodeID: nodeID, Bypass: bypass})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress service logging")

	inspectCmd.Flags().BoolVar(&showNodes, "nodes", false, "list every node instead of stage blocks")

	pruneCmd.Flags().Float64VarP(&pruneRatio, "ratio", "r", 0.3, "fraction of weights to zero (0, 1)")
	quantizeCmd.Flags().StringVarP(&quantizeMode, "mode", "m", "int8", "quantization mode: int8 or float16")
	removeNodeCmd.Flags().StringVarP(&nodeID, "node", "n", "", "id of the node to remove")
	removeNodeCmd.Flags().BoolVar(&bypass, "bypass", false, "relink consumers to the node's input")
	_ = removeNodeCmd.MarkFlagRequired("node")

	for _, c := range []*cobra.Command{pruneCmd, quantizeCmd, removeNodeCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: overwrite input)")
	}

	rootCmd.AddCommand(inspectCmd, pruneCmd, quantizeCmd, removeNodeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newService builds the editing service from the configured options.
func newService() (*editor.Service, error) {
	cfg, err := editor.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	var log *zap.Logger
	if !quiet {
		if log, err = newLogger(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	return editor.New(cfg, log), nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func runInspect(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	up, err := svc.Upload(data, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = svc.Destroy(up.SessionID) }()

	s := up.Summary
	fmt.Printf("%s\n", args[0])
	fmt.Printf("  digest:  %s\n", up.Digest[:16])
	fmt.Printf("  nodes:   %d\n", s.NodeCount)
	fmt.Printf("  params:  %d (%.2f MB)\n", s.ParamCount, float64(s.TotalBytes)/(1<<20))
	fmt.Printf("  inputs:  %v\n", s.Inputs)
	fmt.Printf("  outputs: %v\n", s.Outputs)

	if showNodes {
		for _, n := range s.Nodes {
			fmt.Printf("  %-30s %-20s params=%d\n", n.ID, n.OpType, n.Params)
		}
		return nil
	}
	for _, stage := range s.Stages {
		fmt.Printf("  %s\n", stage.Label)
	}
	return nil
}

// runEdit runs the single-shot pipeline: upload, apply one edit, save.
func runEdit(path string, p editor.Params) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	up, err := svc.Upload(data, path)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Destroy(up.SessionID) }()

	res, err := svc.ApplyEdit(up.SessionID, p)
	if err != nil {
		if errors.Is(err, editor.ErrDanglingConsumer) {
			return fmt.Errorf("%w\nhint: pass --bypass to relink consumers of a pass-through node", err)
		}
		return err
	}

	out, err := svc.Save(up.SessionID)
	if err != nil {
		return err
	}
	dst := outputPath
	if dst == "" {
		dst = path
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return err
	}

	stats, _ := json.Marshal(res.Stats)
	fmt.Printf("wrote %s (%d bytes)\nstats: %s\n", dst, len(out), stats)
	return nil
}

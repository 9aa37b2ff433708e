package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NodePath81/udpbench/internal/config"
	"github.com/NodePath81/udpbench/internal/echo"
	"github.com/NodePath81/udpbench/internal/report"
	"github.com/NodePath81/udpbench/internal/util"
	"github.com/NodePath81/udpbench/internal/watch"
	bench "github.com/NodePath81/udpbench/pkg"
)

func main() {
	mode := flag.String("mode", "run", "Mode: run, findmax, sweep, echo, or check")
	configPath := flag.String("config", "", "Path to YAML config file")
	target := flag.String("target", "127.0.0.1", "Target host (client modes)")
	port := flag.Int("port", bench.DefaultPort, "Target UDP port")
	bind := flag.String("bind", "", "Local bind address (echo mode: listen address)")
	rateInput := flag.String("rate", "0", "Send rate in packets/sec (e.g., 8000, 8k; 0 = unthrottled)")
	count := flag.Int("count", bench.DefaultCount, "Packets per round")
	payload := flag.String("payload", "binary", "Payload encoding: binary or label")
	label := flag.String("label", "", "Payload prefix in label mode")
	drain := flag.Duration("drain", bench.DefaultDrain, "Drain window for late replies")
	readTimeout := flag.Duration("read-timeout", 0, "Receive poll timeout")
	maxDuration := flag.Duration("max-duration", 0, "Absolute round cap (0 = derived)")
	low := flag.Int("low", bench.DefaultSearchLow, "Search range lower bound (findmax)")
	high := flag.Int("high", bench.DefaultSearchHigh, "Search range upper bound (findmax)")
	iterations := flag.Int("iterations", 10, "Search iteration budget (findmax)")
	threshold := flag.Float64("threshold", 0.99, "Delivery ratio threshold (findmax)")
	pause := flag.Duration("pause", time.Second, "Pause between search iterations (findmax)")
	ratesInput := flag.String("rates", "1,10,100,1000", "Rates to measure (sweep)")
	cooldown := flag.Duration("cooldown", 3*time.Second, "Cooldown between sweep rounds")
	noShuffle := flag.Bool("no-shuffle", false, "Keep sweep rate order as given")
	jsonDir := flag.String("json", "", "Directory for JSON reports (empty = none)")
	watchAddr := flag.String("watch", "", "Address for live status websocket (empty = off)")
	useICMP := flag.Bool("icmp", false, "Use ICMP echo instead of UDP (check mode)")
	checkTimeout := flag.Duration("timeout", 5*time.Second, "Connectivity check timeout")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := util.NewLogger(*verbose)

	var fileCfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fileCfg = loaded
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	// Config file fills in anything not given explicitly on the command line.
	if fileCfg != nil {
		if !setFlags["target"] && fileCfg.Target != "" {
			*target = fileCfg.Target
		}
		if !setFlags["port"] && fileCfg.Port != 0 {
			*port = fileCfg.Port
		}
		if !setFlags["bind"] && fileCfg.Bind != "" {
			*bind = fileCfg.Bind
		}
		if !setFlags["rate"] && fileCfg.Rate != "" {
			*rateInput = fileCfg.Rate
		}
		if !setFlags["count"] && fileCfg.Count != 0 {
			*count = fileCfg.Count
		}
		if !setFlags["payload"] && fileCfg.Payload != "" {
			*payload = fileCfg.Payload
		}
		if !setFlags["label"] && fileCfg.Label != "" {
			*label = fileCfg.Label
		}
		if !setFlags["drain"] && fileCfg.Drain != 0 {
			*drain = fileCfg.Drain.Duration()
		}
		if !setFlags["read-timeout"] && fileCfg.ReadTimeout != 0 {
			*readTimeout = fileCfg.ReadTimeout.Duration()
		}
		if !setFlags["max-duration"] && fileCfg.MaxDuration != 0 {
			*maxDuration = fileCfg.MaxDuration.Duration()
		}
		if !setFlags["low"] && fileCfg.Search.Low != 0 {
			*low = fileCfg.Search.Low
		}
		if !setFlags["high"] && fileCfg.Search.High != 0 {
			*high = fileCfg.Search.High
		}
		if !setFlags["iterations"] && fileCfg.Search.Iterations != 0 {
			*iterations = fileCfg.Search.Iterations
		}
		if !setFlags["threshold"] && fileCfg.Search.Threshold != 0 {
			*threshold = fileCfg.Search.Threshold
		}
		if !setFlags["pause"] && fileCfg.Search.Pause != 0 {
			*pause = fileCfg.Search.Pause.Duration()
		}
		if !setFlags["cooldown"] && fileCfg.Sweep.Cooldown != 0 {
			*cooldown = fileCfg.Sweep.Cooldown.Duration()
		}
		if !setFlags["no-shuffle"] {
			*noShuffle = !util.BoolValue(fileCfg.Sweep.Shuffle, !*noShuffle)
		}
		if !setFlags["json"] && fileCfg.ReportDir != "" {
			*jsonDir = fileCfg.ReportDir
		}
		if !setFlags["watch"] && fileCfg.WatchAddr != "" {
			*watchAddr = fileCfg.WatchAddr
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupt received, finishing with partial results")
		cancel()
	}()

	if *mode == "echo" {
		bindAddr := *bind
		if bindAddr == "" {
			bindAddr = fmt.Sprintf(":%d", *port)
		}
		server := echo.NewServer(bindAddr, logger)
		if err := server.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		if err := server.Run(ctx); err != nil && err != context.Canceled {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if *mode == "check" {
		runCheck(*target, *port, *useICMP, *checkTimeout)
		return
	}

	payloadMode, err := bench.ParsePayloadMode(*payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	rate, err := util.ParseRate(*rateInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	roundCfg := bench.Config{
		Target:      *target,
		Port:        *port,
		Bind:        *bind,
		Rate:        rate,
		Count:       *count,
		Payload:     payloadMode,
		Label:       *label,
		Drain:       *drain,
		ReadTimeout: *readTimeout,
		MaxDuration: *maxDuration,
	}

	var watcher *watch.Server
	if *watchAddr != "" {
		watcher = watch.NewServer(*watchAddr, logger)
		watcher.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = watcher.Stop(shutdownCtx)
		}()
	}

	switch *mode {
	case "run":
		runFixed(ctx, roundCfg, *jsonDir, watcher)
	case "findmax":
		runFindMax(ctx, roundCfg, bench.SearchConfig{
			Round:      roundCfg,
			Low:        *low,
			High:       *high,
			Iterations: *iterations,
			Threshold:  *threshold,
			Pause:      *pause,
		}, *jsonDir, watcher)
	case "sweep":
		rates, err := util.ParseRateList(*ratesInput)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		if fileCfg != nil && len(fileCfg.Sweep.Rates) > 0 && !setFlags["rates"] {
			rates = fileCfg.Sweep.Rates
		}
		runSweep(ctx, bench.SweepConfig{
			Round:     roundCfg,
			Rates:     rates,
			Cooldown:  *cooldown,
			KeepOrder: *noShuffle,
		}, *jsonDir, watcher)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown mode %q\n", *mode)
		os.Exit(1)
	}
}

func runCheck(target string, port int, useICMP bool, timeout time.Duration) {
	if useICMP {
		rtt, err := bench.CheckICMP(target, timeout)
		if err != nil {
			fmt.Printf("icmp check FAILED: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("icmp check OK: %s responded in %.3f ms\n", target, float64(rtt.Microseconds())/1000.0)
		return
	}
	rtt, err := bench.CheckUDP(target, port, timeout)
	if err != nil {
		fmt.Printf("udp check FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("udp check OK: %s:%d echoed in %.3f ms\n", target, port, float64(rtt.Microseconds())/1000.0)
}

func runFixed(ctx context.Context, cfg bench.Config, jsonDir string, watcher *watch.Server) {
	printRoundHeader(cfg)
	result, err := bench.Run(ctx, cfg)
	if err != nil && !result.Incomplete {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if watcher != nil {
		watcher.Publish("round", result)
	}
	fmt.Println()
	report.WriteRun(os.Stdout, result)
	if jsonDir != "" {
		path, err := report.WriteRunJSON(jsonDir, "", result)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Printf("\nResults saved to: %s\n", path)
	}
}

func runFindMax(ctx context.Context, roundCfg bench.Config, cfg bench.SearchConfig, jsonDir string, watcher *watch.Server) {
	fmt.Println("=== UDP Capacity Search ===")
	fmt.Printf("Target: %s:%d\n", roundCfg.Target, roundCfg.Port)
	fmt.Printf("Search range: %d - %d pkt/s | %d packets per round | %d iterations max\n",
		cfg.Low, cfg.High, roundCfg.Count, cfg.Iterations)
	fmt.Println()

	progress := func(iteration int, result bench.RunResult) {
		fmt.Printf("Iteration %d: %d pkt/s -> %d/%d delivered (%.1f%% loss)\n",
			iteration, result.Rate, result.UniqueReceived, result.Sent, result.LossRate*100)
		if watcher != nil {
			watcher.Publish("iteration", result)
		}
	}

	probeResult, err := bench.FindMaxWithProgress(ctx, cfg, progress)
	if err != nil && len(probeResult.Iterations) == 0 {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if watcher != nil {
		watcher.Publish("done", probeResult)
	}
	fmt.Println()
	report.WriteProbe(os.Stdout, probeResult)
	if jsonDir != "" {
		path, werr := report.WriteProbeJSON(jsonDir, probeResult, roundCfg.Count)
		if werr != nil {
			fmt.Fprintln(os.Stderr, "error:", werr)
			os.Exit(1)
		}
		fmt.Printf("\nResults saved to: %s\n", path)
	}
	if err != nil {
		os.Exit(1)
	}
}

func runSweep(ctx context.Context, cfg bench.SweepConfig, jsonDir string, watcher *watch.Server) {
	fmt.Println("=== UDP Latency Sweep ===")
	fmt.Printf("Target: %s:%d | rates: %v\n", cfg.Round.Target, cfg.Round.Port, cfg.Rates)
	fmt.Println()

	progress := func(rate int, result bench.RunResult) {
		fmt.Printf("Rate %d pkt/s: %d/%d delivered, p50 %.3f ms\n",
			rate, result.UniqueReceived, result.Sent,
			float64(result.Latency.P50.Microseconds())/1000.0)
		if watcher != nil {
			watcher.Publish("round", result)
		}
	}

	sweepResult, err := bench.SweepWithProgress(ctx, cfg, progress)
	if err != nil && len(sweepResult.Results) == 0 {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println()
	report.WriteSweep(os.Stdout, sweepResult)
	if jsonDir != "" {
		path, werr := report.WriteSweepJSON(jsonDir, sweepResult)
		if werr != nil {
			fmt.Fprintln(os.Stderr, "error:", werr)
			os.Exit(1)
		}
		fmt.Printf("\nResults saved to: %s\n", path)
	}
	if err != nil {
		os.Exit(1)
	}
}

func printRoundHeader(cfg bench.Config) {
	fmt.Println("=== UDP Measurement Round ===")
	fmt.Printf("Target: %s:%d\n", cfg.Target, cfg.Port)
	if cfg.Rate > 0 {
		fmt.Printf("Rate: %d pkt/s | %d packets | payload: %s\n", cfg.Rate, cfg.Count, cfg.Payload)
	} else {
		fmt.Printf("Rate: unthrottled | %d packets | payload: %s\n", cfg.Count, cfg.Payload)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/roster"
)

// parseWeights 解析 k=v,k=v 形式的权重
func parseWeights(s string) (map[string]any, error) {
	bag := make(map[string]any)
	if strings.TrimSpace(s) == "" {
		return bag, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("权重格式应为 key=value: %q", pair)
		}
		bag[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return bag, nil
}

func main() {
	var (
		boatType   int
		params     = optimizer.DefaultParameters()
		schedule   string
		runs       int
		multiBoat  bool
		convert6k  bool
		weightsArg string
		seed       int64
		dryRun     bool
		verbose    bool
	)

	flag.IntVar(&boatType, "boat-type", 8, "艇型 (4 或 8)")
	flag.Float64Var(&params.InitialTemp, "temp", params.InitialTemp, "初始温度")
	flag.Float64Var(&params.CoolingRate, "cooling", params.CoolingRate, "降温系数")
	flag.Float64Var(&params.MinTemp, "min-temp", params.MinTemp, "最低温度")
	flag.IntVar(&params.IterationsPerTemp, "iterations", params.IterationsPerTemp, "每个温度的迭代次数")
	flag.StringVar(&schedule, "schedule", string(params.CoolingSchedule), "降温方式 (exponential, linear, logarithmic)")
	flag.IntVar(&runs, "runs", 1, "独立运行次数，取代价最低的结果")
	flag.BoolVar(&multiBoat, "multi-boat", false, "将名单划分到尽可能多的艇中")
	flag.BoolVar(&convert6k, "convert-6k", false, "名单中的成绩为 6k 成绩")
	flag.StringVar(&weightsArg, "weights", "", "评分权重，如 side_preference_penalty=50,stern_loading_penalty=20")
	flag.Int64Var(&seed, "seed", 0, "随机种子，0 表示使用当前时间")
	flag.BoolVar(&dryRun, "dry-run", false, "不写回未上艇天数")
	flag.BoolVar(&verbose, "v", false, "输出调试日志")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "用法: %s [选项] roster.json\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)
	params.CoolingSchedule = optimizer.CoolingSchedule(schedule)

	if err := params.Validate(); err != nil {
		logger.Error("退火参数不合法", "error", err)
		os.Exit(1)
	}
	bag, err := parseWeights(weightsArg)
	if err != nil {
		logger.Error("无法解析评分权重", "error", err)
		os.Exit(1)
	}

	// 写回文件时使用原始成绩，只有参与优化的副本换算为 2k
	athletes, err := roster.Load(path, false)
	if err != nil {
		logger.Error("无法读取名单", "file", path, "error", err)
		os.Exit(1)
	}
	candidates := athletes
	if convert6k {
		candidates = roster.Convert6k(athletes)
	}

	var factory optimizer.Factory
	if multiBoat {
		w, err := optimizer.ParseMultiBoatWeights(bag)
		if err != nil {
			logger.Error("评分权重不合法", "error", err)
			os.Exit(1)
		}
		factory = func(seed int64) (optimizer.Optimizer, error) {
			return optimizer.NewMultiBoat(candidates, boatType, params, w, rand.New(rand.NewSource(seed)))
		}
	} else {
		w, err := optimizer.ParseSingleBoatWeights(bag)
		if err != nil {
			logger.Error("评分权重不合法", "error", err)
			os.Exit(1)
		}
		factory = func(seed int64) (optimizer.Optimizer, error) {
			return optimizer.NewSingleBoat(candidates, boatType, params, w, rand.New(rand.NewSource(seed)))
		}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, best, err := optimizer.RunBest(ctx, runs, seed, factory)
	if err != nil {
		if res == nil {
			logger.Error("优化失败", "error", err)
			os.Exit(1)
		}
		// 被中断时仍然输出目前的最优阵容，但不写回名单
		logger.Warn("优化被中断，输出目前的最优阵容", "cost", res.Cost, "error", err)
		fmt.Print(best.Report())
		os.Exit(130)
	}
	logger.Info("优化完成", "runs", runs, "cost", res.Cost, "evaluations", res.Stats.Evaluations, "duration", res.Stats.Duration)

	fmt.Print(best.Report())

	if dryRun {
		return
	}

	boated := make(map[string]bool)
	for _, boat := range res.Boats {
		for _, a := range boat {
			boated[a.Name] = true
		}
	}
	domain.UpdateDaysSinceBoated(athletes, boated)

	if err := roster.Save(path, athletes); err != nil {
		logger.Error("无法写回名单", "file", path, "error", err)
		os.Exit(1)
	}
	logger.Info("已更新未上艇天数", "file", path)
}

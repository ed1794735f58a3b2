package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/config"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/repository"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string
	var convert6k bool

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机教练, 2: 插入随机运动员, 3: 导入名单文件)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&file, "file", "", "要导入的名单文件 (.json 或 .csv)")
	flag.BoolVar(&convert6k, "convert-6k", false, "名单中的成绩为 6k 成绩，导入时换算为 2k")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的教练数量")
			return
		}
		cnt := seed.Coaches(repo, n, cfg.Seed.User.Password, cfg.Email.UserDomain)
		logger.Info("插入教练成功", "count", cnt)
	case 2:
		if n <= 0 {
			logger.Error("请输入合法的运动员数量")
			return
		}
		cnt := seed.Athletes(repo, n, cfg.Email.UserDomain)
		logger.Info("插入运动员成功", "count", cnt)
	case 3:
		if file == "" {
			logger.Error("请使用 -file 指定名单文件")
			return
		}
		cnt, err := seed.ImportFile(repo, file, convert6k)
		if err != nil {
			logger.Error("导入名单失败", "file", file, "error", err)
			return
		}
		logger.Info("导入名单成功", "count", cnt)
	default:
		logger.Error("指定的操作非法")
	}
}

package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Optimizer 为单艇与多艇优化器的统一接口
type Optimizer interface {
	// Optimize 执行一次完整的模拟退火，每次调用都会重新初始化
	Optimize(ctx context.Context) (*Result, error)
	// Report 返回最近一次优化结果的文字报告
	Report() string
}

// Factory 根据随机种子创建一个独立的优化器
type Factory func(seed int64) (Optimizer, error)

// base 为两种优化器共享的部分
type base struct {
	athletes []*domain.Athlete
	boatSize int
	params   Parameters
	rng      *rand.Rand
	observer Observer

	mu   sync.Mutex
	last *Result
}

func newBase(athletes []*domain.Athlete, boatSize int, params Parameters, rng *rand.Rand) (base, error) {
	if !domain.ValidBoatSize(boatSize) {
		return base{}, fmt.Errorf("%w (got %d)", domain.ErrInvalidBoatSize, boatSize)
	}
	if len(athletes) < boatSize {
		return base{}, fmt.Errorf("%w: %d 人艇需要 %d 人，实际只有 %d 人", ErrNotEnoughAthletes, boatSize, boatSize, len(athletes))
	}
	if err := params.Validate(); err != nil {
		return base{}, err
	}
	if rng == nil {
		return base{}, errors.New("随机数生成器未初始化 (nil)")
	}

	return base{
		// 复制名单，优化过程中不修改调用方持有的切片
		athletes: cloneLineup(athletes),
		boatSize: boatSize,
		params:   params,
		rng:      rng,
	}, nil
}

// SetObserver 设置每次接受新解时的回调
func (b *base) SetObserver(observe Observer) {
	b.observer = observe
}

func (b *base) store(res *Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = res
}

func (b *base) lastResult() *Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// RunBest 并发执行 runs 次相互独立的优化并返回代价最低的一次
// ctx 被取消或超时时，返回各次运行到目前为止代价最低的结果以及 ctx 的错误，调用方可以决定是否采用
func RunBest(ctx context.Context, runs int, seed int64, factory Factory) (*Result, Optimizer, error) {
	if runs < 1 {
		runs = 1
	}

	results := make([]*Result, runs)
	optimizers := make([]Optimizer, runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := 0; i < runs; i++ {
		i := i
		g.Go(func() error {
			opt, err := factory(seed + int64(i))
			if err != nil {
				return err
			}

			res, err := opt.Optimize(gctx)
			if res != nil {
				results[i] = res
				optimizers[i] = opt
			}
			if err != nil {
				return err
			}

			slog.Debug("完成一次优化", "run", i+1, "runs", runs, "cost", res.Cost)
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, nil, err
	}
	if err != nil && ctx.Err() == nil {
		// 取消来自 errgroup 内部，说明其他运行出错
		return nil, nil, err
	}

	bestIdx := -1
	bestCost := math.Inf(1)
	for i, res := range results {
		if res == nil {
			continue
		}
		if bestIdx == -1 || res.Cost < bestCost {
			bestIdx = i
			bestCost = res.Cost
		}
	}

	if bestIdx == -1 {
		if err == nil {
			err = errors.New("没有任何一次优化产生结果")
		}
		return nil, nil, err
	}
	if err != nil {
		slog.Warn("优化被中断，返回目前的最优结果", "cost", bestCost, "error", err)
		return results[bestIdx], optimizers[bestIdx], err
	}

	return results[bestIdx], optimizers[bestIdx], nil
}

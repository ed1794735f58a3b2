package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const generationLockKey = "lineup_generation_lock"

var errLockHeld = errors.New("已有排艇任务正在进行，请稍后再试")

// 只有持有者才能释放锁，避免锁过期后误删别人的锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// acquireGenerationLock 获取生成阵容的锁，返回释放函数
func (h *Handler) acquireGenerationLock() (func(), error) {
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	ok, err := h.redisClient.SetNX(ctx, generationLockKey, token, time.Duration(h.config.Redis.LockExpiration)*time.Second).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errLockHeld
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()
		h.releaseGenerationLock(ctx, token)
	}
	return release, nil
}

// releaseGenerationLock 释放失败时锁会在过期后自动失效，只记录日志
func (h *Handler) releaseGenerationLock(ctx context.Context, token string) {
	if err := releaseLockScript.Run(ctx, h.redisClient, []string{generationLockKey}, token).Err(); err != nil {
		slog.Warn("释放排艇锁失败", "key", generationLockKey, "error", err)
	}
}

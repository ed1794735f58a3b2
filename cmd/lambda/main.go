//go:build !lambda

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
)

// 本地调试：从标准输入读取请求体并输出响应
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Error("无法读取请求", "error", err)
		os.Exit(1)
	}

	resp, err := handler(context.Background(), events.LambdaFunctionURLRequest{Body: string(body)})
	if err != nil {
		logger.Error("处理请求失败", "error", err)
		os.Exit(1)
	}
	if resp.StatusCode != 200 {
		logger.Warn("请求未成功", "status", resp.StatusCode)
	}
	fmt.Println(resp.Body)
}

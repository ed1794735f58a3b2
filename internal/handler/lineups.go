package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/repository"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/utils"
)

func reportCacheKey(lineupID int64) string {
	return fmt.Sprintf("lineup_report_%d", lineupID)
}

func (h *Handler) defaultParameters() optimizer.Parameters {
	return optimizer.Parameters{
		InitialTemp:       h.config.Annealing.InitialTemp,
		CoolingRate:       h.config.Annealing.CoolingRate,
		MinTemp:           h.config.Annealing.MinTemp,
		IterationsPerTemp: h.config.Annealing.IterationsPerTemp,
		CoolingSchedule:   optimizer.CoolingSchedule(h.config.Annealing.CoolingSchedule),
	}
}

func (h *Handler) defaultSingleBoatWeights() optimizer.SingleBoatWeights {
	s := h.config.Scoring
	return optimizer.SingleBoatWeights{
		SidePreferencePenalty:   s.SidePreferencePenalty,
		ExperienceMixingPenalty: s.ExperienceMixingPenalty,
		PowerVariancePenalty:    s.PowerVariancePenalty,
		SternLoadingPenalty:     s.SternLoadingPenalty,
		DaysSinceBoatedPenalty:  s.DaysSinceBoatedPenalty,
	}
}

func (h *Handler) defaultMultiBoatWeights() optimizer.MultiBoatWeights {
	s := h.config.Scoring
	return optimizer.MultiBoatWeights{
		SidePreferencePenalty:    s.SidePreferencePenalty,
		ExperienceMixingPenalty:  s.MultiBoatExperienceMixPenalty,
		PowerVariancePenalty:     s.PowerVariancePenalty,
		SternLoadingPenalty:      s.SternLoadingPenalty,
		InterBoatVariancePenalty: s.InterBoatVariancePenalty,
		DaysSinceBoatedPenalty:   s.DaysSinceBoatedPenalty,
	}
}

// buildFactory 校验参数和权重，返回按名单创建优化器工厂的函数
func (h *Handler) buildFactory(boatSize int, multiBoat bool, params optimizer.Parameters, weights map[string]any) (func([]*domain.Athlete) optimizer.Factory, error) {
	if multiBoat {
		w, err := optimizer.MergeMultiBoatWeights(h.defaultMultiBoatWeights(), weights)
		if err != nil {
			return nil, err
		}
		return func(athletes []*domain.Athlete) optimizer.Factory {
			return func(seed int64) (optimizer.Optimizer, error) {
				return optimizer.NewMultiBoat(athletes, boatSize, params, w, rand.New(rand.NewSource(seed)))
			}
		}, nil
	}

	w, err := optimizer.MergeSingleBoatWeights(h.defaultSingleBoatWeights(), weights)
	if err != nil {
		return nil, err
	}
	return func(athletes []*domain.Athlete) optimizer.Factory {
		return func(seed int64) (optimizer.Optimizer, error) {
			return optimizer.NewSingleBoat(athletes, boatSize, params, w, rand.New(rand.NewSource(seed)))
		}
	}, nil
}

// toLineup 将优化结果转换为可以持久化的阵容
func toLineup(res *optimizer.Result, boatSize int, multiBoat bool) *domain.Lineup {
	lineup := &domain.Lineup{
		BoatSize:             boatSize,
		MultiBoat:            multiBoat,
		Cost:                 res.Cost,
		Boats:                make([]domain.LineupBoat, len(res.Boats)),
		UnassignedAthleteIDs: make([]int64, len(res.Unassigned)),
	}

	for i, boat := range res.Boats {
		lineup.Boats[i] = domain.LineupBoat{
			Number: i + 1,
			Seats:  make([]domain.LineupSeat, len(boat)),
		}
		for j, a := range boat {
			lineup.Boats[i].Seats[j] = domain.LineupSeat{
				Position:  j + 1,
				Side:      domain.SeatSide(j + 1),
				AthleteID: a.ID,
				Name:      a.Name,
			}
		}
	}

	for i, a := range res.Unassigned {
		lineup.UnassignedAthleteIDs[i] = a.ID
	}

	return lineup
}

// toResult 用数据库中的阵容和运动员重建优化结果，用于重新渲染报告
func toResult(lineup *domain.Lineup, athletes []*domain.Athlete) *optimizer.Result {
	byID := make(map[int64]*domain.Athlete, len(athletes))
	for _, a := range athletes {
		byID[a.ID] = a
	}

	res := &optimizer.Result{
		Boats:      make([][]*domain.Athlete, len(lineup.Boats)),
		Unassigned: make([]*domain.Athlete, 0, len(lineup.UnassignedAthleteIDs)),
		Cost:       lineup.Cost,
	}
	for i, boat := range lineup.Boats {
		res.Boats[i] = make([]*domain.Athlete, len(boat.Seats))
		for j, seat := range boat.Seats {
			a, ok := byID[seat.AthleteID]
			if !ok {
				a = &domain.Athlete{ID: seat.AthleteID, Name: seat.Name}
			}
			res.Boats[i][j] = a
		}
	}
	for _, id := range lineup.UnassignedAthleteIDs {
		if a, ok := byID[id]; ok {
			res.Unassigned = append(res.Unassigned, a)
		}
	}

	return res
}

// generationStatus 根据优化结果决定指标中的状态，超时但已有结果时采用该结果
// 客户端断开导致的取消不采用，此时没有人接收响应
func generationStatus(res *optimizer.Result, err error) (status string, partial bool) {
	switch {
	case err == nil:
		return "succeeded", false
	case res != nil && errors.Is(err, context.DeadlineExceeded):
		return "timeout", true
	default:
		return "failed", false
	}
}

func (h *Handler) cacheReport(lineupID int64, report string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, reportCacheKey(lineupID), report, time.Duration(h.config.Redis.ReportExpiration)*time.Second).Err(); err != nil {
		// 报告可以随时重建，缓存失败不影响请求
		slog.Warn("缓存阵容报告失败", "lineupID", lineupID, "error", err)
	}
}

func (h *Handler) GenerateLineup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string         `json:"name" validate:"omitempty,max=64"`
		BoatType   int            `json:"boatType" validate:"required,oneof=4 8"`
		MultiBoat  bool           `json:"multiBoat"`
		Runs       int            `json:"runs" validate:"omitempty,min=1"`
		Parameters map[string]any `json:"parameters"`
		Weights    map[string]any `json:"weights"`
		AthleteIDs []int64        `json:"athleteIDs" validate:"omitempty,unique"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Runs == 0 {
		req.Runs = 1
	}
	if req.Runs > h.config.Annealing.MaxRuns {
		h.errorResponse(w, r, fmt.Sprintf("运行次数不能超过 %d", h.config.Annealing.MaxRuns))
		return
	}
	if req.Name == "" {
		req.Name = utils.GenerateRandomLineupName("阵容")
	}

	// 参数和权重在获取名单和加锁之前校验，出错时立即返回
	params, err := optimizer.MergeParameters(h.defaultParameters(), req.Parameters)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	newFactory, err := h.buildFactory(req.BoatType, req.MultiBoat, params, req.Weights)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	userID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	var athletes []*domain.Athlete
	if len(req.AthleteIDs) > 0 {
		athletes, err = h.repository.GetAthletesByIDs(req.AthleteIDs)
		if err == nil {
			err = utils.ValidateAthleteIDs(req.AthleteIDs, athletes)
			if err != nil {
				h.badRequest(w, r, err)
				return
			}
		}
	} else {
		athletes, err = h.repository.GetAllAthletes()
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	release, err := h.acquireGenerationLock()
	if err != nil {
		if errors.Is(err, errLockHeld) {
			h.errorResponse(w, r, err.Error())
			return
		}
		h.internalServerError(w, r, err)
		return
	}
	defer release()

	mode := generationMode(req.MultiBoat)
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Annealing.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	res, best, err := optimizer.RunBest(ctx, req.Runs, time.Now().UnixNano(), newFactory(athletes))
	lineupGenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	status, partial := generationStatus(res, err)
	lineupGenerationsTotal.WithLabelValues(mode, status).Inc()
	if err != nil && !partial {
		switch {
		case errors.Is(err, optimizer.ErrNotEnoughAthletes), errors.Is(err, domain.ErrInvalidBoatSize):
			h.badRequest(w, r, err)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			h.errorResponse(w, r, "排艇超时，请减少运行次数或迭代次数")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if partial {
		slog.Warn("排艇超时，采用目前的最优结果", "mode", mode, "cost", res.Cost)
	}
	lineupBestCost.WithLabelValues(mode).Observe(res.Cost)
	lineupEvaluationsTotal.WithLabelValues(mode).Add(float64(res.Stats.Evaluations))

	lineup := toLineup(res, req.BoatType, req.MultiBoat)
	lineup.Name = req.Name
	lineup.Runs = req.Runs
	lineup.CreatedBy = userID

	if err := utils.ValidateLineup(lineup, athletes); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.repository.InsertLineup(lineup); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	report := best.Report()
	h.cacheReport(lineup.ID, report)

	slog.Info("已生成阵容", "lineupID", lineup.ID, "mode", mode, "runs", req.Runs, "cost", res.Cost, "duration", res.Stats.Duration)

	msg := "生成阵容成功"
	if partial {
		msg = "排艇超时，已保存目前找到的最优阵容"
	}
	h.successResponse(w, r, msg, map[string]any{
		"lineup":  lineup,
		"stats":   res.Stats,
		"report":  report,
		"partial": partial,
	})
}

func (h *Handler) GetAllLineups(w http.ResponseWriter, r *http.Request) {
	lineups, err := h.repository.GetAllLineups()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取阵容列表成功", lineups)
}

func (h *Handler) GetLineup(w http.ResponseWriter, r *http.Request) {
	lineup := r.Context().Value(LineupCtx).(*domain.Lineup)
	h.successResponse(w, r, "获取阵容成功", lineup)
}

// GetLineupReport 优先返回缓存的报告，缓存失效时用当前的运动员数据重新渲染
func (h *Handler) GetLineupReport(w http.ResponseWriter, r *http.Request) {
	lineup := r.Context().Value(LineupCtx).(*domain.Lineup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	report, err := h.redisClient.Get(ctx, reportCacheKey(lineup.ID)).Result()
	switch {
	case err == nil:
		h.successResponse(w, r, "获取阵容报告成功", report)
		return
	case !errors.Is(err, redis.Nil):
		slog.Warn("读取阵容报告缓存失败", "lineupID", lineup.ID, "error", err)
	}

	ids := append(lineup.BoatedAthleteIDs(), lineup.UnassignedAthleteIDs...)
	athletes, err := h.repository.GetAthletesByIDs(ids)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	report = optimizer.RenderReport(toResult(lineup, athletes), lineup.MultiBoat)
	h.cacheReport(lineup.ID, report)

	h.successResponse(w, r, "获取阵容报告成功", report)
}

// PublishLineup 发布阵容：更新等待天数，并通知上艇的运动员
func (h *Handler) PublishLineup(w http.ResponseWriter, r *http.Request) {
	lineup := r.Context().Value(LineupCtx).(*domain.Lineup)

	if err := h.repository.PublishLineup(lineup); err != nil {
		switch {
		case errors.Is(err, repository.ErrLineupAlreadyPublished):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	athletes, err := h.repository.GetAthletesByIDs(lineup.BoatedAthleteIDs())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	emails := make(map[int64]*domain.Athlete, len(athletes))
	for _, a := range athletes {
		emails[a.ID] = a
	}

	notified := 0
	for _, boat := range lineup.Boats {
		for _, seat := range boat.Seats {
			a, ok := emails[seat.AthleteID]
			if !ok || a.Email == "" {
				continue
			}

			if err := h.publishMail(domain.MailMessage{
				Type: domain.MailTypeLineupPublished,
				To:   a.Email,
				Data: domain.LineupPublishedMailData{
					AthleteName: a.Name,
					LineupName:  lineup.Name,
					BoatNumber:  boat.Number,
					Position:    seat.Position,
					Side:        seat.Side,
				},
			}); err != nil {
				// 阵容已经发布，通知失败不回滚
				slog.Error("发送阵容通知失败", "lineupID", lineup.ID, "athlete", a.Name, "error", err)
				continue
			}
			notified++
		}
	}

	h.successResponse(w, r, fmt.Sprintf("发布阵容成功，已通知 %d 名运动员", notified), lineup)
}

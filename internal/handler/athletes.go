package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/roster"
)

func (h *Handler) CreateAthlete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string   `json:"name" validate:"required,max=64"`
		Email             string   `json:"email" validate:"omitempty,email"`
		ErgScore          float64  `json:"ergScore" validate:"required,gt=0"`
		Is6k              bool     `json:"is6k"`
		SidePreference    string   `json:"sidePreference" validate:"required,oneof=port starboard both"`
		Experience        string   `json:"experience" validate:"required,oneof=novice varsity"`
		AttendanceHistory []string `json:"attendanceHistory" validate:"dive,oneof=yes no"`
		DaysSinceBoated   int32    `json:"daysSinceBoated" validate:"min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	athlete := &domain.Athlete{
		Name:              req.Name,
		Email:             req.Email,
		ErgScore:          req.ErgScore,
		SidePreference:    domain.Side(req.SidePreference),
		Experience:        domain.Experience(req.Experience),
		AttendanceHistory: make([]domain.Attendance, len(req.AttendanceHistory)),
		DaysSinceBoated:   req.DaysSinceBoated,
	}
	for i, record := range req.AttendanceHistory {
		athlete.AttendanceHistory[i] = domain.Attendance(record)
	}
	if req.Is6k {
		athlete.ErgScore = domain.Convert6kTo2k(req.ErgScore)
	}

	if err := h.repository.CreateAthlete(athlete); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "athletes_name_key" {
			h.errorResponse(w, r, "运动员姓名已存在")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建运动员成功", athlete)
}

func (h *Handler) GetAllAthletes(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.repository.GetAllAthletes()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取运动员列表成功", athletes)
}

func (h *Handler) GetAthlete(w http.ResponseWriter, r *http.Request) {
	athlete := r.Context().Value(AthleteCtx).(*domain.Athlete)
	h.successResponse(w, r, "获取运动员信息成功", athlete)
}

func (h *Handler) UpdateAthlete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            *string  `json:"name" validate:"omitempty,min=1,max=64"`
		Email           *string  `json:"email" validate:"omitempty,email"`
		ErgScore        *float64 `json:"ergScore" validate:"omitempty,gt=0"`
		SidePreference  *string  `json:"sidePreference" validate:"omitempty,oneof=port starboard both"`
		Experience      *string  `json:"experience" validate:"omitempty,oneof=novice varsity"`
		DaysSinceBoated *int32   `json:"daysSinceBoated" validate:"omitempty,min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	athlete := r.Context().Value(AthleteCtx).(*domain.Athlete)

	if req.Name != nil {
		athlete.Name = *req.Name
	}
	if req.Email != nil {
		athlete.Email = *req.Email
	}
	if req.ErgScore != nil {
		athlete.ErgScore = *req.ErgScore
	}
	if req.SidePreference != nil {
		athlete.SidePreference = domain.Side(*req.SidePreference)
	}
	if req.Experience != nil {
		athlete.Experience = domain.Experience(*req.Experience)
	}
	if req.DaysSinceBoated != nil {
		athlete.DaysSinceBoated = *req.DaysSinceBoated
	}

	if err := h.repository.UpdateAthlete(athlete); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "athletes_name_key":
			h.errorResponse(w, r, "运动员姓名已存在")
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新运动员信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新运动员信息成功", athlete)
}

func (h *Handler) DeleteAthlete(w http.ResponseWriter, r *http.Request) {
	athlete := r.Context().Value(AthleteCtx).(*domain.Athlete)

	if err := h.repository.DeleteAthlete(athlete.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			h.errorResponse(w, r, "该运动员已出现在阵容中，无法删除")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除运动员成功", nil)
}

// AppendAttendance 记录一次训练的出勤情况
func (h *Handler) AppendAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Present *bool `json:"present" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	athlete := r.Context().Value(AthleteCtx).(*domain.Athlete)

	record := domain.AttendanceAbsent
	if *req.Present {
		record = domain.AttendancePresent
	}

	if err := h.repository.AppendAttendance(athlete.ID, record); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	athlete.AttendanceHistory = append(athlete.AttendanceHistory, record)

	h.successResponse(w, r, "记录出勤成功", athlete)
}

// ImportAthletes 导入名单文件，请求体即名单 JSON，?convert6k=true 时将成绩视为 6k
func (h *Handler) ImportAthletes(w http.ResponseWriter, r *http.Request) {
	convert6k := false
	if v := r.URL.Query().Get("convert6k"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.errorResponse(w, r, "convert6k 参数无效")
			return
		}
		convert6k = parsed
	}

	data, err := h.readBody(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	athletes, err := roster.Parse(data, convert6k)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.ImportAthletes(athletes); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "导入名单成功", athletes)
}

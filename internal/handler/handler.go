package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/config"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.metrics)

	h.Mux.Handle("/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	headCoachOnly := h.RequiredRole([]domain.Role{domain.RoleHeadCoach})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(headCoachOnly).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(headCoachOnly).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(headCoachOnly).Delete("/", h.DeleteUser)
				r.With(headCoachOnly).Post("/reset-password", h.ResetUserPassword)
			})
		})

		r.Route("/athletes", func(r chi.Router) {
			r.Post("/", h.CreateAthlete)
			r.Get("/", h.GetAllAthletes)
			r.Post("/import", h.ImportAthletes)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.athleteInfo)
				r.Get("/", h.GetAthlete)
				r.Patch("/", h.UpdateAthlete)
				r.With(headCoachOnly).Delete("/", h.DeleteAthlete)
				r.Post("/attendance", h.AppendAttendance)
			})
		})

		r.Route("/lineups", func(r chi.Router) {
			r.Get("/", h.GetAllLineups)
			r.Post("/generate", h.GenerateLineup)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.lineupInfo)
				r.Get("/", h.GetLineup)
				r.Get("/report", h.GetLineupReport)
				r.With(headCoachOnly).Post("/publish", h.PublishLineup)
			})
		})
	})
}

package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"` // 生成阵容可能耗时较长
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Migration struct {
		SourceURL string `env:"SOURCE_URL" envDefault:"file://migrations"`
		AutoRun   bool   `env:"AUTO_RUN" envDefault:"true"`
	} `envPrefix:"MIGRATION_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"主教练"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		LockExpiration      int    `env:"LOCK_EXPIRATION" envDefault:"300"`    // 生成阵容的锁
		ReportExpiration    int    `env:"REPORT_EXPIRATION" envDefault:"86400"` // 缓存的文字报告
	} `envPrefix:"REDIS_"`
	Annealing struct {
		InitialTemp       float64 `env:"INITIAL_TEMP" envDefault:"1000"`
		CoolingRate       float64 `env:"COOLING_RATE" envDefault:"0.95"`
		MinTemp           float64 `env:"MIN_TEMP" envDefault:"1"`
		IterationsPerTemp int     `env:"ITERATIONS_PER_TEMP" envDefault:"100"`
		CoolingSchedule   string  `env:"COOLING_SCHEDULE" envDefault:"exponential"`
		MaxRuns           int     `env:"MAX_RUNS" envDefault:"16"`
		Timeout           int     `env:"TIMEOUT" envDefault:"90"`
	} `envPrefix:"ANNEALING_"`
	Scoring struct {
		SidePreferencePenalty         float64 `env:"SIDE_PREFERENCE_PENALTY" envDefault:"100"`
		ExperienceMixingPenalty       float64 `env:"EXPERIENCE_MIXING_PENALTY" envDefault:"10"`
		MultiBoatExperienceMixPenalty float64 `env:"MULTI_BOAT_EXPERIENCE_MIXING_PENALTY" envDefault:"1000"`
		PowerVariancePenalty          float64 `env:"POWER_VARIANCE_PENALTY" envDefault:"0.1"`
		SternLoadingPenalty           float64 `env:"STERN_LOADING_PENALTY" envDefault:"15"`
		InterBoatVariancePenalty      float64 `env:"INTER_BOAT_VARIANCE_PENALTY" envDefault:"100"`
		DaysSinceBoatedPenalty        float64 `env:"DAYS_SINCE_BOATED_PENALTY" envDefault:"5"`
	} `envPrefix:"SCORING_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

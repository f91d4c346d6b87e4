package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App             App             `mapstructure:",squash"`
	Server          Server          `mapstructure:",squash"`
	Database        Database        `mapstructure:",squash"`
	Auth            Auth            `mapstructure:",squash"`
	BudgetSweep     SweepJob        `mapstructure:",squash"`
	DaypartingSweep DaypartingJob   `mapstructure:",squash"`
	Reactivation    ReactivationJob `mapstructure:",squash"`
	BudgetResets    BudgetResets    `mapstructure:",squash"`
	SpendSimulation SpendSimulation `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type Auth struct {
	Secret              string `mapstructure:"auth_secret"`
	BootstrapAdminEmail string `mapstructure:"auth_bootstrap_admin_email"`
	BootstrapAdminPass  string `mapstructure:"auth_bootstrap_admin_password"`
}

type SweepJob struct {
	CronSchedule string `mapstructure:"budget_sweep_cron"`
	Enabled      bool   `mapstructure:"budget_sweep_enabled"`
}

type DaypartingJob struct {
	CronSchedule string `mapstructure:"dayparting_sweep_cron"`
	Enabled      bool   `mapstructure:"dayparting_sweep_enabled"`
}

type ReactivationJob struct {
	CronSchedule string `mapstructure:"reactivation_sweep_cron"`
	Enabled      bool   `mapstructure:"reactivation_sweep_enabled"`
}

type BudgetResets struct {
	DailyCronSchedule   string `mapstructure:"daily_reset_cron"`
	MonthlyCronSchedule string `mapstructure:"monthly_reset_cron"`
	Enabled             bool   `mapstructure:"budget_resets_enabled"`
}

type SpendSimulation struct {
	CronSchedule string  `mapstructure:"spend_simulation_cron"`
	Enabled      bool    `mapstructure:"spend_simulation_enabled"`
	MinAmount    float64 `mapstructure:"spend_simulation_min_amount"`
	MaxAmount    float64 `mapstructure:"spend_simulation_max_amount"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/budget")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("AUTH_SECRET", "your_auth_secret")
	viper.SetDefault("AUTH_BOOTSTRAP_ADMIN_EMAIL", "admin@local")
	viper.SetDefault("AUTH_BOOTSTRAP_ADMIN_PASSWORD", "")

	// Varredura de orçamento: frequente, o custo é uma consulta por entidade
	viper.SetDefault("BUDGET_SWEEP_CRON", "*/5 * * * *")
	viper.SetDefault("BUDGET_SWEEP_ENABLED", true)

	// Dayparting muda no máximo uma vez por hora; rodar na virada da hora
	viper.SetDefault("DAYPARTING_SWEEP_CRON", "0 * * * *")
	viper.SetDefault("DAYPARTING_SWEEP_ENABLED", true)

	viper.SetDefault("REACTIVATION_SWEEP_CRON", "*/15 * * * *")
	viper.SetDefault("REACTIVATION_SWEEP_ENABLED", true)

	// Resets na virada do dia e do mês; a varredura seguinte reavalia status
	viper.SetDefault("DAILY_RESET_CRON", "0 0 * * *")
	viper.SetDefault("MONTHLY_RESET_CRON", "0 0 1 * *")
	viper.SetDefault("BUDGET_RESETS_ENABLED", true)

	// Gerador de gasto sintético, apenas para demonstração
	viper.SetDefault("SPEND_SIMULATION_CRON", "* * * * *")
	viper.SetDefault("SPEND_SIMULATION_ENABLED", false)
	viper.SetDefault("SPEND_SIMULATION_MIN_AMOUNT", 1.0)
	viper.SetDefault("SPEND_SIMULATION_MAX_AMOUNT", 5.0)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis de ambiente (viper não conseguiu ler .env):", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado de:", location)
			return
		}
	}

	logrus.Debug("Nenhum arquivo .env encontrado; seguindo só com o ambiente")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/Lumos-Labs-HQ/dentseed/internal/seeder"
)

const (
	FileName  = "dentseed.config"
	EnvPrefix = "DENTSEED"
)

var Providers = []interface{}{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}

type Config struct {
	ExportPath string         `json:"export_path" mapstructure:"export_path"`
	Database   Database       `json:"database" mapstructure:"database"`
	Seed       seeder.Options `json:"seed" mapstructure:"seed"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
	// Driver overrides the PostgreSQL driver: "pgx" (default) or "pq".
	Driver string `json:"driver,omitempty" mapstructure:"driver"`
}

// SetDefaults registers every key so that environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("export_path", "db/export")
	v.SetDefault("database.provider", "postgresql")
	v.SetDefault("database.url_env", "DATABASE_URL")
	v.SetDefault("database.driver", "")

	d := seeder.DefaultOptions()
	v.SetDefault("seed.office_count", d.OfficeCount)
	v.SetDefault("seed.guardian_count", d.GuardianCount)
	v.SetDefault("seed.insurance_company_count", d.InsuranceCompanyCount)
	v.SetDefault("seed.unpaid_invoice_likelihood", d.UnpaidInvoiceLikelihood)
	v.SetDefault("seed.random_seed", d.RandomSeed)
	ranges := map[string]seeder.Range{
		"dentists_per_office":        d.DentistsPerOffice,
		"children_per_guardian":      d.ChildrenPerGuardian,
		"plans_per_company":          d.PlansPerCompany,
		"plans_per_patient":          d.PlansPerPatient,
		"appointments_per_patient":   d.AppointmentsPerPatient,
		"procedures_per_appointment": d.ProceduresPerAppointment,
		"payments_per_invoice":       d.PaymentsPerInvoice,
	}
	for key, r := range ranges {
		v.SetDefault("seed."+key+".min", r.Min)
		v.SetDefault("seed."+key+".max", r.Max)
	}
}

// Setup points v at the config file and the environment and reads the file.
// A missing default config file is not an error; a missing explicit one is.
func Setup(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("json")
		v.SetConfigName(FileName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	db := c.Database
	if err := validation.ValidateStruct(&db,
		validation.Field(&db.Provider, validation.Required, validation.In(Providers...)),
		validation.Field(&db.URLEnv, validation.Required),
		validation.Field(&db.Driver, validation.In("pgx", "pq", "postgres")),
	); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	if c.ExportPath == "" {
		return fmt.Errorf("export_path cannot be empty")
	}
	return c.Seed.Validate()
}

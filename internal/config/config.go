package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SourceToggle struct {
	Enabled bool `yaml:"enabled"`
}

type ArbeitnowSource struct {
	Enabled  bool `yaml:"enabled"`
	MaxPages int  `yaml:"max_pages"`
}

type GoogleJobsSource struct {
	Enabled  bool `yaml:"enabled"`
	MaxTerms int  `yaml:"max_terms"`
}

type DigestConfig struct {
	Enabled    bool     `yaml:"enabled"`
	MaxJobs    int      `yaml:"max_jobs"`
	FromName   string   `yaml:"from_name"`
	Recipients []string `yaml:"recipients"`
}

type EmailAlertSource struct {
	Enabled        bool     `yaml:"enabled"`
	IMAPHost       string   `yaml:"imap_host"`
	IMAPPort       int      `yaml:"imap_port"`
	Username       string   `yaml:"username"`
	Mailbox        string   `yaml:"mailbox"`
	SubjectAny     []string `yaml:"subject_any"`
	MaxMessages    int      `yaml:"max_messages"`
	LookbackMonths int      `yaml:"lookback_months"`
}

type Config struct {
	App struct {
		Port     int    `yaml:"port"`
		DataDir  string `yaml:"data_dir"`
		Timezone string `yaml:"timezone"`
	} `yaml:"app"`

	Search struct {
		Keywords     []string `yaml:"keywords"`
		Designations []string `yaml:"designations"`
		Fields       []string `yaml:"fields"`
		Locations    []string `yaml:"locations"`
	} `yaml:"search"`

	Retention struct {
		KeepDays      int `yaml:"keep_days"`
		LookbackHours int `yaml:"lookback_hours"`
	} `yaml:"retention"`

	Digest DigestConfig `yaml:"digest"`

	Serve struct {
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"serve"`

	Sources struct {
		Remotive   SourceToggle     `yaml:"remotive"`
		RemoteOK   SourceToggle     `yaml:"remoteok"`
		Arbeitnow  ArbeitnowSource  `yaml:"arbeitnow"`
		GoogleJobs GoogleJobsSource `yaml:"google_jobs"`
		EmailAlert EmailAlertSource `yaml:"email_alerts"`
	} `yaml:"sources"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // US/Eastern must resolve on minimal images

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration errors. These are fatal to a run: nothing is sent when one is
// returned.
var (
	ErrMissingSender   = errors.New("FROM_EMAIL is not configured")
	ErrUnknownSequence = errors.New("unknown outreach sequence")
	ErrUnknownCampaign = errors.New("unknown campaign")
	ErrInvalid         = errors.New("invalid configuration")
)

// DefaultGoLive is used when GO_LIVE_DATE is missing or malformed.
var DefaultGoLive = time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)

// DefaultSequenceKey names the sequence the environment overrides apply to.
const DefaultSequenceKey = "speaking"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Outreach  OutreachConfig            `yaml:"outreach"`
	Email     EmailConfig               `yaml:"email"`
	SES       SESConfig                 `yaml:"ses"`
	Storage   StorageConfig             `yaml:"storage"`
	Search    SearchConfig              `yaml:"search"`
	Redis     RedisConfig               `yaml:"redis"`
	Reports   ReportsConfig             `yaml:"reports"`
	Campaigns map[string]CampaignConfig `yaml:"campaigns"`

	// CampaignsFile names a YAML file of additional campaigns, resolved
	// relative to the main configuration file.
	CampaignsFile string `yaml:"campaigns_file"`
}

// ServerConfig holds HTTP trigger server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// OutreachConfig holds the engine-wide knobs and the named sequences.
type OutreachConfig struct {
	Timezone        string                    `yaml:"timezone"`
	TestMode        bool                      `yaml:"test_mode"`
	SendDelayMinMS  int                       `yaml:"send_delay_min_ms"`
	SendDelayMaxMS  int                       `yaml:"send_delay_max_ms"`
	DefaultSequence string                    `yaml:"default_sequence"`
	Sequences       map[string]SequenceConfig `yaml:"sequences"`
}

// Location resolves the configured time zone. Calendar days, holidays and
// elapsed-day arithmetic are all computed in this zone.
func (c OutreachConfig) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = "US/Eastern"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

// SendDelay returns the pacing window between successful sends.
func (c OutreachConfig) SendDelay() (time.Duration, time.Duration) {
	return time.Duration(c.SendDelayMinMS) * time.Millisecond, time.Duration(c.SendDelayMaxMS) * time.Millisecond
}

// SequenceConfig parametrizes one outreach sequence: its limits, its length
// and its templates. Numeric fields missing from the file and the environment
// are filled from the default sequence; an explicit 0 is kept, so
// daily_total_limit: 0 pauses sending.
type SequenceConfig struct {
	DailyTotalLimit      int              `yaml:"daily_total_limit"`
	MaxPerDomainPerDay   int              `yaml:"max_per_domain_per_day"`
	MaxSequenceSteps     int              `yaml:"max_sequence_steps"`
	InitialFollowupDays  int              `yaml:"initial_followup_days"`
	FollowupIntervalDays int              `yaml:"followup_interval_days"`
	AbandonAfterDays     int              `yaml:"abandon_after_days"`
	OnlyEduEmails        bool             `yaml:"only_edu_emails"`
	EduSuffix            string           `yaml:"edu_suffix"`
	GoLiveDate           string           `yaml:"go_live_date"`
	Sources              []string         `yaml:"sources"` // empty = every source
	Signature            string           `yaml:"signature"`
	Templates            []TemplateConfig `yaml:"templates"`

	// explicit holds the yaml keys set by the file or the environment.
	explicit map[string]bool
}

// UnmarshalYAML decodes the sequence and remembers which keys were present.
func (c *SequenceConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain SequenceConfig
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		c.markSet(n.Content[i].Value)
	}
	return nil
}

func (c *SequenceConfig) markSet(key string) {
	if c.explicit == nil {
		c.explicit = make(map[string]bool)
	}
	c.explicit[key] = true
}

// intDefault fills *dst from def unless key was configured explicitly.
func (c *SequenceConfig) intDefault(key string, dst *int, def int) {
	if !c.explicit[key] && *dst == 0 {
		*dst = def
	}
}

// GoLive parses GoLiveDate in loc, falling back to DefaultGoLive when it is
// missing or malformed.
func (c SequenceConfig) GoLive(loc *time.Location) time.Time {
	if t, err := time.ParseInLocation("2006-01-02", c.GoLiveDate, loc); err == nil {
		return t
	}
	return time.Date(DefaultGoLive.Year(), DefaultGoLive.Month(), DefaultGoLive.Day(), 0, 0, 0, 0, loc)
}

// TemplateConfig is one step of a message sequence, written in Liquid.
type TemplateConfig struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// EmailConfig holds sender and report addresses
type EmailConfig struct {
	From          string `yaml:"from"`
	ReportTo      string `yaml:"report_to"`
	TestRecipient string `yaml:"test_recipient"`
	ReplyTo       string `yaml:"reply_to"`
}

// ReportRecipient returns the report address, defaulting to the sender.
func (c EmailConfig) ReportRecipient() string {
	if c.ReportTo != "" {
		return c.ReportTo
	}
	return c.From
}

// TestRecipientAddress returns where test-mode samples go.
func (c EmailConfig) TestRecipientAddress() string {
	if c.TestRecipient != "" {
		return c.TestRecipient
	}
	return c.ReportRecipient()
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`
	ConfigurationSet string `yaml:"configuration_set"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	DryRun           bool   `yaml:"dry_run"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig holds contact store configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // dynamodb | postgres | sqlite | memory
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	DatabaseURL   string `yaml:"database_url"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// SearchConfig holds lead discovery settings
type SearchConfig struct {
	GoogleAPIKey    string `yaml:"google_api_key"`
	GoogleCX        string `yaml:"google_cx"`
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
	UserAgent       string `yaml:"user_agent"`
	FallbackResults int    `yaml:"fallback_results"`
}

// Timeout returns the per-call timeout for search and page fetches.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the run lease backend
type RedisConfig struct {
	URL            string `yaml:"url"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the lease duration for one run.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ReportsConfig holds report delivery and archive settings
type ReportsConfig struct {
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	ReplyPeriod string `yaml:"reply_period"` // weekly | monthly
}

// CampaignConfig is one named search configuration used by lead capture.
type CampaignConfig struct {
	Queries            []string `yaml:"queries"`
	MaxResultsPerQuery int      `yaml:"max_results_per_query"`
	Feeds              []string `yaml:"feeds"`
	Segment            string   `yaml:"segment"`
}

// Default returns a configuration with every default applied and no file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.CampaignsFile != "" {
		file := cfg.CampaignsFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(path), file)
		}
		if err := cfg.MergeCampaigns(file); err != nil {
			return nil, err
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// MergeCampaigns reads a file holding a "campaigns" map and adds its
// entries. Campaigns already defined keep their definition.
func (c *Config) MergeCampaigns(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading campaigns: %w", err)
	}
	var file struct {
		Campaigns map[string]CampaignConfig `yaml:"campaigns"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing campaigns %s: %w", path, err)
	}
	if c.Campaigns == nil {
		c.Campaigns = make(map[string]CampaignConfig, len(file.Campaigns))
	}
	for key, cc := range file.Campaigns {
		if _, ok := c.Campaigns[key]; !ok {
			c.Campaigns[key] = cc
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Outreach.Timezone == "" {
		cfg.Outreach.Timezone = "US/Eastern"
	}
	if cfg.Outreach.SendDelayMinMS == 0 && cfg.Outreach.SendDelayMaxMS == 0 {
		cfg.Outreach.SendDelayMinMS = 1000
		cfg.Outreach.SendDelayMaxMS = 3000
	}
	if cfg.Outreach.DefaultSequence == "" {
		cfg.Outreach.DefaultSequence = DefaultSequenceKey
	}
	if cfg.Outreach.Sequences == nil {
		cfg.Outreach.Sequences = make(map[string]SequenceConfig)
	}
	def := cfg.Outreach.Sequences[cfg.Outreach.DefaultSequence]
	fillSequenceDefaults(&def)
	cfg.Outreach.Sequences[cfg.Outreach.DefaultSequence] = def

	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "dynamodb"
	}
	if cfg.Storage.DynamoDBTable == "" {
		cfg.Storage.DynamoDBTable = "speaking-leads-v3-multi"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./data/outreach.db"
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.Search.TimeoutSeconds == 0 {
		cfg.Search.TimeoutSeconds = 15
	}
	if cfg.Search.MaxRetries == 0 {
		cfg.Search.MaxRetries = 2
	}
	if cfg.Search.UserAgent == "" {
		cfg.Search.UserAgent = "Mozilla/5.0 (compatible; SpeakingAgent/1.0; +https://example.com)"
	}
	if cfg.Search.FallbackResults == 0 {
		cfg.Search.FallbackResults = 3
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 900
	}
	if cfg.Reports.ReplyPeriod == "" {
		cfg.Reports.ReplyPeriod = "weekly"
	}
	if cfg.Reports.Region == "" {
		cfg.Reports.Region = cfg.Storage.AWSRegion
	}
	fillCampaignDefaults(cfg)
}

func fillCampaignDefaults(cfg *Config) {
	for key, c := range cfg.Campaigns {
		if c.MaxResultsPerQuery == 0 {
			c.MaxResultsPerQuery = 5
		}
		cfg.Campaigns[key] = c
	}
}

func fillSequenceDefaults(s *SequenceConfig) {
	s.intDefault("daily_total_limit", &s.DailyTotalLimit, 50)
	s.intDefault("max_per_domain_per_day", &s.MaxPerDomainPerDay, 3)
	s.intDefault("max_sequence_steps", &s.MaxSequenceSteps, 5)
	s.intDefault("initial_followup_days", &s.InitialFollowupDays, 4)
	s.intDefault("followup_interval_days", &s.FollowupIntervalDays, 7)
	s.intDefault("abandon_after_days", &s.AbandonAfterDays, 30)
	if s.EduSuffix == "" {
		s.EduSuffix = ".edu"
	}
	if s.GoLiveDate == "" {
		s.GoLiveDate = DefaultGoLive.Format("2006-01-02")
	}
	if s.Signature == "" {
		s.Signature = "Tawan"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
// An empty path skips the file and starts from defaults.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("CAMPAIGNS_FILE"); v != "" {
		if err := cfg.MergeCampaigns(v); err != nil {
			return nil, err
		}
		fillCampaignDefaults(cfg)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	seq := cfg.Outreach.Sequences[cfg.Outreach.DefaultSequence]
	ints := []struct {
		name string
		key  string // sequence yaml key, empty for engine-wide settings
		dst  *int
	}{
		{"DAILY_TOTAL_LIMIT", "daily_total_limit", &seq.DailyTotalLimit},
		{"MAX_PER_DOMAIN_PER_DAY", "max_per_domain_per_day", &seq.MaxPerDomainPerDay},
		{"MAX_SEQUENCE_STEPS", "max_sequence_steps", &seq.MaxSequenceSteps},
		{"INITIAL_FOLLOWUP_DAYS", "initial_followup_days", &seq.InitialFollowupDays},
		{"FOLLOWUP_INTERVAL_DAYS", "followup_interval_days", &seq.FollowupIntervalDays},
		{"ABANDON_AFTER_DAYS", "abandon_after_days", &seq.AbandonAfterDays},
		{"SEND_DELAY_MIN_MS", "", &cfg.Outreach.SendDelayMinMS},
		{"SEND_DELAY_MAX_MS", "", &cfg.Outreach.SendDelayMaxMS},
		{"SERVER_PORT", "", &cfg.Server.Port},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
		if v.key != "" {
			seq.markSet(v.key)
		}
	}
	if v, ok := envBool("ONLY_EDU_EMAILS"); ok {
		seq.OnlyEduEmails = v
	}
	if v := os.Getenv("GO_LIVE_DATE"); v != "" {
		seq.GoLiveDate = v
	}
	cfg.Outreach.Sequences[cfg.Outreach.DefaultSequence] = seq

	if v, ok := envBool("TEST_MODE"); ok {
		cfg.Outreach.TestMode = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Outreach.Timezone = v
	}

	if v := os.Getenv("FROM_EMAIL"); v != "" {
		cfg.Email.From = v
	}
	if v := os.Getenv("REPORT_EMAIL"); v != "" {
		cfg.Email.ReportTo = v
	}
	if v := os.Getenv("TEST_RECIPIENT_EMAIL"); v != "" {
		cfg.Email.TestRecipient = v
	}
	if v := os.Getenv("REPLY_TO_EMAIL"); v != "" {
		cfg.Email.ReplyTo = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("SES_CONFIGURATION_SET"); v != "" {
		cfg.SES.ConfigurationSet = v
	}
	if v, ok := envBool("SES_DRY_RUN"); ok {
		cfg.SES.DryRun = v
	}

	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("TABLE_NAME"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Search.GoogleAPIKey = v
	}
	if v := os.Getenv("GOOGLE_CX"); v != "" {
		cfg.Search.GoogleCX = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REPORT_BUCKET"); v != "" {
		cfg.Reports.Bucket = v
	}
	if v := os.Getenv("REPLY_REPORT_PERIOD"); v != "" {
		cfg.Reports.ReplyPeriod = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

func envBool(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	return strings.EqualFold(strings.TrimSpace(raw), "true"), true
}

// Sequence returns the named sequence with unset fields inherited from the
// default sequence. An empty key selects the default.
func (c *Config) Sequence(key string) (SequenceConfig, error) {
	if key == "" {
		key = c.Outreach.DefaultSequence
	}
	seq, ok := c.Outreach.Sequences[key]
	if !ok {
		return SequenceConfig{}, fmt.Errorf("%w: %q", ErrUnknownSequence, key)
	}
	def := c.Outreach.Sequences[c.Outreach.DefaultSequence]
	inheritSequence(&seq, def)
	return seq, nil
}

func inheritSequence(s *SequenceConfig, def SequenceConfig) {
	s.intDefault("daily_total_limit", &s.DailyTotalLimit, def.DailyTotalLimit)
	s.intDefault("max_per_domain_per_day", &s.MaxPerDomainPerDay, def.MaxPerDomainPerDay)
	s.intDefault("max_sequence_steps", &s.MaxSequenceSteps, def.MaxSequenceSteps)
	s.intDefault("initial_followup_days", &s.InitialFollowupDays, def.InitialFollowupDays)
	s.intDefault("followup_interval_days", &s.FollowupIntervalDays, def.FollowupIntervalDays)
	s.intDefault("abandon_after_days", &s.AbandonAfterDays, def.AbandonAfterDays)
	if s.EduSuffix == "" {
		s.EduSuffix = def.EduSuffix
	}
	if s.GoLiveDate == "" {
		s.GoLiveDate = def.GoLiveDate
	}
	if s.Signature == "" {
		s.Signature = def.Signature
	}
	if len(s.Templates) == 0 {
		s.Templates = def.Templates
	}
}

// SequenceKeys returns the configured sequence names, sorted.
func (c *Config) SequenceKeys() []string {
	keys := make([]string, 0, len(c.Outreach.Sequences))
	for k := range c.Outreach.Sequences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Campaign returns the named lead capture configuration.
func (c *Config) Campaign(key string) (CampaignConfig, error) {
	cc, ok := c.Campaigns[key]
	if !ok {
		return CampaignConfig{}, fmt.Errorf("%w: %q", ErrUnknownCampaign, key)
	}
	return cc, nil
}

// CampaignKeys returns the configured campaign names, sorted.
func (c *Config) CampaignKeys() []string {
	keys := make([]string, 0, len(c.Campaigns))
	for k := range c.Campaigns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateOutreach reports configuration problems that must abort an
// outreach run before anything is sent.
func (c *Config) ValidateOutreach() error {
	if strings.TrimSpace(c.Email.From) == "" {
		return ErrMissingSender
	}
	for _, key := range c.SequenceKeys() {
		seq, err := c.Sequence(key)
		if err != nil {
			return err
		}
		if seq.MaxSequenceSteps < 1 {
			return fmt.Errorf("%w: sequence %q: max_sequence_steps must be at least 1", ErrInvalid, key)
		}
		if len(seq.Templates) > 0 && len(seq.Templates) < seq.MaxSequenceSteps {
			return fmt.Errorf("%w: sequence %q: %d templates for %d steps", ErrInvalid, key, len(seq.Templates), seq.MaxSequenceSteps)
		}
	}
	if _, err := c.Outreach.Location(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate reports configuration errors that make every command unusable.
// Checks that only matter when mail goes out live in ValidateOutreach.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Type) {
	case "dynamodb", "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: storage.type %q: must be dynamodb, postgres, sqlite or memory", ErrInvalid, c.Storage.Type)
	}
	if strings.EqualFold(c.Storage.Type, "postgres") && c.Storage.DatabaseURL == "" {
		return fmt.Errorf("%w: storage.database_url is required for the postgres store", ErrInvalid)
	}
	if c.Outreach.SendDelayMinMS < 0 || c.Outreach.SendDelayMaxMS < c.Outreach.SendDelayMinMS {
		return fmt.Errorf("%w: outreach send delay %d..%dms is not a valid range", ErrInvalid, c.Outreach.SendDelayMinMS, c.Outreach.SendDelayMaxMS)
	}
	for _, key := range c.CampaignKeys() {
		cc := c.Campaigns[key]
		if len(cc.Queries) == 0 && len(cc.Feeds) == 0 {
			return fmt.Errorf("%w: campaign %q: needs queries or feeds", ErrInvalid, key)
		}
	}
	return nil
}

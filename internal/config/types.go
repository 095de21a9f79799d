package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"`
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Timezone       string                `yaml:"timezone"`
	Comments       CommentOptions        `yaml:"comments"`
	StaffUsernames []string              `yaml:"staff_usernames"`
}

// CommentOptions controls moderation of new comments. Comments flagged as
// spam are stored unapproved.
type CommentOptions struct {
	AntiSpam     bool     `yaml:"anti_spam"`
	SpamKeywords []string `yaml:"spam_keywords"`
	BlockIPs     []string `yaml:"block_ips"`
}

type DatabaseRuntimeConfig struct {
	Driver   string            `yaml:"driver"`
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Loc      string            `yaml:"loc"`
	Path     string            `yaml:"path"` // sqlite file
	Params   map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	Env                string            `yaml:"env"`
	Database           rawDatabaseConfig `yaml:"database"`
	DatabaseURL        string            `yaml:"database_url"`
	Redis              rawRedisConfig    `yaml:"redis"`
	RedisURL           string            `yaml:"redis_url"`
	Paths              rawPathsConfig    `yaml:"paths"`
	LogDir             string            `yaml:"log_dir"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	JWTSecret          string            `yaml:"jwt_secret"`
	Timezone           string            `yaml:"timezone"`
	TZ                 string            `yaml:"tz"`
	Comments           rawCommentConfig  `yaml:"comments"`
	StaffUsernames     []string          `yaml:"staff_usernames"`
}

type rawCommentConfig struct {
	AntiSpam     *bool    `yaml:"anti_spam"`
	SpamKeywords []string `yaml:"spam_keywords"`
	BlockIPs     []string `yaml:"block_ips"`
}

type rawDatabaseConfig struct {
	Driver   string            `yaml:"driver"`
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	DBName   string            `yaml:"db_name"`
	Loc      string            `yaml:"loc"`
	Path     string            `yaml:"path"`
	Params   map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

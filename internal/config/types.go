package config

import "time"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	SessionExpiry time.Duration `mapstructure:"session_expiry"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
}

type EmailConfig struct {
	SMTPHost    string        `mapstructure:"smtp_host"`
	SMTPPort    int           `mapstructure:"smtp_port"`
	SMTPUser    string        `mapstructure:"smtp_user"`
	SMTPPass    string        `mapstructure:"smtp_pass"`
	FromName    string        `mapstructure:"from_name"`
	FromAddress string        `mapstructure:"from_address"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type AppSettings struct {
	FrontendURL string `mapstructure:"frontend_url"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	App      AppSettings    `mapstructure:"app"`
}

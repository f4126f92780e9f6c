package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
	Issuer           string `mapstructure:"issuer"`
}

// AccessConfig controls the permission resolver and its decision cache.
type AccessConfig struct {
	// CacheDriver selects the decision cache backend: memory, redis or bitset.
	CacheDriver string `mapstructure:"cache_driver"`
	// CacheSize bounds the number of entries held by the in-memory backends.
	CacheSize int `mapstructure:"cache_size"`
	// CacheTTLSeconds is the lifetime of a cached permission decision.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	// SuperAdminTTLSeconds is the lifetime of a cached superadmin lookup.
	// Kept shorter than CacheTTLSeconds so a revoked superadmin loses the
	// bypass quickly.
	SuperAdminTTLSeconds int `mapstructure:"superadmin_ttl_seconds"`
	// CheckTimeoutMS bounds a single backing-store authorization call.
	CheckTimeoutMS int `mapstructure:"check_timeout_ms"`
	// Oracle selects the backing authorization check: rpc (Postgres
	// functions behind RLS) or casbin (embedded enforcer).
	Oracle string `mapstructure:"oracle"`
	// CasbinModelPath points at the casbin model file used by the embedded
	// oracle.
	CasbinModelPath string `mapstructure:"casbin_model_path"`
}

type AuditConfig struct {
	// BufferSize is the capacity of the async recorder queue. Entries are
	// dropped (and counted) when the queue is full.
	BufferSize int `mapstructure:"buffer_size"`
	// FlushIntervalMS controls how often buffered entries are written out.
	FlushIntervalMS int `mapstructure:"flush_interval_ms"`
	// BatchSize is the maximum number of entries written in one insert.
	BatchSize int `mapstructure:"batch_size"`
}

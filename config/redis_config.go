package config

// parameters for the Redis instance backing the completion registry and the
// translation cache
type redisConfig struct {
	// host:port of the Redis server
	Address string `yaml:"address"`
	// optional credentials
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// the Redis logical database number
	DB int `yaml:"db"`
	// time-to-live for per-file status entries (seconds); must be at least
	// the maximum reasonable task runtime
	StatusTTL int `yaml:"status_ttl"`
	// time-to-live for cached translations (seconds)
	CacheTTL int `yaml:"cache_ttl"`
}

func defaultRedisConfig() redisConfig {
	return redisConfig{
		Address:   "localhost:6379",
		StatusTTL: 3600,
		CacheTTL:  30 * 24 * 3600,
	}
}

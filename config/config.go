package config

type AppConfig struct {
	LogLevel    string
	PoolConfig  *PoolConfig
	RetryConfig *RetryConfig
	ListConfig  *ListConfig
}

func New() *AppConfig {
	return &AppConfig{
		LogLevel:    "info",
		PoolConfig:  NewPoolConfig(),
		RetryConfig: NewRetryConfig(),
		ListConfig:  NewListConfig(),
	}
}

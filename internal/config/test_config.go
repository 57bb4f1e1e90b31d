package config

import "time"

func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8081,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "telecom_test",
			User:     "test_user",
			Password: "test_password",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Groq: GroqConfig{
			APIKey:      "test-key",
			Model:       "llama3-8b-8192",
			MaxTokens:   500,
			Temperature: 0.7,
		},
		Context: ContextConfig{
			MaxChars:  800,
			PerDocCap: 500,
			MaxDocs:   2,
			TopN:      5,
		},
		Chat: ChatConfig{
			HistoryLimit:      50,
			RateLimitPerMin:   20,
			PasswordMinLength: 6,
		},
		Drive: DriveConfig{
			DownloadTimeout: 60 * time.Second,
		},
	}
}

package config

import "time"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		Rules: RulesConfig{
			CategoryThresholds: map[string]string{
				"PURCHASE":      "10000",
				"TRANSFER":      "50000",
				"ATM":           "3000",
				"ONLINE":        "8000",
				"INTERNATIONAL": "5000",
				"BILL_PAYMENT":  "20000",
			},
			DefaultThreshold:     "10000",
			BlacklistedMerchants: []string{"SCAM MART", "DODGY DEALS", "PHISH PAY"},
			HomeCountry:          "ZA",
			ForeignHighAmount:    "3000",
			VelocityWindow:       time.Minute,
			VelocityCount:        5,
			OddHoursStart:        0,
			OddHoursEnd:          5,
			OddHoursHighAmount:   "2000",
			NewDeviceHighAmount:  "5000",
			Timezone:             "UTC",
		},
		Notification: NotificationConfig{
			Workers:     3,
			QueueSize:   1000,
			SendTimeout: 10 * time.Second,
			Mail: MailConfig{
				Port: 587,
			},
			Kafka: KafkaConfig{
				Brokers: []string{},
				Topic:   "fraud-alerts",
			},
		},
	}
}

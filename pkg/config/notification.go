package config

type NotificationsConfig struct {
	Detailed     bool                `koanf:"detailed" yaml:"detailed"`
	SkipEmptyRun bool                `koanf:"skip_empty_run" yaml:"skip_empty_run"`
	Service      NotificationService `koanf:"service" yaml:"service"`
}

type NotificationService struct {
	Discord string `koanf:"discord" yaml:"discord"`
}

package bootstrap

import "github.com/kbukum/todoapi/config"

// Config is what NewApp needs from a service config. Embedding
// config.ServiceConfig provides GetServiceConfig.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

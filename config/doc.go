// Package config loads service configuration with Viper.
//
// Values come from an optional config.yml, an optional .env file and the
// process environment, in increasing precedence. Every mapstructure key of
// the target struct can be set from the environment under its upper-cased
// path with dots replaced by underscores: jwt.private_key_path is
// JWT_PRIVATE_KEY_PATH and database.url is DATABASE_URL.
//
//	var cfg Config
//	if err := config.Load("todoapi", &cfg, config.WithConfigFile(path)); err != nil {
//		return err
//	}
package config

package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/todoapi/logger"
)

// FileSystem is what the loader needs from the disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real file system.
type OSFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

type options struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// Option configures LoadConfig.
type Option func(*options)

// WithFileSystem replaces the file system used to find and read files.
func WithFileSystem(fs FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithConfigFile names the YAML file instead of searching for one.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile names the .env file instead of searching for one.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// Files are the sources a load reads. Empty means none was found.
type Files struct {
	Config string
	Env    string
}

// Locate picks the config and env files for service. Explicit paths win;
// otherwise the first existing candidate is used.
func Locate(service string, fs FileSystem, configFile, envFile string) Files {
	files := Files{Config: configFile, Env: envFile}
	if files.Config == "" {
		files.Config = firstExisting(fs,
			"./cmd/"+service+"/config.yml",
			"./configs/config.yml",
			"./config.yml",
		)
	}
	if files.Env == "" {
		files.Env = firstExisting(fs,
			".env."+service,
			".env",
			"./cmd/"+service+"/.env",
		)
	}
	return files
}

func firstExisting(fs FileSystem, paths ...string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg from the config file, the .env file and the process
// environment, in increasing precedence. Missing files are skipped; a config
// file that exists but does not parse is an error.
func LoadConfig(service string, cfg interface{}, opts ...Option) error {
	o := options{fs: OSFileSystem{}}
	for _, opt := range opts {
		opt(&o)
	}
	files := Locate(service, o.fs, o.configFile, o.envFile)
	log := logger.WithComponent("config")

	v := viper.New()
	if files.Config != "" {
		if o.fs.Exists(files.Config) {
			v.SetConfigFile(files.Config)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read %s: %w", files.Config, err)
			}
		} else {
			log.Warn("Config file not found", logger.Fields("path", files.Config))
		}
	}
	if files.Env != "" && o.fs.Exists(files.Env) {
		if err := o.fs.LoadEnv(files.Env); err != nil {
			log.Warn("Failed to load env file", logger.Fields("path", files.Env, logger.FieldError, err.Error()))
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindEnv(v, reflect.TypeOf(cfg), ""); err != nil {
		return err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config for %s: %w", service, err)
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// bindEnv registers every mapstructure key of t with v, so that
// JWT_PRIVATE_KEY_PATH reaches jwt.private_key_path even when the key is
// absent from the config file.
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, flags, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(flags, "squash") || (f.Anonymous && name == "") {
			if err := bindEnv(v, ft, prefix); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if ft.Kind() == reflect.Struct && ft != timeType {
			if err := bindEnv(v, ft, key); err != nil {
				return err
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Configurable is a config struct that knows its defaults and constraints.
type Configurable interface {
	ApplyDefaults()
	Validate() error
}

// Load runs LoadConfig, then applies defaults and validates cfg.
func Load(service string, cfg Configurable, opts ...Option) error {
	if err := LoadConfig(service, cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config for %s: %w", service, err)
	}
	return nil
}

/*
Package config loads process configuration from defaults, an optional yaml file and GLM_* environment
*/
package config

import (
	"github.com/spf13/viper"
	"go-ml.dev/pkg/zorros/zorros"
	"strings"
)

type Config struct {
	Registry RegistryConfig
	Server   ServerConfig
	Logger   LoggerConfig
	Training TrainingConfig
}

type RegistryConfig struct {
	DB  string // sqlite database path, registry is in memory only if empty
	Dir string // artifacts directory, models cache if empty
}

type ServerConfig struct {
	Listen string
}

type LoggerConfig struct {
	Verbose bool
	File    string
}

type TrainingConfig struct {
	Seed          int64
	MaxIterations int
}

/*
Load reads configuration, file is optional
*/
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("registry.db", "")
	v.SetDefault("registry.dir", "")
	v.SetDefault("server.listen", "127.0.0.1:54321")
	v.SetDefault("logger.verbose", false)
	v.SetDefault("logger.file", "")
	v.SetDefault("training.seed", -1)
	v.SetDefault("training.max_iterations", 50)

	v.SetEnvPrefix("GLM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, zorros.Wrapf(err, "failed to read config `%v`: %v", file, err.Error())
		}
	}

	return &Config{
		Registry: RegistryConfig{
			DB:  v.GetString("registry.db"),
			Dir: v.GetString("registry.dir"),
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Logger: LoggerConfig{
			Verbose: v.GetBool("logger.verbose"),
			File:    v.GetString("logger.file"),
		},
		Training: TrainingConfig{
			Seed:          v.GetInt64("training.seed"),
			MaxIterations: v.GetInt("training.max_iterations"),
		},
	}, nil
}

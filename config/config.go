package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/mempush/mempush/broadcaster"
	"github.com/mempush/mempush/db"
	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/metrics"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/reconciler"
	"github.com/mempush/mempush/server"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagNoMigrations is the flag for migrations.
	FlagNoMigrations = "no-migrations"
	// FlagNetwork is the flag to filter by network.
	FlagNetwork = "network"
	// FlagHideConfirmed is the flag to hide confirmed txs in listings.
	FlagHideConfirmed = "hide-confirmed"
)

type Config struct {
	// Log configuration
	Log log.Config

	// Server configuration
	Server server.Config

	// DB configuration
	DB db.Config

	// Broadcaster configuration
	Broadcaster broadcaster.Config

	// Reconciler configuration
	Reconciler reconciler.Config

	// Metrics configuration
	Metrics metrics.Config

	// Networks overrides the built-in mempool service endpoints per network
	Networks map[string]networks.Endpoints
}

// Default parses the default configuration values.
func Default() (*Config, error) {
	var cfg Config
	viper.SetConfigType("toml")

	err := viper.ReadConfig(bytes.NewBuffer([]byte(DefaultValues)))
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc()))
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads the configuration
func Load(ctx *cli.Context) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	configFilePath := ctx.String(FlagCfg)
	if configFilePath != "" {
		dirName, fileName := filepath.Split(configFilePath)

		fileExtension := strings.TrimPrefix(filepath.Ext(fileName), ".")
		fileNameWithoutExtension := strings.TrimSuffix(fileName, "."+fileExtension)

		viper.AddConfigPath(dirName)
		viper.SetConfigName(fileNameWithoutExtension)
		viper.SetConfigType(fileExtension)
	}
	viper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("MEMPUSH")
	err = viper.ReadInConfig()
	if err != nil {
		_, ok := err.(viper.ConfigFileNotFoundError)
		if ok {
			log.Infof("config file not found")
		} else {
			log.Infof("error reading config file: ", err)
			return nil, err
		}
	}

	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}

	err = viper.Unmarshal(&cfg, decodeHooks...)
	if err != nil {
		return nil, err
	}

	validate(cfg)

	return cfg, nil
}

func validate(cfg *Config) {
	if cfg.Reconciler.Workers == 0 {
		log.Fatalf("invalid configuration: Reconciler.Workers must be greater than 0")
	}
	if cfg.Broadcaster.RequestTimeout.Duration <= 0 {
		log.Fatalf("invalid configuration: Broadcaster.RequestTimeout must be greater than 0")
	}
	for name := range cfg.Networks {
		if _, err := networks.ParseNetwork(name); err != nil {
			log.Fatalf("invalid configuration: unknown network %q in [Networks]", name)
		}
	}
}

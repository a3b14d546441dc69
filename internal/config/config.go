package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Log      Log      `koanf:"log"`
	Calendar Calendar `koanf:"calendar"`
	Export   Export   `koanf:"export"`
}

type Log struct {
	Level string `koanf:"level"`
}

// Calendar describes the calendar created and selected when a session starts.
type Calendar struct {
	Name     string `koanf:"name"`
	Timezone string `koanf:"timezone"`
}

type Export struct {
	Directory string `koanf:"directory"`
}

// Load merges defaults, an optional YAML file, and KALENDO_-prefixed
// environment variables, in that order of precedence.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Log: Log{
			Level: "info",
		},
		Calendar: Calendar{
			Name:     "default",
			Timezone: "UTC",
		},
		Export: Export{
			Directory: ".",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "KALENDO_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "KALENDO_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// global config variables, populated by Init()
var Service serviceConfig
var Database databaseConfig
var RabbitMQ messageQueueConfig
var Redis redisConfig
var ObjectStore objectStoreConfig
var Translator translatorConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service     serviceConfig     `yaml:"service"`
	Database    databaseConfig    `yaml:"database"`
	RabbitMQ    messageQueueConfig `yaml:"rabbitmq"`
	Redis       redisConfig       `yaml:"redis"`
	ObjectStore objectStoreConfig `yaml:"object_store"`
	Translator  translatorConfig  `yaml:"translator"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service = defaultServiceConfig()
	conf.RabbitMQ = defaultMessageQueueConfig()
	conf.Redis = defaultRedisConfig()
	conf.ObjectStore = defaultObjectStoreConfig()
	conf.Translator = defaultTranslatorConfig()
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		return fmt.Errorf("couldn't parse configuration data: %s", err)
	}

	// copy the config data into place
	Service = conf.Service
	Database = conf.Database
	RabbitMQ = conf.RabbitMQ
	Redis = conf.Redis
	ObjectStore = conf.ObjectStore
	Translator = conf.Translator

	return nil
}

// This helper validates the given configuration, returning an error that
// indicates success or failure.
func validateConfig() error {
	if err := validateServiceParameters(Service); err != nil {
		return err
	}
	if Database.URL == "" {
		return fmt.Errorf("no database URL was provided!")
	}
	if RabbitMQ.URL == "" {
		return fmt.Errorf("no RabbitMQ URL was provided!")
	}
	if Redis.Address == "" {
		return fmt.Errorf("no Redis address was provided!")
	}
	if ObjectStore.Bucket == "" {
		return fmt.Errorf("no object store bucket was provided!")
	}
	return nil
}

// Initializes the translation service configuration using the given YAML byte
// data.
func Init(yamlData []byte) error {
	err := readConfig(yamlData)
	if err != nil {
		return err
	}
	return validateConfig()
}

// Package config loads the configuration of a process running stepflow
// pipelines.
//
// It uses Viper to read a YAML file found next to the service
// (cmd/<name>/config.yml, config/config.yml, ./config.yml, ...), loads an
// optional .env file with godotenv and lets an environment variable override
// the key it names (ENGINE_FAULT_TOLERANT=true sets engine.fault_tolerant).
//
// # Usage
//
//	cfg, err := config.Load("orders")
//	opts, err := flow.OptionsFromConfig(cfg.Engine)
package config

// Package config loads typed configuration from the environment, a .env
// file and optional YAML files.
//
//	type ServerConfig struct {
//		Addr string `env:"SERVER_ADDR" envDefault:":8080" yaml:"addr"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Load caches one value per type: later calls for the same type return the
// cached value without reparsing the environment. LoadFile overlays a YAML
// file on top of the environment and is never cached.
package config

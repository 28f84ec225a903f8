// Package config loads env-tagged configuration structs from environment
// variables, with an optional .env file for local development.
//
//	type Config struct {
//		RedisURL string `env:"REDIS_URL,required"`
//		Addr     string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
package config

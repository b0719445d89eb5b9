// Package config loads typed configuration structs from environment
// variables. Every infrastructure package declares its own Config struct
// with `env` tags and the application entrypoint loads them through this
// package, which guarantees a .env file (if present) is read exactly once
// and that repeated loads of the same type are consistent.
package config

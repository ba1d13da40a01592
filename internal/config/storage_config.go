package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type StorageBackend string

const (
	StorageBackendFile   StorageBackend = "file"
	StorageBackendRedis  StorageBackend = "redis"
	StorageBackendMemory StorageBackend = "memory"
)

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetStorageFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Storage struct {
	Backend       StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`
	File          string         `env:"STORAGE_FILE"`
	RedisAddr     string         `env:"REDIS_ADDR"      envDefault:"localhost:6379"`
	RedisPassword string         `env:"REDIS_PASSWORD"`
	RedisDB       int            `env:"REDIS_DB"        envDefault:"0"`
	RedisPrefix   string         `env:"REDIS_PREFIX"    envDefault:"session-client:"`
}

var _ StorageConfig = Storage{}

func (s *Storage) sanitize(dataFolder string) error {
	s.Backend = StorageBackend(strings.ToLower(string(s.Backend)))
	switch s.Backend {
	case StorageBackendFile, StorageBackendRedis, StorageBackendMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q (valid options: file, redis, memory)", s.Backend)
	}
	if s.File == "" {
		s.File = filepath.Join(dataFolder, "session.json")
	}
	return nil
}

func (s Storage) GetStorageBackend() StorageBackend {
	return s.Backend
}

func (s Storage) GetStorageFile() string {
	return s.File
}

func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Storage) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}

func (s Storage) GetRedisPrefix() string {
	return s.RedisPrefix
}

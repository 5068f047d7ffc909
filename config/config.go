package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

func ReadConfig() (Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.sqlite.connection_string", "file:registrar.db")
	viper.SetDefault("database.sqlite.migrations_path", "file://migrations/sqlite")
	viper.SetDefault("database.firestore.course_collection_id", "courses")
	viper.SetDefault("database.firestore.student_collection_id", "students")
	viper.SetDefault("database.mongo.database", "registrar")
	viper.SetDefault("cache.ttl_seconds", 300)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, continuing with env and defaults")
		} else {
			// Config file was found but another error was produced
			return Config{}, fmt.Errorf("failed to read config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	return config, nil
}

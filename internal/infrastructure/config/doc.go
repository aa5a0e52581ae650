// Package config loads ProjectHub settings.
//
// Values come from configs/config.yaml, then a .env file in the working
// directory if one exists, then PROJECTHUB_* environment variables, each
// layer overriding the one before. Validate rejects a configuration the
// server cannot start with, including a JWT secret shorter than 32 bytes.
//
// Keep secrets (security.jwt.secret, database.dsn, broker and Redis
// passwords) out of the YAML file and supply them through the environment.
package config

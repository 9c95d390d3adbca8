package config

const (
	EnvPrefix = "KASIRPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

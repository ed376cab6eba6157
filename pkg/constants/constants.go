package constants

const (
	AppName      = "mediscribe"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "MEDISCRIBE"
)

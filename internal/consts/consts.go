package consts

const (
	DefaultAPIBaseURL = "http://localhost:8000"
	DefaultWSURL      = "ws://localhost:8000"

	EnvConfigPath = "TASKSYNC_CONFIG"
	EnvToken      = "TASKSYNC_TOKEN"

	KeyringService = "tasksync"
	KeyringToken   = "token"
)

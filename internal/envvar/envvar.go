package envvar

const (
	// IrepackEnv is the environment variable used to determine the environment
	IrepackEnv = "IREPACK_ENV"

	// IrepackModelsPath is the environment variable used to override the models cache directory
	IrepackModelsPath = "IREPACK_MODELS_PATH"

	// IrepackLogFile is the environment variable used to override the log file path
	IrepackLogFile = "IREPACK_LOG_FILE"

	// IrepackHubBinary is the environment variable used to override the hub CLI binary name
	IrepackHubBinary = "IREPACK_HUB_BINARY"
)

// Package envvar names the environment variables read by synadapt.
package envvar

const (
	// Prefix is shared by every synadapt environment variable.
	Prefix = "SYNADAPT"

	// SynadaptEnv is the environment variable used to determine the environment
	SynadaptEnv = "SYNADAPT_ENV"

	// SynadaptConfig is the environment variable used to locate the config file
	SynadaptConfig = "SYNADAPT_CONFIG"

	// SynadaptLoaderLibrary is the environment variable used to override the loader library
	SynadaptLoaderLibrary = "SYNADAPT_LOADER_LIBRARY"

	// SynadaptLogLevel is the environment variable used to determine the log level
	SynadaptLogLevel = "SYNADAPT_LOG_LEVEL"

	// SynadaptServerHTTPPort is the environment variable used to determine the HTTP port
	SynadaptServerHTTPPort = "SYNADAPT_SERVER_HTTP_PORT"

	// SynadaptServerGRPCPort is the environment variable used to determine the gRPC port
	SynadaptServerGRPCPort = "SYNADAPT_SERVER_GRPC_PORT"
)

// Package constants defines application-wide constants and default values
// used throughout potx. Centralizing constants keeps the wire behavior and
// the defaults in one place.
package constants

import "time"

// Application metadata
const (
	// AppName is the application name
	AppName = "potx"
	// AppVersion is the current version
	AppVersion = "1.0.0"
	// AppDescription is a brief description of the application
	AppDescription = "Low-interaction TCP honeypot that records probes against arbitrary ports"
)

// Wire behavior
const (
	// ReadTimeout bounds how long a connection may stay silent before it is abandoned
	ReadTimeout = 10 * time.Second
	// MaxReadSize is the number of bytes read from a connection in one call
	MaxReadSize = 4096
	// ListenBacklog is the number of pending connections queued by each listener
	ListenBacklog = 5
	// DenyResponse is sent to every peer that delivered data
	DenyResponse = "Access denied.\n"
)

// Configuration defaults
const (
	// DefaultConfigPath is the configuration file read when no path is given
	DefaultConfigPath = "potx.yaml"
	// DefaultHost is the default bind address
	DefaultHost = "0.0.0.0"
	// DefaultPorts is the default comma-separated port list
	DefaultPorts = "1234"
	// DefaultLogFile is the default log destination
	DefaultLogFile = "potx.log"
	// DefaultLogLevel is the default logging level
	DefaultLogLevel = "debug"
	// DefaultLogFormat is the default log format
	DefaultLogFormat = "text"
	// ConfigFilePermissions is the file permissions for configuration files
	ConfigFilePermissions = 0644
	// LogFilePermissions is the file permissions for the log file
	LogFilePermissions = 0644
	// DirPermissions is the default permissions for created directories
	DirPermissions = 0755
)

// Metrics endpoint
const (
	// MetricsPath is the HTTP path the Prometheus handler is mounted on
	MetricsPath = "/metrics"
	// MetricsReadHeaderTimeout bounds slow header reads on the metrics endpoint
	MetricsReadHeaderTimeout = 5 * time.Second
	// MetricsShutdownTimeout is the maximum time to wait for the metrics server to stop
	MetricsShutdownTimeout = 5 * time.Second
)

// Logging constants
const (
	// LogFieldPort is the field name for the local port in logs
	LogFieldPort = "port"
	// LogFieldRemoteIP is the field name for the peer address in logs
	LogFieldRemoteIP = "remote_ip"
	// LogFieldRemotePort is the field name for the peer port in logs
	LogFieldRemotePort = "remote_port"
	// LogFieldSession is the field name for the per-connection session ID in logs
	LogFieldSession = "session"
	// LogFieldPayload is the field name for the escaped payload in logs
	LogFieldPayload = "payload"
	// LogFieldBytes is the field name for the payload length in logs
	LogFieldBytes = "bytes"
	// LogTimestampFormat is the format for timestamps in text logs
	LogTimestampFormat = "2006-01-02 15:04:05"
	// LogJSONTimestampFormat is the format for timestamps in JSON logs
	LogJSONTimestampFormat = "2006-01-02T15:04:05.000Z07:00"
)

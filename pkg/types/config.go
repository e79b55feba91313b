package types

// StreamSinkType defines the change-stream sink backend.
type StreamSinkType string

// StreamSinkType values enumerate the supported change-stream sinks.
const (
	SinkChannel StreamSinkType = "channel"
	SinkWebhook StreamSinkType = "webhook"
	SinkSNS     StreamSinkType = "sns"
)

// StreamSinkConfig defines one change-stream sink.
type StreamSinkConfig struct {
	Type     StreamSinkType `yaml:"type" json:"type"`
	URL      string         `yaml:"url,omitempty" json:"url,omitempty"`
	TopicARN string         `yaml:"topicArn,omitempty" json:"topicArn,omitempty"`
	Buffer   int            `yaml:"buffer,omitempty" json:"buffer,omitempty"`
}

// ApprovalConfig configures the optional external switch-approval mechanism.
// When neither URL nor Tokens is set, switches proceed on rationale alone.
type ApprovalConfig struct {
	URL     string   `yaml:"url,omitempty" json:"url,omitempty"`
	Tokens  []string `yaml:"tokens,omitempty" json:"tokens,omitempty"`
	Timeout string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	APIKey         string `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
	MaxRequestBody int64  `yaml:"maxRequestBody,omitempty" json:"maxRequestBody,omitempty"`
}

// ProjectConfig represents the top-level switchyard.yaml configuration.
//
// Only the registry's own storage backend and server settings live here.
// Routes themselves are never defaulted from deployment configuration or
// environment variables.
type ProjectConfig struct {
	Store          string             `yaml:"store"`
	File           interface{}        `yaml:"file,omitempty"`
	DynamoDB       interface{}        `yaml:"dynamodb,omitempty"`
	Server         *ServerConfig      `yaml:"server,omitempty"`
	StreamSinks    []StreamSinkConfig `yaml:"streamSinks,omitempty"`
	Approval       *ApprovalConfig    `yaml:"approval,omitempty"`
	SurfaceAliases map[string]string  `yaml:"surfaceAliases,omitempty"`
}

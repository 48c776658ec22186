package agentlens

// Version is the semantic version of the agentlens engine. It is reported
// in client handshakes and in the CLI's --version output.
const Version = "0.4.1"

// UserAgent identifies outbound HTTP requests issued by the engine.
const UserAgent = "agentlens/" + Version

// Package mcp validates and security-scans Model Context Protocol servers
// over the streamable HTTP transport.
//
// The client performs the initialize handshake, acknowledges it, and lists
// the server's declared tools. Compliance rules evaluate the merged
// handshake document; the security scanner runs the shared detection
// passes over the same document plus every declared tool.
package mcp

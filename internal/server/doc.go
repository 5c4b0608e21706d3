// Package server implements the MCP (Model Context Protocol) server for
// Monte Carlo area estimation.
//
// This package provides a JSON-RPC 2.0 server that exposes the estimation
// core through the MCP protocol, so that an MCP client (or any presentation
// layer speaking JSON-RPC) can measure the area of a shape in an image.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load image and get metadata
//   - area_estimate: Monte Carlo area estimate with convergence curve
//   - area_detect_region: Shape bounding box and padded sampling region
//   - area_classify_pixel: Policy verdict for one pixel
//
// Omitted optional arguments take documented defaults. Arguments that are
// present but out of range fail the call; they are never clamped.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process. Every
// estimation works on its own copy of the pixels.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or -32602 (malformed params)
//   - message: Human-readable error description
//   - data: The Go error string, e.g. "no shape detected: ..."
//
// # Usage
//
//	srv := server.New(logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

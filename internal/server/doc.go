// Package server implements the MCP (Model Context Protocol) server for
// UI layout checks.
//
// The server speaks JSON-RPC 2.0 over stdio so an agent can score a
// screenshot's layout while it edits the UI that produced it.
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
// Image Information:
//   - image_load: Load a screenshot and get its metadata
//   - image_edge_detect: Canny edge map as a base64 PNG
//
// Layout:
//   - layout_detect_elements: Element boxes found in a screenshot
//   - layout_analyze: Boxes, alignment groups, grids and the score
//   - layout_score_boxes: Score a caller-supplied box list
//   - layout_visualize: Annotated screenshot or stage panel as a base64 PNG
//   - layout_crop_element: One element cut out as a base64 PNG
//
// The layout tools accept an optional "config" object using the keys of the
// YAML configuration file. It is merged over the server configuration for
// that call only.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses:
//   - -32601: unknown method
//   - -32602: malformed params or arguments, or an unknown tool
//   - -32000: the tool ran and failed (unreadable image, invalid setting)
//
// The data field carries the Go error string. A visualization that fails
// to render is not an error: the score is returned with render_error set.
//
// # Usage
//
//	srv := server.New(config.Default())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

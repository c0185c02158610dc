// Package toolset publishes the execution engine's operations as tools.
//
// NewRigor builds a local backend named "rigor" with four tools:
//
//	rigor:execute_code              run analysis code under the rigor policy
//	rigor:validate_code             parse and lint code without running it
//	rigor:get_session_log           the session's execution history
//	rigor:save_reproducible_script  write a curated standalone script
//
// Tool arguments arrive as decoded JSON objects. Results are the engine's
// own result structs, ready to be marshalled back to JSON.
//
// Publish registers any backend's tools and their documentation in a
// tooldiscovery index so orchestrators can search for them.
package toolset

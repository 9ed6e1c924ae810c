/*
Package ports defines the driven ports (interfaces) for the blockloom executor.

These interfaces decouple planning and execution from the remote content store,
allowing the executor to work against the HTTP API, Redis or process memory.

# Key Interfaces

  - BlockStore: Appends children under a node and lists existing children page by page.

RunBlockStoreContract verifies that an adapter honors the interface contract,
including the remote write limits.
*/
package ports

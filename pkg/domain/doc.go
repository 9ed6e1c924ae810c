/*
Package domain contains the core content model and planning types for blockloom.

It defines the node tree a caller submits (Blocks and Inline runs), the per-kind
nesting rules of the remote content store, and the Plan that the planner emits
and the executor consumes. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Inline: A leaf run of rich content (text, mention, equation) with annotations.
  - Block: A structural node (paragraph, heading, table, ...) with optional children.
  - FlexibleBlock: Either an Inline or a Block, used before a tree shape is final.
  - Kind: The block kind tag, carrying its depth ceiling and child rule.
  - Path: Sibling indices addressing a remote node as it will exist after earlier calls.
  - Plan: The ordered list of bounded append calls.
*/
package domain

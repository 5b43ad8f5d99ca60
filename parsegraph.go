/*
Package parsegraph builds a parser state graph for a context-free grammar:
closure, ordered peek, goto, and scanner-graph synthesis, explored
concurrently and materialized into an intermediate representation for a
codegen/bytecode collaborator.

It is mainly intended to sit underneath a parser-generator toolchain, in the
same spirit as github.com/npillmayer/gorgo sits underneath ad-hoc
Markdown/DSL parsers: the surface grammar, the AST, and the backend are all
external collaborators.

Sub-packages:

  - pdb   — the ParserDatabase contract (grammar, items, closures, follow
    sets) and a reference in-memory implementation.
  - graph — the concurrent graph builder itself: item/origin/transition
    model, peek registry, scanner synthesis, staged nodes, the builder, the
    frozen graph and its IR precursor iterator, and the root registry.
  - astnode — the data-shape contract that external code generators are
    expected to emit parse trees into.

License

Governed by a 3-Clause BSD license, as github.com/npillmayer/gorgo is.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>
*/
package parsegraph

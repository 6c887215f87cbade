// Package dust is a streaming, asynchronous template engine.
//
// Templates are compiled bodies that write into chunks. The data a
// template renders may hold values that are not available yet: deferreds
// that resolve once, and streams that deliver items over time. The engine
// keeps rendering past them and splices their output into place when they
// complete, so the output is always in template order no matter which
// value finishes first.
//
// # Quick Start
//
//	e := dust.NewEngine()
//	e.SetCompiler(compiler.New())
//	e.SetLoader(dust.DirLoader("templates", ".yaml"))
//
//	out, err := e.Render(ctx, "page", map[string]any{
//	    "user":  value.Go(loadUser),
//	    "items": value.FromChan(itemsCh),
//	})
//
// # Chunks
//
// Every render writes into a linked list of chunks owned by a sink. Text
// is appended to the current chunk. An async value calls Chunk.Map, which
// closes the current chunk and links a branch for the value plus a cursor
// for whatever the template writes next. The sink drains the list from its
// head and stops at the first chunk that is still open.
//
// Two sinks are provided. Render and RenderAsync collect the output into a
// string. Stream emits every chunk as an event as soon as the chunks before
// it are done.
//
// # Sections
//
// Sections dispatch on the value they are given:
//
//   - sequences render the block once per item and expose $idx and $len
//   - true renders the block in the current scope
//   - other true values and 0 are pushed as the new scope
//   - deferreds and streams are awaited in a branch
//   - everything else renders the else body
//
// # Errors
//
// Lookup misses are logged and render nothing. Errors from helpers,
// filters and functions in the data fail the chunk they were raised in,
// and the output stops at that position. A rejected deferred without an
// error body is only logged unless StrictRejections is set.
package dust

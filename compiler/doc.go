/*

Process of compilation

Flow Assembly Text ->
	parse ->
Control Flow Graph (flow) ->
	lower ->
Concrete Graph ->
	optimize ->
Simplified Graph ->
	emit ->
Flat Instructions (mlog) ->
	print ->
Mlog Text

Source language handlers build the same graph
through flow.Context and flow.Cursor instead of parse.

*/
package compiler

/*
Package semtok maps classified PineScript tokens to LSP semantic tokens.

🎨 Semantic Tokens Overview:
---------------------------
The classifier already decided what every token means. This package only
translates that decision into the legend an editor understands and packs the
result into the LSP relative encoding.

Architecture:

	Document Text                 LSP Server
	     |                            |
	     v                            v
	+-----------+  classified  +-------------+   []uint32   +--------+
	| @analysis | -----------> |   @semtok   | -----------> | client |
	+-----------+    tokens    +-------------+              +--------+
	                                  |
	                            +-----+------+
	                            |            |
	                       FromClassified  Encode
	                       (token types)   (line/char deltas)

🔍 Token Types:
--------------
  - namespace   (ta, strategy.commission)
  - type / enum (float, array, user types and enums)
  - function / method
  - variable / parameter / property (fields) / enumMember
  - keyword, decorator (//@ annotations), operator
  - string, number (numbers and colour literals), comment

🏷 Token Modifiers:
------------------
  - declaration    (name of a user declaration)
  - readonly       (built-in constants, enum members)
  - defaultLibrary (anything from the built-in catalog)

Unresolved identifiers and punctuation are left out so the editor's own
grammar paints them.

Example Usage:

	doc, err := analysis.Analyze(ctx, catalog, text)
	if err != nil {
	    return err
	}
	data := semtok.Encode(semtok.FromClassified(doc), position.NewMapper(doc.Text))
*/
package semtok

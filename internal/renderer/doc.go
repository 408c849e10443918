// Package renderer draws an editing surface onto a tcell screen.
//
// Text nodes are laid out in document order and wrapped at the screen
// width. Inline formatting maps to terminal attributes:
//
//	<b>, <strong>  bold
//	<i>, <em>      italic
//	<u>            underline
//	<s>, <strike>  strikethrough
//
// The selection is drawn in reverse video and the last row is a status line.
package renderer

// Package html reduces rendered post HTML to plain searchable text.
// It strips tags, scripts and styles, drops forum chrome such as quote
// headers and image metadata, and decodes entities.
package html

// Package markdown reduces GitHub-flavoured Markdown to plain searchable text.
package markdown

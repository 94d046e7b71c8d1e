// Package connectors holds the remote clients that implement
// driven.SubjectSource. discourse speaks the Discourse JSON API for forums;
// github pages issues and comments through the GitHub REST API.
package connectors

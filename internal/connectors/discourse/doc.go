// Package discourse implements the forum SubjectSource against the public
// JSON API of a Discourse deployment.
//
// Listing walks /latest.json following more_topics_url, topic pages come
// from /t/{id}.json?page=N, and user profiles from /u/{username}.json.
// Posts are returned with their cooked HTML reduced to plain text.
package discourse

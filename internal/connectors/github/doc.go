// Package github implements the issue-tracker source for a single GitHub
// repository.
//
// # Architecture
//
// The source follows the driven port pattern defined in [driven.SubjectSource].
// It comprises the following components:
//
//   - Source: lists issues and fetches issue comment pages
//   - Client: handles GitHub API communication with rate limiting
//   - RateLimiter: proactive and reactive throttling
//
// A subject is an issue, identified by its number. Subject pages are pages
// of the issue's comments, PerPage at a time. The listing walks issues of
// all states ordered by most recently updated, so a "latest" walk of one
// page sees the most recent activity first. Pull requests are skipped.
//
// # Authentication
//
// A personal access token is optional. Without one, requests are
// unauthenticated and GitHub allows only 60 requests per hour, so the
// proactive rate drops accordingly.
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to approximately
//     1.2 requests per second when authenticated.
//
//  2. Reactive handling: the client monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset headers. When limits are nearly exhausted, it waits
//     until the reset time before continuing.
package github

// Package github acquires github.com repositories as tarball archives.
//
// The acquirer asks the GitHub REST API for the archive link of a ref,
// downloads the tarball and extracts it into a temporary directory. This
// avoids needing a git binary and fetches no history.
//
// # Authentication
//
// Public repositories need no token. A personal access token (setting
// acquisition.github_token or GITHUB_TOKEN) raises the API rate limit and
// grants access to private repositories. The token is sent to the API only;
// the archive itself is fetched from the pre-signed link GitHub returns.
//
// # Rate Limiting
//
// [RateLimiter] throttles API calls proactively with a token bucket and
// reactively from the X-RateLimit-* response headers.
//
// # Archive Safety
//
// Extraction strips the archive's top-level directory, refuses entries that
// would land outside the destination, skips symbolic and hard links, and stops
// once the extracted size exceeds the configured cap.
package github

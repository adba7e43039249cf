// Package connectors materialises source trees for analysis.
//
// Each sub-package implements [driven.Acquirer] for one kind of location:
//
//   - local: an existing directory, read in place
//   - git: any git remote, shallow-cloned with the git binary
//   - github: a github.com repository, downloaded as a tarball archive
//
// [Resolver] picks the acquirer for a location according to the configured
// acquisition strategy. Every acquirer failure is reported wrapped in
// [domain.ErrAcquisition].
package connectors

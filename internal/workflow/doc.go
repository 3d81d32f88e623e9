// Package workflow implements the branch-transition state machine for the
// three-stage release flow: feature branches merge forward into the
// release-candidate branch, which is promoted to main through a pull request.
// Operations never retry; conflicts are left in place for manual resolution
// and push rejections are reported as soft failures with corrective hints.
package workflow

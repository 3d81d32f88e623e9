// Package changelog renders classified commit history into Markdown release
// sections and maintains the newest-first changelog file.
package changelog

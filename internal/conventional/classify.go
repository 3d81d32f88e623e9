package conventional

import "regexp"

// CommitKind buckets a commit subject by its conventional-commit type token.
type CommitKind string

// Recognized commit kinds. KindOther collects every subject that does not
// match the conventional-commit grammar.
const (
	KindFeat     CommitKind = CommitKind("feat")
	KindFix      CommitKind = CommitKind("fix")
	KindPerf     CommitKind = CommitKind("perf")
	KindRefactor CommitKind = CommitKind("refactor")
	KindDocs     CommitKind = CommitKind("docs")
	KindBuild    CommitKind = CommitKind("build")
	KindCI       CommitKind = CommitKind("ci")
	KindTest     CommitKind = CommitKind("test")
	KindChore    CommitKind = CommitKind("chore")
	KindRevert   CommitKind = CommitKind("revert")
	KindOther    CommitKind = CommitKind("other")
)

// KindPriorityOrder fixes the order changelog groups are rendered in.
var KindPriorityOrder = []CommitKind{
	KindFeat,
	KindFix,
	KindPerf,
	KindRefactor,
	KindDocs,
	KindBuild,
	KindCI,
	KindTest,
	KindChore,
	KindRevert,
	KindOther,
}

// CommitRecord is one classified commit subject.
type CommitRecord struct {
	ShortHash string
	Subject   string
	Kind      CommitKind
}

// conventionalSubjectPattern implements the grammar `type(scope)?!?: subject`.
var conventionalSubjectPattern = regexp.MustCompile(`^(feat|fix|perf|refactor|docs|build|ci|test|chore|revert)(\([^)]*\))?!?:\s*(.+)`)

// ClassifySubject derives the commit kind and normalized subject from a raw
// subject line. Subjects outside the grammar keep their full text under KindOther.
func ClassifySubject(shortHash string, subject string) CommitRecord {
	matches := conventionalSubjectPattern.FindStringSubmatch(subject)
	if matches == nil {
		return CommitRecord{ShortHash: shortHash, Subject: subject, Kind: KindOther}
	}
	return CommitRecord{ShortHash: shortHash, Subject: matches[3], Kind: CommitKind(matches[1])}
}

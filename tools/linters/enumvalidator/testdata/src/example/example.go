package example

type Classification string

const (
	ClassificationBug      Classification = "bug"
	ClassificationFeature  Classification = "feature"
	ClassificationQuestion Classification = "question"
)

type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityHigh Severity = "high"
)

type Source string

const (
	SourceDiscord Source = "discord"
	SourceSlack   Source = "slack"
)

type IssueDraft struct {
	Classification Classification
	Severity       Severity
	Title          string
}

type FeedbackItem struct {
	Source Source
}

func bad() {
	d := &IssueDraft{}
	d.Classification = "complaint" // want "enum field Classification assigned string literal"

	f := &FeedbackItem{}
	f.Source = "email" // want "enum field Source assigned string literal"
}

func good() {
	d := &IssueDraft{}
	d.Classification = ClassificationBug // OK: using constant
	d.Severity = SeverityHigh            // OK: using constant
	d.Title = "checkout crash"           // OK: plain string field

	f := &FeedbackItem{}
	f.Source = SourceDiscord // OK: using constant
}

func alsoGood() {
	// OK: variable, not literal
	sev := SeverityLow
	d := &IssueDraft{Severity: sev}
	_ = d
}

package event

// Verdict is what a trigger tells the dispatcher. AllowAction false
// suppresses the action that fired the event. ContinueExecution false stops
// the dispatch after the current trigger.
type Verdict struct {
	AllowAction       bool
	ContinueExecution bool
}

var (
	Proceed     = Verdict{AllowAction: true, ContinueExecution: true}
	Veto        = Verdict{AllowAction: false, ContinueExecution: true}
	Stop        = Verdict{AllowAction: true, ContinueExecution: false}
	VetoAndStop = Verdict{AllowAction: false, ContinueExecution: false}
)

// Merge folds next into v. Both flags only ever go from true to false.
func (v Verdict) Merge(next Verdict) Verdict {
	return Verdict{
		AllowAction:       v.AllowAction && next.AllowAction,
		ContinueExecution: v.ContinueExecution && next.ContinueExecution,
	}
}

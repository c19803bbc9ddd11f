package reconcile

// Observer receives run progress events. Implementations must be fast; they
// are called inline on the processing loop.
type Observer interface {
	OnStart(runID string)
	OnRecord(record Record, outcome Outcome)
	OnFinish(summary Summary, err error)
}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	Start  func(runID string)
	Record func(record Record, outcome Outcome)
	Finish func(summary Summary, err error)
}

func (f ObserverFuncs) OnStart(runID string) {
	if f.Start != nil {
		f.Start(runID)
	}
}

func (f ObserverFuncs) OnRecord(record Record, outcome Outcome) {
	if f.Record != nil {
		f.Record(record, outcome)
	}
}

func (f ObserverFuncs) OnFinish(summary Summary, err error) {
	if f.Finish != nil {
		f.Finish(summary, err)
	}
}

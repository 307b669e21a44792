package period

// Detect builds the event stream for flows and runs it through a fresh engine.
func Detect(flows Flows, opts ...EngineOption) ([]BusyPeriod, error) {
	events, err := BuildEvents(flows)
	if err != nil {
		return nil, err
	}
	return NewEngine(opts...).Run(events)
}

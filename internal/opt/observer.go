package opt

// Event reports progress from a construction or improvement loop.
type Event struct {
	Algo        string      `json:"algo"`
	Step        int         `json:"step"`
	Cost        float64     `json:"cost"`
	Fulfilled   int         `json:"fulfilled"`
	Improved    bool        `json:"improved"`
	Fingerprint Fingerprint `json:"-"`
}

// Observer receives events synchronously from the search loop. It must not
// retain or mutate the solution state behind an event.
type Observer func(Event)

func (o Observer) emit(algo string, step int, s *Solution, improved bool) {
	if o == nil {
		return
	}
	o(Event{Algo: algo, Step: step, Cost: s.TotalCost, Fulfilled: s.FulfilledCount(), Improved: improved})
}

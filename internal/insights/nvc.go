package insights

// NVCAnalysis is the Nonviolent-Communication reading of one message.
type NVCAnalysis struct {
	Observation string   `json:"observation"`
	Feeling     string   `json:"feeling"`
	Need        string   `json:"need"`
	Request     string   `json:"request"`
	Translation string   `json:"translation" jsonschema_description:"The message rewritten in NVC form"`
	Temperature float64  `json:"temperature" jsonschema:"minimum=0,maximum=1" jsonschema_description:"Emotional temperature, 0 calm to 1 explosive"`
	Horsemen    []string `json:"horsemen,omitempty" jsonschema_description:"Any of criticism, contempt, defensiveness, stonewalling"`
}

// Normalize clamps the temperature and drops unknown horsemen.
func (a NVCAnalysis) Normalize() NVCAnalysis {
	a.Temperature = ClampConfidence(a.Temperature)
	kept := a.Horsemen[:0:0]
	for _, h := range a.Horsemen {
		if oneOf(h, horsemen) == nil {
			kept = append(kept, h)
		}
	}
	a.Horsemen = kept
	return a
}

package driver

// Session is the state carried between menu actions for one run of the program.
type Session struct {
	// ModelID is the model trained in this session, or resumed from the last run.
	ModelID        string
	DefaultModelID string
}

func NewSession(defaultModelID string) *Session {
	return &Session{DefaultModelID: defaultModelID}
}

// CurrentModel is the model used for generation and evaluation.
func (s *Session) CurrentModel() string {
	if s.ModelID != "" {
		return s.ModelID
	}
	return s.DefaultModelID
}

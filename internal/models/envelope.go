package models

const (
	CodeSuccess = "success"
	CodeError   = "error"
)

// Envelope est l'enveloppe commune de toutes les réponses de l'API admin.
type Envelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (e Envelope) OK() bool { return e.Code == CodeSuccess }

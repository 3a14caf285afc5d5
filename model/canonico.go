// Package model defines the canonical record types exchanged with the
// canonical REST collection, the display projections served to the admin UI,
// and the shared error and request-context types.
package model

// Canonico is a named, versioned configuration object with an active/inactive
// lifecycle and an ordered list of calls. JSON keys follow the wire format of
// the remote collection.
type Canonico struct {
	Name               string   `json:"nome"`
	Description        string   `json:"descricao"`
	Version            int      `json:"versao"`
	Status             Status   `json:"statusCanonico,omitempty"`
	PostProcessingType string   `json:"tipoPosProcessamento"`
	Topics             []string `json:"topicos"`
	KeyFormat          string   `json:"formatoChave"`
	Dependencies       []string `json:"dependencias,omitempty"`
	Calls              []Call   `json:"chamadas"`
}

// Call is one invocation step of a Canonico. Order defines the execution
// sequence and is preserved as received; uniqueness is not checked here.
type Call struct {
	Order       int         `json:"ordem"`
	Name        string      `json:"nome"`
	URL         string      `json:"url"`
	Description string      `json:"descricao"`
	Parameters  []Parameter `json:"parametros"`
}

// Parameter describes a single call parameter.
type Parameter struct {
	DataType string `json:"tipoDado"`
	Name     string `json:"nome"`
	Type     string `json:"tipo"`
}

// IsZero reports whether the record carries no data at all.
func (c Canonico) IsZero() bool {
	return c.Name == "" &&
		c.Description == "" &&
		c.Version == 0 &&
		c.Status == StatusUnset &&
		c.PostProcessingType == "" &&
		len(c.Topics) == 0 &&
		c.KeyFormat == "" &&
		len(c.Dependencies) == 0 &&
		len(c.Calls) == 0
}

// StatusPatch is the body of a partial status update.
type StatusPatch struct {
	Status Status `json:"statusCanonico"`
}

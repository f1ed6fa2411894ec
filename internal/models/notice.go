package models

// Notice is one judicial notice parsed from a bulletin.
// Field order matches the published JSON layout consumed downstream.
type Notice struct {
	PublishedOn string `json:"fechaPublicacion"`
	Shift       string `json:"turno"`
	Court       string `json:"juzgado"`
	CaseFile    string `json:"expediente"`
	Title       string `json:"caratula"`
	Description string `json:"descripcion"`
	Venue       string `json:"radicado"`
	Proceeding  string `json:"tramite"`
	SourceURL   string `json:"fuenteURL"`
}

// Enrich stamps the notice with the unit it was parsed from.
func (n Notice) Enrich(u WorkUnit) Notice {
	n.PublishedOn = u.ISODate()
	n.Shift = u.Shift
	n.Court = u.CourtLabel
	n.SourceURL = u.URL

	return n
}

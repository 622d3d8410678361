package model

type AddTuneRequestBody struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Notation string `json:"notation"`
}

type SearchRequestBody struct {
	Query string `json:"query"`
}

type PreviewRequestBody struct {
	Notation string `json:"notation"`
}

type InstrumentRequestBody struct {
	Instrument string `json:"instrument"`
}

type DocumentRequestBody struct {
	URL string `json:"url"`
}

type SectionRequestBody struct {
	Section string `json:"section"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

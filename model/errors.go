package model

import "github.com/Southclaws/fault/ftag"

// Error kinds, one per recovery path. None of them is fatal.
const (
	KindDataLoad       ftag.Kind = "data_load"
	KindEngineLoad     ftag.Kind = "engine_load"
	KindNotationParse  ftag.Kind = "notation_parse"
	KindSessionPrepare ftag.Kind = "session_prepare"
	KindSessionStop    ftag.Kind = "session_stop"
)

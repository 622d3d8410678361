package midi

import (
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Incipit copies s keeping the first notes notes of each track that start at
// or after fromTick. Meta and controller events before fromTick are moved to
// the start of the excerpt.
func Incipit(s *smf.SMF, fromTick uint64, notes int) *smf.SMF {
	res := smf.New()
	res.TimeFormat = s.TimeFormat

	for _, track := range s.Tracks {
		var out smf.Track
		var abs uint64
		cursor := fromTick
		emit := func(ev smf.Event) {
			at := max(abs, fromTick)
			out = append(out, smf.Event{Delta: uint32(at - cursor), Message: ev.Message})
			cursor = at
		}

		started := 0
		sounding := map[uint8]bool{}
		for _, ev := range track {
			abs += uint64(ev.Delta)
			msg := midi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				if abs < fromTick || started >= notes {
					continue
				}
				started++
				sounding[key] = true
			case msg.GetNoteEnd(&ch, &key):
				if !sounding[key] {
					continue
				}
				delete(sounding, key)
			case ev.Message.Is(smf.MetaEndOfTrackMsg):
				continue
			default:
				if abs > fromTick && started >= notes {
					continue
				}
			}
			emit(ev)
			if started >= notes && len(sounding) == 0 {
				break
			}
		}
		out.Close(0)
		res.Add(out)
	}
	return res
}

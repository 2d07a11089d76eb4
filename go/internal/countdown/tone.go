package countdown

// Tone is an urgency cue sounded near the end of the countdown. Pitch
// rises as fewer seconds remain; zero gets its own distinct tone.
type Tone string

const (
	ToneLow   Tone = "low"   // 4-5 seconds remaining
	ToneMid   Tone = "mid"   // 2-3 seconds remaining
	ToneHigh  Tone = "high"  // 1 second remaining
	ToneFinal Tone = "final" // time is up
)

// soundWindow is the number of trailing seconds that get a tone.
const soundWindow = 5

// ToneEmitter produces the audible cue. Implementations live with the
// presentation layer; muting a client swaps nothing here.
type ToneEmitter interface {
	Emit(tone Tone)
}

// toneFor maps seconds remaining to an urgency tier, or "" outside the
// sound window.
func toneFor(remaining int) Tone {
	switch {
	case remaining == 0:
		return ToneFinal
	case remaining == 1:
		return ToneHigh
	case remaining <= 3:
		return ToneMid
	case remaining <= soundWindow:
		return ToneLow
	default:
		return ""
	}
}
